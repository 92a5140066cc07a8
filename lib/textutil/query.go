package textutil

import (
	"regexp"
	"strings"
)

const DefaultMaxQueryWords = 6

type QueryOptions struct {
	// maximum number of whitespace-separated tokens kept in the query,
	// DefaultMaxQueryWords when zero
	MaxWords int
}

// catalog names append appellation, color and packaging after the
// producer/cuvée part, e.g.
// "Gérard Bertrand Heresie, 2022 - Corbières AOP - Rouge - 75 cl".
// rating sites index by producer+cuvée, so everything from the first of
// these markers onward is noise.
var (
	// \b is ASCII-only in Go regexps, so Rosé gets no trailing boundary
	markerRegex     = regexp.MustCompile(`(?i)\b(AOP|IGP|AOC|Vin de France|Rouge|Blanc|Moelleux)\b|\bRosé`)
	bottleSizeRegex = regexp.MustCompile(`(?i)-\s*\d+\s*cl\b`)
	delimiterRegex  = regexp.MustCompile(`\s-\s`)
	yearTokenRegex  = regexp.MustCompile(`,?\s*\b(19[5-9]\d|20[0-3]\d)\b`)
)

// BuildQuery turns a noisy catalog name into a search query for a rating
// provider. It returns "" when nothing usable remains, which callers must
// treat as "no lookup attempted" rather than an error.
func BuildQuery(name string, opts QueryOptions) string {
	maxWords := opts.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxQueryWords
	}

	cut := len(name)
	for _, re := range []*regexp.Regexp{markerRegex, bottleSizeRegex, delimiterRegex} {
		loc := re.FindStringIndex(name)
		if loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	query := name[:cut]

	query = yearTokenRegex.ReplaceAllString(query, "")
	query = whitespaceRegex.ReplaceAllString(query, " ")
	query = strings.Trim(query, " \t\n")
	query = strings.TrimRight(query, "-,.;:")
	query = strings.Trim(query, " \t\n")

	words := strings.Fields(query)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName collapses a product name down to a form suitable for
// fuzzy comparison: lowercased with all whitespace removed.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// plausible vintage range for bottles currently on shelves
var vintageRegex = regexp.MustCompile(`\b(19[5-9]\d|20[0-3]\d)\b`)

// ExtractVintage returns the first 4-digit year token in the name that
// falls within 1950-2039.
func ExtractVintage(name string) (int, bool) {
	m := vintageRegex.FindString(name)
	if m == "" {
		return 0, false
	}
	year := 0
	for _, c := range m {
		year = year*10 + int(c-'0')
	}
	return year, true
}

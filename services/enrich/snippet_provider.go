package enrich

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"cavescout/lib/scrapers/websearch"
	"cavescout/lib/textutil"
)

// SnippetProvider resolves queries through a general web search: it
// asks for `<query> <provider> rating`, keeps the first hit on the
// rating site's domain and reads the rating out of the snippet text.
type SnippetProvider struct {
	search *websearch.Client

	// defaults: vivino / vivino.com / 5
	ProviderName   string
	ProviderDomain string
	MaxResults     int
	// plausible crowd-rating window, defaults to [2.5, 5.0]; numbers in
	// snippet text outside it are assumed to be something else entirely
	MinRating float64
	MaxRating float64
}

func NewSnippetProvider(search *websearch.Client) *SnippetProvider {
	return &SnippetProvider{
		search:         search,
		ProviderName:   "vivino",
		ProviderDomain: "vivino.com",
		MaxResults:     5,
		MinRating:      2.5,
		MaxRating:      5.0,
	}
}

func (p *SnippetProvider) Lookup(ctx context.Context, query string) (*RawMatch, error) {
	results, err := p.search.Search(
		ctx,
		fmt.Sprintf("%s %s rating", query, p.ProviderName),
		p.MaxResults,
	)
	if err != nil {
		return nil, err
	}

	for _, result := range results {
		if !strings.Contains(result.Url, p.ProviderDomain) {
			continue
		}
		match := p.parseSnippet(result.Url, result.Snippet)
		if match != nil {
			return match, nil
		}
	}
	return nil, nil
}

var (
	// a lone digit-separator-digit value, optionally written as n/5
	snippetRatingRegex = regexp.MustCompile(`\b(5[.,]0|[2-4][.,]\d)\b\s*(?:/\s*5)?`)
	// "1 234 ratings", "1,234 avis", "1234 notes"
	snippetReviewsRegex = regexp.MustCompile(`(?i)(\d[\d\s.,\x{00a0}\x{202f}]*)\s*(?:ratings?|avis|notes?)\b`)
	digitsOnlyRegex     = regexp.MustCompile(`\D`)
)

func (p *SnippetProvider) parseSnippet(link, snippet string) *RawMatch {
	groups := snippetRatingRegex.FindStringSubmatch(snippet)
	if len(groups) < 2 {
		return nil
	}
	rating, err := strconv.ParseFloat(strings.ReplaceAll(groups[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	if rating < p.MinRating || rating > p.MaxRating {
		return nil
	}
	rating = math.Round(rating*10) / 10

	reviews := 0
	reviewGroups := snippetReviewsRegex.FindStringSubmatch(snippet)
	if len(reviewGroups) == 2 {
		n, err := strconv.Atoi(digitsOnlyRegex.ReplaceAllString(reviewGroups[1], ""))
		if err == nil {
			reviews = n
		}
	}

	year, _ := textutil.ExtractVintage(snippet)

	return &RawMatch{
		Year:        year,
		Rating:      rating,
		ReviewCount: reviews,
		SourceUrl:   link,
	}
}

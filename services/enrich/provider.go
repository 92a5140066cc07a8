package enrich

import "context"

// RawMatch is a candidate rating record returned by a provider before
// the match decision runs. Year 0 means the record has no vintage.
type RawMatch struct {
	Name        string
	Year        int
	Rating      float64
	ReviewCount int
	SourceUrl   string
}

// RatingProvider resolves a cleaned-up search query to at most one
// candidate record. (nil, nil) means the provider found nothing; an
// empty result is not an error.
type RatingProvider interface {
	Lookup(ctx context.Context, query string) (*RawMatch, error)
}

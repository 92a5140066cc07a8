package enrich

import (
	"context"
	"math"

	"cavescout/lib/scrapers/vivino"
)

// APIProvider resolves queries against the rating site's own search
// endpoint. The structured rating field is trusted as-is, so no
// plausibility window is applied here.
type APIProvider struct {
	client *vivino.Client
}

func NewAPIProvider(client *vivino.Client) APIProvider {
	return APIProvider{client: client}
}

func (p APIProvider) Lookup(ctx context.Context, query string) (*RawMatch, error) {
	match, err := p.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}
	return &RawMatch{
		Name:        match.Name,
		Year:        match.Year,
		Rating:      math.Round(match.Rating*100) / 100,
		ReviewCount: match.ReviewCount,
		SourceUrl:   match.Url,
	}, nil
}

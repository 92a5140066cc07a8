package vivino

import (
	"context"
	"fmt"
	"time"

	"cavescout/lib/restyutil"
	"cavescout/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/vivino")

const defaultBaseUrl = "https://www.vivino.com"

// Match is the first search hit for a query, already reduced to the
// fields the enrichment pipeline cares about. Year 0 means the record
// carries no vintage (non-vintage cuvées report none).
type Match struct {
	Name        string
	Year        int
	Rating      float64
	ReviewCount int
	Url         string
}

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	// overridable for tests
	BaseUrl          string
	InstrumentOutput restyutil.InstrumentOutput
}

func NewClient(opts ClientOptions) *Client {
	base := opts.BaseUrl
	if base == "" {
		base = defaultBaseUrl
	}

	client := resty.New()
	client.SetBaseURL(base)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	client.SetHeader("accept", "application/json")
	client.SetTimeout(time.Second * 15)

	telemetry.InstrumentResty(client, "scrapers/vivino/http")
	restyutil.InstrumentClient(client, opts.InstrumentOutput)

	return &Client{http: client}
}

type exploreResponse struct {
	ExploreVintage struct {
		Matches []struct {
			Vintage vintageRecord `json:"vintage"`
		} `json:"matches"`
	} `json:"explore_vintage"`
}

type vintageRecord struct {
	Id         int64  `json:"id"`
	SeoName    string `json:"seo_name"`
	Name       string `json:"name"`
	Year       int    `json:"year"`
	Statistics struct {
		RatingsAverage float64 `json:"ratings_average"`
		RatingsCount   int     `json:"ratings_count"`
	} `json:"statistics"`
}

// Search runs the structured search endpoint and returns the first
// record that carries a numeric rating, or nil when the provider has
// nothing for the query.
func (c *Client) Search(ctx context.Context, query string) (*Match, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	var body exploreResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&body).
		Get("/api/explore/explore")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("search returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, err
	}

	if len(body.ExploreVintage.Matches) == 0 {
		return nil, nil
	}
	record := body.ExploreVintage.Matches[0].Vintage
	if record.Statistics.RatingsAverage == 0 {
		// unrated entries are useless to us, same as no result
		return nil, nil
	}

	link := ""
	if record.SeoName != "" {
		link = fmt.Sprintf("%s/wines/%s", defaultBaseUrl, record.SeoName)
	}

	return &Match{
		Name:        record.Name,
		Year:        record.Year,
		Rating:      record.Statistics.RatingsAverage,
		ReviewCount: record.Statistics.RatingsCount,
		Url:         link,
	}, nil
}

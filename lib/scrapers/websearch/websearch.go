package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cavescout/lib/htmlutil"
	"cavescout/lib/restyutil"
	"cavescout/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/websearch")

const defaultBaseUrl = "https://html.duckduckgo.com"

// Result is one organic hit on the search results page.
type Result struct {
	Title   string
	Url     string
	Snippet string
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
	client.SetTimeout(time.Second * 15)

	telemetry.InstrumentResty(client, "scrapers/websearch/http")
	restyutil.InstrumentClient(client, opts.InstrumentOutput)

	return &Client{http: client}
}

// Search scrapes the html results page for the query and returns up to
// maxResults organic hits in page order.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get("/html/")
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

	results, err := parseResults(res.String(), maxResults)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse results page")
		return nil, err
	}
	span.SetAttributes(attribute.Int("result_count", len(results)))
	return results, nil
}

func parseResults(html string, maxResults int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if maxResults > 0 && len(results) >= maxResults {
			return false
		}

		anchor := div.Find("a.result__a").First()
		link := cleanResultUrl(anchor.AttrOr("href", ""))
		if link == "" {
			return true
		}

		results = append(results, Result{
			Title:   htmlutil.CleanText(anchor.Text()),
			Url:     link,
			Snippet: htmlutil.CleanText(div.Find(".result__snippet").First().Text()),
		})
		return true
	})

	return results, nil
}

// result links are wrapped in a redirect of the form
// //duckduckgo.com/l/?uddg=<escaped target>&rut=...
func cleanResultUrl(href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	return parsed.String()
}

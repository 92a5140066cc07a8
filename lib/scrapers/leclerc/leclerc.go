package leclerc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"time"

	"cavescout/lib/restyutil"
	"cavescout/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/leclerc")

const baseUrl = "https://www.e.leclerc"

// catalog category slugs as they appear in the shop's urls
const (
	WineTypeRed       = "vins-rouges"
	WineTypeWhite     = "vins-blancs"
	WineTypeRose      = "vins-roses"
	WineTypeSparkling = "vins-mousseux-et-petillants"
)

type Client struct {
	http *resty.Client
	// store sign code, selects which physical store's stock is shown
	storeCode string
	maxPages  int
}

type ClientOptions struct {
	StoreCode string
	// upper bound on catalog pages walked per category, defaults to 10
	MaxPages         int
	InstrumentOutput restyutil.InstrumentOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	base, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/leclerc/http")
	restyutil.InstrumentClient(client, opts.InstrumentOutput)

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}

	return &Client{
		http:      client,
		storeCode: opts.StoreCode,
		maxPages:  maxPages,
	}, nil
}

func (c *Client) categoryUrl(wineType string, page int) string {
	link := fmt.Sprintf("/cat/%s", wineType)
	if page > 1 {
		link = fmt.Sprintf("%s?page=%d", link, page)
	}
	if c.storeCode != "" {
		link = fmt.Sprintf("%s#oaf-sign-code=%s", link, c.storeCode)
	}
	return link
}

// Catalog walks the paginated category listing for the given wine type
// and returns every product card found, de-duplicated by EAN.
func (c *Client) Catalog(ctx context.Context, wineType string) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "client:Catalog")
	defer span.End()
	span.SetAttributes(attribute.String("wine_type", wineType))

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.categoryUrl(wineType, 1))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch first catalog page")
		return nil, err
	}

	firstPage, err := ParseCatalogPage(res.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse first catalog page")
		return nil, err
	}
	pageCount := PageCount(res.String())
	if pageCount > c.maxPages {
		pageCount = c.maxPages
	}

	seen := make(map[string]struct{})
	var products []Product
	appendNew := func(page []Product) int {
		added := 0
		for _, p := range page {
			if _, dup := seen[p.EAN]; p.EAN != "" && dup {
				continue
			}
			seen[p.EAN] = struct{}{}
			products = append(products, p)
			added++
		}
		return added
	}

	appendNew(firstPage)
	slog.DebugContext(ctx, "parsed catalog page",
		"wine_type", wineType, "page", 1, "products", len(firstPage), "pages", pageCount)

	for page := 2; page <= pageCount; page++ {
		res, err := c.http.R().
			SetContext(ctx).
			Get(c.categoryUrl(wineType, page))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch catalog page")
			return products, err
		}
		parsed, err := ParseCatalogPage(res.String())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse catalog page")
			return products, err
		}

		added := appendNew(parsed)
		slog.DebugContext(ctx, "parsed catalog page",
			"wine_type", wineType, "page", page, "products", added)
		// pages past the end repeat earlier content
		if added == 0 {
			break
		}
	}

	span.SetAttributes(attribute.Int("product_count", len(products)))
	return products, nil
}

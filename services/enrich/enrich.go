package enrich

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"cavescout/lib/textutil"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("services/enrich")

type Options struct {
	// listings looked up concurrently per batch, defaults to 5
	BatchSize int
	// pause between batches to stay under the provider's informal
	// rate tolerance, defaults to 150ms
	BatchDelay time.Duration
	// per-lookup deadline, defaults to 8s
	LookupTimeout time.Duration
	Query         textutil.QueryOptions
}

type Enricher struct {
	provider RatingProvider
	opts     Options
}

func New(provider RatingProvider, opts Options) Enricher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = 150 * time.Millisecond
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 8 * time.Second
	}
	return Enricher{provider: provider, opts: opts}
}

// EnrichAll looks up a rating for every listing, in fixed-size batches
// of concurrent lookups, and returns results in input order. Individual
// lookup failures degrade that listing to "no match" and never abort
// the run. Cancelling the context stops dispatching new batches; the
// remaining listings come back as "no match".
func (e Enricher) EnrichAll(ctx context.Context, listings []RawListing) []EnrichedListing {
	ctx, span := tracer.Start(ctx, "EnrichAll")
	defer span.End()
	span.SetAttributes(attribute.Int("listing_count", len(listings)))

	out := make([]EnrichedListing, len(listings))

	for start := 0; start < len(listings); start += e.opts.BatchSize {
		if ctx.Err() != nil {
			for i := start; i < len(listings); i++ {
				out[i] = noMatch(listings[i])
			}
			break
		}

		end := start + e.opts.BatchSize
		if end > len(listings) {
			end = len(listings)
		}

		wg := sync.WaitGroup{}
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = e.enrichOne(ctx, listings[i])
			}(i)
		}
		wg.Wait()

		slog.DebugContext(ctx, "enriched batch",
			"done", end, "total", len(listings))

		if end < len(listings) {
			select {
			case <-time.After(e.opts.BatchDelay):
			case <-ctx.Done():
			}
		}
	}

	matched := 0
	for _, l := range out {
		if l.Rating != nil {
			matched++
		}
	}
	span.SetAttributes(attribute.Int("matched_count", matched))
	slog.InfoContext(ctx, "enrichment finished",
		"listings", len(listings), "matched", matched)

	return out
}

func (e Enricher) enrichOne(ctx context.Context, listing RawListing) EnrichedListing {
	query := textutil.BuildQuery(listing.Name, e.opts.Query)
	if query == "" {
		// nothing usable left after cleanup, same outcome as a miss
		return noMatch(listing)
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.LookupTimeout)
	defer cancel()

	match, err := e.provider.Lookup(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "rating lookup failed",
			"name", listing.Name, "query", query, "err", err)
		match = nil
	}
	return decide(listing, query, match)
}

func noMatch(listing RawListing) EnrichedListing {
	return EnrichedListing{
		RawListing:   listing,
		VintageMatch: VintageUnknown,
	}
}

// decide applies the match rules to a candidate record and assembles
// the final enriched listing.
func decide(listing RawListing, query string, match *RawMatch) EnrichedListing {
	if match == nil {
		return noMatch(listing)
	}

	enriched := EnrichedListing{
		RawListing:  listing,
		Rating:      &match.Rating,
		ReviewCount: match.ReviewCount,
		MatchedName: match.Name,
		SourceUrl:   match.SourceUrl,
		Ratio:       Ratio(match.Rating, listing.Price),
	}

	if match.Year != 0 {
		year := match.Year
		enriched.MatchedVintage = &year
	}
	switch {
	case listing.DeclaredVintage == nil || enriched.MatchedVintage == nil:
		enriched.VintageMatch = VintageUnknown
	case *listing.DeclaredVintage == *enriched.MatchedVintage:
		enriched.VintageMatch = VintageAgreed
	default:
		enriched.VintageMatch = VintageDisagreed
	}

	if match.Name != "" {
		enriched.Confidence = math.Round(matchr.JaroWinkler(
			textutil.NormalizeName(query),
			textutil.NormalizeName(match.Name),
			false,
		)*1000) / 1000
	}

	return enriched
}

// NewRawListing builds a listing from scraped catalog fields, deriving
// the declared vintage from the name.
func NewRawListing(name string, price float64, url, ean string) RawListing {
	listing := RawListing{
		Name:  name,
		Price: price,
		Url:   url,
		EAN:   ean,
	}
	if year, ok := textutil.ExtractVintage(name); ok {
		listing.DeclaredVintage = &year
	}
	return listing
}

package cellar

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"cavescout/lib/scrapers/leclerc"
	"cavescout/services/enrich"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/cellar")

// ListingSource produces the raw catalog for one wine type.
type ListingSource interface {
	Listings(ctx context.Context, wineType string) ([]enrich.RawListing, error)
}

// CatalogSource adapts the retail catalog scraper to a ListingSource.
type CatalogSource struct {
	client *leclerc.Client
}

func NewCatalogSource(client *leclerc.Client) CatalogSource {
	return CatalogSource{client: client}
}

func (s CatalogSource) Listings(ctx context.Context, wineType string) ([]enrich.RawListing, error) {
	products, err := s.client.Catalog(ctx, wineType)
	if err != nil {
		return nil, err
	}
	listings := make([]enrich.RawListing, 0, len(products))
	for _, product := range products {
		listings = append(listings, enrich.NewRawListing(
			product.Name, product.Price, product.Url, product.EAN,
		))
	}
	return listings, nil
}

type ServiceOptions struct {
	// defaults to 30m
	CacheTTL time.Duration
	// distinct wine types held in memory at once, defaults to 8
	CacheSize int
}

type cachedSet struct {
	listings    []enrich.EnrichedListing
	refreshedAt time.Time
}

// Service owns the enriched sets: refreshing them from the source,
// persisting the latest snapshot and answering queries from cache or
// the snapshot store.
type Service struct {
	source   ListingSource
	enricher enrich.Enricher
	store    Store
	cache    *expirable.LRU[string, cachedSet]
}

func NewService(
	source ListingSource,
	enricher enrich.Enricher,
	db *sql.DB,
	opts ServiceOptions,
) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 8
	}
	return &Service{
		source:   source,
		enricher: enricher,
		store:    NewStore(db),
		cache:    expirable.NewLRU[string, cachedSet](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Refresh scrapes the catalog for a wine type, enriches it and replaces
// both the cached and the stored snapshot.
func (s *Service) Refresh(ctx context.Context, wineType string) ([]enrich.EnrichedListing, error) {
	ctx, span := tracer.Start(ctx, "Refresh")
	defer span.End()
	span.SetAttributes(attribute.String("wine_type", wineType))

	listings, err := s.source.Listings(ctx, wineType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch catalog")
		return nil, err
	}
	slog.InfoContext(ctx, "catalog fetched",
		"wine_type", wineType, "listings", len(listings))

	enriched := s.enricher.EnrichAll(ctx, listings)

	err = s.store.ReplaceSnapshot(ctx, wineType, enriched)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store snapshot")
		return nil, err
	}
	s.cache.Add(wineType, cachedSet{
		listings:    enriched,
		refreshedAt: time.Now(),
	})

	return enriched, nil
}

// Wines answers a query from the cached set, falling back to the stored
// snapshot. It never reaches out to the source; an absent snapshot
// yields an empty result.
func (s *Service) Wines(ctx context.Context, wineType string, query Query) (QueryResult, error) {
	ctx, span := tracer.Start(ctx, "Wines")
	defer span.End()
	span.SetAttributes(attribute.String("wine_type", wineType))

	set, ok := s.cache.Get(wineType)
	if !ok {
		listings, refreshedAt, err := s.store.Snapshot(ctx, wineType)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load snapshot")
			return QueryResult{}, err
		}
		set = cachedSet{listings: listings, refreshedAt: refreshedAt}
		if listings != nil {
			s.cache.Add(wineType, set)
		}
	}

	filtered := applyQuery(set.listings, query)
	return QueryResult{
		Wines:       filtered,
		Stats:       computeStats(filtered),
		RefreshedAt: set.refreshedAt,
	}, nil
}

// Invalidate drops the in-memory set for a wine type so the next query
// rereads the snapshot store.
func (s *Service) Invalidate(wineType string) {
	s.cache.Remove(wineType)
}

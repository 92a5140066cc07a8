package cellar

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"cavescout/services/enrich"
)

type Sort string

const (
	// quality/price ratio, best first; the default view
	SortRatio Sort = "ratio"
	// crowd rating, best first
	SortRating    Sort = "rating"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

func ParseSort(value string) (Sort, error) {
	switch Sort(value) {
	case "":
		return SortRatio, nil
	case SortRatio, SortRating, SortPriceAsc, SortPriceDesc:
		return Sort(value), nil
	}
	return "", fmt.Errorf("unknown sort %q", value)
}

// Query narrows and orders an enriched set. Zero values mean "no
// constraint".
type Query struct {
	PriceMax  float64
	RatingMin float64
	// case-insensitive substring match on the catalog name
	Search string
	// keep only listings whose declared and matched vintages agree
	VintageConfirmed bool
	Sort             Sort
}

type Stats struct {
	Count int `json:"count"`
	// unrated listings are excluded from AvgRating but not AvgPrice
	AvgPrice  float64 `json:"avg_price"`
	AvgRating float64 `json:"avg_rating"`
}

type QueryResult struct {
	Wines       []enrich.EnrichedListing `json:"wines"`
	Stats       Stats                    `json:"stats"`
	RefreshedAt time.Time                `json:"refreshed_at"`
}

func applyQuery(listings []enrich.EnrichedListing, query Query) []enrich.EnrichedListing {
	search := strings.ToLower(query.Search)

	filtered := make([]enrich.EnrichedListing, 0, len(listings))
	for _, listing := range listings {
		if query.PriceMax > 0 && listing.Price > query.PriceMax {
			continue
		}
		if query.RatingMin > 0 &&
			(listing.Rating == nil || *listing.Rating < query.RatingMin) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(listing.Name), search) {
			continue
		}
		if query.VintageConfirmed && listing.VintageMatch != enrich.VintageAgreed {
			continue
		}
		filtered = append(filtered, listing)
	}

	rating := func(listing enrich.EnrichedListing) float64 {
		if listing.Rating == nil {
			return 0
		}
		return *listing.Rating
	}
	switch query.Sort {
	case SortRating:
		sort.SliceStable(filtered, func(i, j int) bool {
			return rating(filtered[i]) > rating(filtered[j])
		})
	case SortPriceAsc:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price < filtered[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price > filtered[j].Price
		})
	default:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Ratio > filtered[j].Ratio
		})
	}
	return filtered
}

func computeStats(listings []enrich.EnrichedListing) Stats {
	stats := Stats{Count: len(listings)}
	if len(listings) == 0 {
		return stats
	}

	priceSum := 0.0
	ratingSum := 0.0
	rated := 0
	for _, listing := range listings {
		priceSum += listing.Price
		if listing.Rating != nil {
			ratingSum += *listing.Rating
			rated++
		}
	}
	stats.AvgPrice = round2(priceSum / float64(len(listings)))
	if rated > 0 {
		stats.AvgRating = round2(ratingSum / float64(rated))
	}
	return stats
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

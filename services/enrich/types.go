package enrich

import (
	"encoding/json"
	"math"
)

// RawListing is one product as acquired from the retail catalog. It is
// immutable once built; enrichment produces a new value around it.
type RawListing struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Url   string  `json:"url,omitempty"`
	EAN   string  `json:"ean,omitempty"`
	// year parsed out of the catalog name, nil when the name carries none
	DeclaredVintage *int `json:"vintage,omitempty"`
}

// VintageAgreement records whether the vintage the rating provider
// reports matches the one printed in the catalog name.
type VintageAgreement int

const (
	// either side's vintage is unavailable, nothing to compare
	VintageUnknown VintageAgreement = iota
	VintageAgreed
	VintageDisagreed
)

func (a VintageAgreement) String() string {
	switch a {
	case VintageAgreed:
		return "agreed"
	case VintageDisagreed:
		return "disagreed"
	}
	return "unknown"
}

// serialized as true / false / null, matching how consumers think of it
func (a VintageAgreement) MarshalJSON() ([]byte, error) {
	switch a {
	case VintageAgreed:
		return []byte("true"), nil
	case VintageDisagreed:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (a *VintageAgreement) UnmarshalJSON(data []byte) error {
	var value *bool
	err := json.Unmarshal(data, &value)
	if err != nil {
		return err
	}
	switch {
	case value == nil:
		*a = VintageUnknown
	case *value:
		*a = VintageAgreed
	default:
		*a = VintageDisagreed
	}
	return nil
}

// EnrichedListing is a RawListing plus the outcome of the rating lookup.
// A nil Rating means "no rating found", which deliberately does not
// distinguish lookup failure from a genuine miss.
type EnrichedListing struct {
	RawListing
	Rating         *float64         `json:"rating"`
	ReviewCount    int              `json:"ratings_count"`
	MatchedName    string           `json:"matched_name,omitempty"`
	MatchedVintage *int             `json:"matched_vintage,omitempty"`
	VintageMatch   VintageAgreement `json:"vintage_match"`
	// similarity between the query and the matched record's name,
	// informational only
	Confidence float64 `json:"confidence,omitempty"`
	SourceUrl  string  `json:"source_url,omitempty"`
	Ratio      float64 `json:"ratio"`
}

// Ratio computes the quality/price score. It is always derived from
// rating and price, never stored independently of them.
func Ratio(rating, price float64) float64 {
	if price <= 0 || rating <= 0 {
		return 0
	}
	return math.Round(rating/price*10*1000) / 1000
}

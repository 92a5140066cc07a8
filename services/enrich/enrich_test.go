package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	lookup func(ctx context.Context, query string) (*RawMatch, error)

	mu          sync.Mutex
	inFlight    int32
	maxInFlight int32
	queries     []string
}

func (p *fakeProvider) Lookup(ctx context.Context, query string) (*RawMatch, error) {
	current := atomic.AddInt32(&p.inFlight, 1)
	defer atomic.AddInt32(&p.inFlight, -1)
	p.mu.Lock()
	if current > p.maxInFlight {
		p.maxInFlight = current
	}
	p.queries = append(p.queries, query)
	p.mu.Unlock()
	return p.lookup(ctx, query)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestEnrichAllPreservesOrder(t *testing.T) {
	provider := &fakeProvider{
		lookup: func(ctx context.Context, query string) (*RawMatch, error) {
			// uneven latency so completion order differs from input order
			time.Sleep(time.Duration(len(query)%5) * 5 * time.Millisecond)
			return &RawMatch{
				Name:   query,
				Rating: 4.0,
			}, nil
		},
	}

	listings := make([]RawListing, 12)
	for i := range listings {
		listings[i] = RawListing{
			Name:  fmt.Sprintf("Chateau Numero %d", i),
			Price: 10,
		}
	}

	enricher := New(provider, Options{BatchDelay: time.Millisecond})
	out := enricher.EnrichAll(context.Background(), listings)

	require.Len(t, out, len(listings))
	for i, enriched := range out {
		require.Equal(t, listings[i].Name, enriched.Name)
		require.NotNil(t, enriched.Rating)
	}
	require.LessOrEqual(t, provider.maxInFlight, int32(5))
	require.Len(t, provider.queries, len(listings))
}

func TestEnrichAllProviderFailures(t *testing.T) {
	provider := &fakeProvider{
		lookup: func(ctx context.Context, query string) (*RawMatch, error) {
			return nil, errors.New("upstream said no")
		},
	}

	listings := []RawListing{
		{Name: "Chateau Margaux", Price: 120},
		{Name: "Petit Chablis", Price: 11.5},
	}

	enricher := New(provider, Options{BatchDelay: time.Millisecond})
	out := enricher.EnrichAll(context.Background(), listings)

	require.Len(t, out, 2)
	for i, enriched := range out {
		require.Equal(t, listings[i].Name, enriched.Name)
		require.Nil(t, enriched.Rating)
		require.Equal(t, VintageUnknown, enriched.VintageMatch)
		require.Zero(t, enriched.Ratio)
	}
}

func TestEnrichAllProviderTimeouts(t *testing.T) {
	provider := &fakeProvider{
		lookup: func(ctx context.Context, query string) (*RawMatch, error) {
			// hangs until the per-lookup deadline expires
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	listings := make([]RawListing, 7)
	for i := range listings {
		listings[i] = RawListing{
			Name:  fmt.Sprintf("Chateau Numero %d", i),
			Price: 10,
		}
	}

	enricher := New(provider, Options{
		BatchDelay:    time.Millisecond,
		LookupTimeout: 20 * time.Millisecond,
	})
	out := enricher.EnrichAll(context.Background(), listings)

	require.Len(t, out, len(listings))
	for i, enriched := range out {
		require.Equal(t, listings[i].Name, enriched.Name)
		require.Nil(t, enriched.Rating)
		require.Equal(t, VintageUnknown, enriched.VintageMatch)
	}
}

func TestEnrichAllCancelledContext(t *testing.T) {
	provider := &fakeProvider{
		lookup: func(ctx context.Context, query string) (*RawMatch, error) {
			return &RawMatch{Rating: 4.0}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listings := []RawListing{
		{Name: "Chateau Margaux", Price: 120},
		{Name: "Petit Chablis", Price: 11.5},
	}

	enricher := New(provider, Options{})
	out := enricher.EnrichAll(ctx, listings)

	require.Len(t, out, 2)
	for _, enriched := range out {
		require.Nil(t, enriched.Rating)
	}
}

func TestDecideVintageAgreement(t *testing.T) {
	cases := []struct {
		name     string
		declared *int
		matched  int
		expected VintageAgreement
	}{
		{"both sides agree", intPtr(2020), 2020, VintageAgreed},
		{"sides disagree", intPtr(2020), 2019, VintageDisagreed},
		{"no declared vintage", nil, 2020, VintageUnknown},
		{"no matched vintage", intPtr(2020), 0, VintageUnknown},
		{"neither side", nil, 0, VintageUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			listing := RawListing{
				Name:            "Some Wine",
				Price:           10,
				DeclaredVintage: c.declared,
			}
			out := decide(listing, "some wine", &RawMatch{
				Rating: 4.0,
				Year:   c.matched,
			})
			require.Equal(t, c.expected, out.VintageMatch)
		})
	}
}

func TestDecideConfidence(t *testing.T) {
	listing := RawListing{Name: "Gerard Bertrand Heresie", Price: 9.9}
	out := decide(listing, "Gerard Bertrand Heresie", &RawMatch{
		Name:   "Gérard Bertrand Hérésie Corbières",
		Rating: 4.1,
	})
	require.Greater(t, out.Confidence, 0.8)
	require.LessOrEqual(t, out.Confidence, 1.0)

	// identical names normalize to the same string
	out = decide(listing, "Gerard Bertrand Heresie", &RawMatch{
		Name:   "gerard bertrand heresie",
		Rating: 4.1,
	})
	require.Equal(t, 1.0, out.Confidence)
}

func TestRatio(t *testing.T) {
	cases := []struct {
		rating   float64
		price    float64
		expected float64
	}{
		{4.2, 8.5, 4.941},
		{4.0, 10, 4},
		{3.5, 7, 5},
		{4.0, 0, 0},
		{0, 10, 0},
		{4.0, -1, 0},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, Ratio(c.rating, c.price),
			"Ratio(%v, %v)", c.rating, c.price)
	}
}

func TestNewRawListing(t *testing.T) {
	listing := NewRawListing("Chateau Test, 2021 - Medoc AOP - Rouge - 75 cl", 14.9, "/fp/1", "3760000000000")
	expected := RawListing{
		Name:            "Chateau Test, 2021 - Medoc AOP - Rouge - 75 cl",
		Price:           14.9,
		Url:             "/fp/1",
		EAN:             "3760000000000",
		DeclaredVintage: intPtr(2021),
	}
	if diff := cmp.Diff(expected, listing); diff != "" {
		t.Fatal(diff)
	}

	listing = NewRawListing("Chateau Sans Annee", 8, "", "")
	require.Nil(t, listing.DeclaredVintage)
}

func TestEnrichedListingJSON(t *testing.T) {
	out := decide(
		RawListing{Name: "Some Wine 2020", Price: 10, DeclaredVintage: intPtr(2020)},
		"some wine",
		&RawMatch{Name: "Some Wine", Year: 2020, Rating: 4.2, ReviewCount: 310},
	)
	require.Equal(t, floatPtr(4.2), out.Rating)
	require.Equal(t, 4.2, out.Ratio)
	require.Equal(t, VintageAgreed, out.VintageMatch)

	serialized, err := json.Marshal(out)
	require.NoError(t, err)
	require.Contains(t, string(serialized), `"vintage_match":true`)

	var roundtrip EnrichedListing
	require.NoError(t, json.Unmarshal(serialized, &roundtrip))
	require.Equal(t, VintageAgreed, roundtrip.VintageMatch)

	out.VintageMatch = VintageUnknown
	serialized, err = json.Marshal(out)
	require.NoError(t, err)
	require.Contains(t, string(serialized), `"vintage_match":null`)
}

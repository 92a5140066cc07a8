package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cavescout/lib/testutil"
	"cavescout/services/cellar"
	"cavescout/services/cellar/db"
	"cavescout/services/enrich"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	listings []enrich.RawListing
	err      error
}

func (s fakeSource) Listings(ctx context.Context, wineType string) ([]enrich.RawListing, error) {
	return s.listings, s.err
}

type fakeProvider struct{}

func (fakeProvider) Lookup(ctx context.Context, query string) (*enrich.RawMatch, error) {
	return &enrich.RawMatch{Name: query, Rating: 4.0, ReviewCount: 10}, nil
}

func setupServer(t *testing.T, source cellar.ListingSource) *httptest.Server {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "cellar/server",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	enricher := enrich.New(fakeProvider{}, enrich.Options{
		BatchDelay: time.Millisecond,
	})
	service := cellar.NewService(source, enricher, result.DB, cellar.ServiceOptions{})

	mux := http.NewServeMux()
	Init(mux, service)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestWinesEmptyBeforeRefresh(t *testing.T) {
	server := setupServer(t, fakeSource{})

	res, err := http.Get(server.URL + "/api/wines?type=vins-rouges")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Wines []json.RawMessage `json:"wines"`
		Stats cellar.Stats      `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.NotNil(t, body.Wines)
	require.Empty(t, body.Wines)
	require.Zero(t, body.Stats.Count)
}

func TestRefreshThenWines(t *testing.T) {
	server := setupServer(t, fakeSource{listings: []enrich.RawListing{
		{Name: "Chateau Un", Price: 10},
		{Name: "Chateau Deux", Price: 20},
	}})

	res, err := http.Post(server.URL+"/api/refresh?type=vins-blancs", "", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var refresh struct {
		WineType string `json:"wine_type"`
		Count    int    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&refresh))
	require.Equal(t, "vins-blancs", refresh.WineType)
	require.Equal(t, 2, refresh.Count)

	res, err = http.Get(server.URL + "/api/wines?type=vins-blancs&price_max=15")
	require.NoError(t, err)
	defer res.Body.Close()

	var body struct {
		Wines []enrich.EnrichedListing `json:"wines"`
		Stats cellar.Stats             `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Wines, 1)
	require.Equal(t, "Chateau Un", body.Wines[0].Name)
	require.Equal(t, 1, body.Stats.Count)
}

func TestRefreshSourceDownDegrades(t *testing.T) {
	server := setupServer(t, fakeSource{err: errors.New("catalog unreachable")})

	res, err := http.Post(server.URL+"/api/refresh", "", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var refresh struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&refresh))
	require.Zero(t, refresh.Count)
}

func TestBadParams(t *testing.T) {
	server := setupServer(t, fakeSource{})

	res, err := http.Get(server.URL + "/api/wines?type=vins-imaginaires")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Get(server.URL + "/api/wines?sort=alphabetical")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Get(server.URL + "/api/wines?price_max=cheap")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestExportCSV(t *testing.T) {
	server := setupServer(t, fakeSource{listings: []enrich.RawListing{
		{Name: "Chateau Un", Price: 10},
	}})

	res, err := http.Post(server.URL+"/api/refresh?type=vins-roses", "", nil)
	require.NoError(t, err)
	res.Body.Close()

	res, err = http.Get(server.URL + "/api/export.csv?type=vins-roses")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Header.Get("content-type"), "text/csv")

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "name;price;"))
	require.True(t, strings.HasPrefix(lines[1], "Chateau Un;10;"))
}

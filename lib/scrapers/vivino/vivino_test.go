package vivino

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/explore/explore", r.URL.Path)
		require.Equal(t, "Gérard Bertrand Heresie", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"explore_vintage": {
				"matches": [
					{
						"vintage": {
							"id": 171255887,
							"seo_name": "gerard-bertrand-heresie-corbieres-2022",
							"name": "Gérard Bertrand Heresie Corbières 2022",
							"year": 2022,
							"statistics": {
								"ratings_average": 4.18,
								"ratings_count": 1234
							}
						}
					},
					{
						"vintage": {
							"name": "some other wine",
							"statistics": {"ratings_average": 3.1, "ratings_count": 2}
						}
					}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	match, err := client.Search(context.Background(), "Gérard Bertrand Heresie")
	require.NoError(t, err)
	require.NotNil(t, match)
	require.Equal(t, "Gérard Bertrand Heresie Corbières 2022", match.Name)
	require.Equal(t, 2022, match.Year)
	require.Equal(t, 4.18, match.Rating)
	require.Equal(t, 1234, match.ReviewCount)
	require.Contains(t, match.Url, "gerard-bertrand-heresie-corbieres-2022")
}

func TestSearchNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"explore_vintage": {"matches": []}}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	match, err := client.Search(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.Nil(t, match)
}

func TestSearchUnratedFirstHit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"explore_vintage": {
				"matches": [
					{"vintage": {"name": "unrated wine", "statistics": {"ratings_average": 0, "ratings_count": 0}}}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	match, err := client.Search(context.Background(), "unrated")
	require.NoError(t, err)
	require.Nil(t, match)
}

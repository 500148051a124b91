package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New("test-key", server.URL, "en-US", WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func writeResults(w http.ResponseWriter, results []apiResult) {
	_ = json.NewEncoder(w).Encode(searchResponse{Results: results})
}

func TestSearchMovieNormalizesAndClamps(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Error("api key missing")
		}
		if r.URL.Query().Get("query") != "The Matrix" {
			t.Errorf("query = %q", r.URL.Query().Get("query"))
		}
		var results []apiResult
		for i := 0; i < 12; i++ {
			results = append(results, apiResult{
				ID:          int64(i + 1),
				Title:       fmt.Sprintf("The Matrix %d", i),
				ReleaseDate: "1999-03-31",
				PosterPath:  "/poster.jpg",
				Popularity:  float64(100 - i),
			})
		}
		writeResults(w, results)
	}))

	candidates, err := client.SearchMovie(context.Background(), "The Matrix", 1999)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(candidates) != maxEndpointResults {
		t.Fatalf("candidates = %d, want %d", len(candidates), maxEndpointResults)
	}
	first := candidates[0]
	if first.Year == nil || *first.Year != 1999 {
		t.Fatalf("year = %v", first.Year)
	}
	if first.MediaType != MediaTypeMovie {
		t.Fatalf("media type = %q", first.MediaType)
	}
	if first.PosterURL() != posterBaseURL+"/poster.jpg" {
		t.Fatalf("poster url = %q", first.PosterURL())
	}
}

func TestSearchTreatsNon200AsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	candidates, err := client.SearchTV(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("non-200 should not error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %d", len(candidates))
	}
}

func TestSearchMultiMergesByPopularity(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/movie":
			writeResults(w, []apiResult{
				{ID: 1, Title: "Movie Hit", ReleaseDate: "2001-01-01", Popularity: 50},
			})
		case "/search/tv":
			writeResults(w, []apiResult{
				{ID: 2, Name: "Show Hit", FirstAirDate: "2005-01-01", Popularity: 80},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	candidates, err := client.SearchMulti(context.Background(), "hit", 0)
	if err != nil {
		t.Fatalf("multi search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d", len(candidates))
	}
	if candidates[0].Title != "Show Hit" || candidates[0].MediaType != MediaTypeTV {
		t.Fatalf("popularity ordering broken: %+v", candidates[0])
	}
	if candidates[1].Title != "Movie Hit" {
		t.Fatalf("second candidate: %+v", candidates[1])
	}
}

func TestTVDetails(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(apiResult{ID: 42, Name: "The Show", FirstAirDate: "1989-12-17"})
	}))

	candidate, err := client.TVDetails(context.Background(), 42)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if candidate == nil || candidate.Title != "The Show" {
		t.Fatalf("candidate = %+v", candidate)
	}
	if candidate.Year == nil || *candidate.Year != 1989 {
		t.Fatalf("year = %v", candidate.Year)
	}
}

// Package tmdb provides the TMDB search client and the progressive match
// algorithm the ingestion pipeline uses to identify parsed files.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// MediaType selects which search endpoint a lookup targets.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Result caps: 10 per endpoint, 15 merged.
const (
	maxEndpointResults = 10
	maxMergedResults   = 15
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// Candidate is one normalized search hit.
type Candidate struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Year       *int      `json:"year,omitempty"`
	PosterPath string    `json:"poster_path,omitempty"`
	Popularity float64   `json:"popularity"`
	MediaType  MediaType `json:"media_type"`
}

// PosterURL returns the full image URL for the candidate's poster, or empty
// when it has none.
func (c Candidate) PosterURL() string {
	if c.PosterPath == "" {
		return ""
	}
	return posterBaseURL + c.PosterPath
}

type apiResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	Popularity   float64 `json:"popularity"`
}

type searchResponse struct {
	Results []apiResult `json:"results"`
}

// Client provides rate-aware access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter overrides the default request rate limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(250*time.Millisecond), 4),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovie queries the movie endpoint. A non-200 response yields an empty
// candidate list, not an error.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var payload searchResponse
	ok, err := c.get(ctx, "/search/movie", params, &payload)
	if err != nil || !ok {
		return nil, err
	}
	return clampCandidates(normalize(payload.Results, MediaTypeMovie), maxEndpointResults), nil
}

// SearchTV queries the TV endpoint. A non-200 response yields an empty
// candidate list, not an error.
func (c *Client) SearchTV(ctx context.Context, query string, year int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}
	var payload searchResponse
	ok, err := c.get(ctx, "/search/tv", params, &payload)
	if err != nil || !ok {
		return nil, err
	}
	return clampCandidates(normalize(payload.Results, MediaTypeTV), maxEndpointResults), nil
}

// SearchMulti queries the movie and TV endpoints in parallel and merges the
// results ordered by popularity.
func (c *Client) SearchMulti(ctx context.Context, query string, year int) ([]Candidate, error) {
	var movies, shows []Candidate
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		movies, err = c.SearchMovie(groupCtx, query, year)
		return err
	})
	group.Go(func() error {
		var err error
		shows, err = c.SearchTV(groupCtx, query, year)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := append(append([]Candidate{}, movies...), shows...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Popularity > merged[j].Popularity
	})
	return clampCandidates(merged, maxMergedResults), nil
}

// MovieDetails fetches one movie by id, returning nil when TMDB does not
// know it.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*Candidate, error) {
	if id <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload apiResult
	ok, err := c.get(ctx, fmt.Sprintf("/movie/%d", id), url.Values{}, &payload)
	if err != nil || !ok {
		return nil, err
	}
	candidate := toCandidate(payload, MediaTypeMovie)
	return &candidate, nil
}

// TVDetails fetches one TV show by id, returning nil when TMDB does not
// know it.
func (c *Client) TVDetails(ctx context.Context, id int64) (*Candidate, error) {
	if id <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload apiResult
	ok, err := c.get(ctx, fmt.Sprintf("/tv/%d", id), url.Values{}, &payload)
	if err != nil || !ok {
		return nil, err
	}
	candidate := toCandidate(payload, MediaTypeTV)
	return &candidate, nil
}

// get performs one rate-limited request. ok is false when the catalog
// answered with a non-200 status; only transport failures return an error.
func (c *Client) get(ctx context.Context, path string, params url.Values, payload any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return false, fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return false, fmt.Errorf("decode tmdb response: %w", err)
	}
	return true, nil
}

func normalize(results []apiResult, mediaType MediaType) []Candidate {
	candidates := make([]Candidate, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, toCandidate(result, mediaType))
	}
	return candidates
}

func toCandidate(result apiResult, mediaType MediaType) Candidate {
	candidate := Candidate{
		ID:         result.ID,
		Title:      result.Title,
		PosterPath: result.PosterPath,
		Popularity: result.Popularity,
		MediaType:  mediaType,
	}
	date := result.ReleaseDate
	if mediaType == MediaTypeTV {
		candidate.Title = result.Name
		date = result.FirstAirDate
	}
	if candidate.Title == "" {
		candidate.Title = result.Title
		if candidate.Title == "" {
			candidate.Title = result.Name
		}
	}
	if len(date) >= 4 {
		if year, err := strconv.Atoi(date[:4]); err == nil {
			candidate.Year = &year
		}
	}
	return candidate
}

func clampCandidates(candidates []Candidate, limit int) []Candidate {
	if len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}

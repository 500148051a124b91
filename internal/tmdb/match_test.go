package tmdb

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeSearcher struct {
	movieResults map[string][]Candidate
	tvResults    map[string][]Candidate
	err          error
	calls        []string
}

func key(query string, year int) string {
	return fmt.Sprintf("%s|%d", query, year)
}

func (f *fakeSearcher) SearchMovie(_ context.Context, query string, year int) ([]Candidate, error) {
	f.calls = append(f.calls, "movie:"+key(query, year))
	if f.err != nil {
		return nil, f.err
	}
	return f.movieResults[key(query, year)], nil
}

func (f *fakeSearcher) SearchTV(_ context.Context, query string, year int) ([]Candidate, error) {
	f.calls = append(f.calls, "tv:"+key(query, year))
	if f.err != nil {
		return nil, f.err
	}
	return f.tvResults[key(query, year)], nil
}

func (f *fakeSearcher) SearchMulti(ctx context.Context, query string, year int) ([]Candidate, error) {
	movies, err := f.SearchMovie(ctx, query, year)
	if err != nil {
		return nil, err
	}
	shows, err := f.SearchTV(ctx, query, year)
	if err != nil {
		return nil, err
	}
	return append(movies, shows...), nil
}

func yearPtr(v int) *int { return &v }

func TestMatchPrefersExactYear(t *testing.T) {
	searcher := &fakeSearcher{movieResults: map[string][]Candidate{
		key("Dune", 1984): {
			{ID: 1, Title: "Dune", Year: yearPtr(2021), Popularity: 90},
			{ID: 2, Title: "Dune", Year: yearPtr(1984), Popularity: 40},
		},
	}}
	matcher := NewMatcher(searcher, nil)

	match, err := matcher.Match(context.Background(), Request{Title: "Dune", Year: yearPtr(1984), Type: MediaTypeMovie})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if match == nil || match.ID != 2 {
		t.Fatalf("expected 1984 candidate, got %+v", match)
	}
}

func TestMatchFallsBackToYearlessAttempt(t *testing.T) {
	searcher := &fakeSearcher{tvResults: map[string][]Candidate{
		key("Kaamelott", 0): {
			{ID: 7, Title: "Kaamelott", Year: yearPtr(2005), Popularity: 10},
		},
	}}
	matcher := NewMatcher(searcher, nil)

	match, err := matcher.Match(context.Background(), Request{Title: "Kaamelott", Year: yearPtr(1999), Type: MediaTypeTV})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if match == nil || match.ID != 7 {
		t.Fatalf("expected fallback hit, got %+v", match)
	}
	if len(searcher.calls) != 2 {
		t.Fatalf("calls = %v", searcher.calls)
	}
}

func TestMatchTriesSimplifiedVariant(t *testing.T) {
	searcher := &fakeSearcher{tvResults: map[string][]Candidate{
		key("Akame ga Kill", 0): {
			{ID: 3, Title: "Akame ga Kill!", Year: yearPtr(2014), Popularity: 30},
		},
	}}
	matcher := NewMatcher(searcher, nil)

	match, err := matcher.Match(context.Background(), Request{Title: "Akame ga Kill!", Type: MediaTypeTV})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if match == nil || match.ID != 3 {
		t.Fatalf("expected simplified-variant hit, got %+v", match)
	}
}

func TestMatchReturnsNilWhenEverythingMisses(t *testing.T) {
	matcher := NewMatcher(&fakeSearcher{}, nil)
	match, err := matcher.Match(context.Background(), Request{Title: "Nothing Here", Type: MediaTypeMovie})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if match != nil {
		t.Fatalf("expected no match, got %+v", match)
	}
}

func TestMatchSwallowsTransientFailures(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	matcher := NewMatcher(searcher, nil)
	match, err := matcher.Match(context.Background(), Request{Title: "Offline", Type: MediaTypeMovie})
	if err != nil {
		t.Fatalf("transient failure should not surface: %v", err)
	}
	if match != nil {
		t.Fatalf("expected no match, got %+v", match)
	}
}

func TestSimplifyTitle(t *testing.T) {
	cases := map[string]string{
		"Akame ga Kill!":   "Akame ga Kill",
		"Amélie":           "Amelie",
		"Plain Title":      "Plain Title",
		"What's.Up? (doc)": "What s Up doc",
	}
	for input, want := range cases {
		if got := SimplifyTitle(input); got != want {
			t.Errorf("SimplifyTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

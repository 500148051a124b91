package tmdb

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"linkarr/internal/logging"
)

// Searcher is the catalog surface the matcher needs; *Client satisfies it.
type Searcher interface {
	SearchMovie(ctx context.Context, query string, year int) ([]Candidate, error)
	SearchTV(ctx context.Context, query string, year int) ([]Candidate, error)
	SearchMulti(ctx context.Context, query string, year int) ([]Candidate, error)
}

// Request describes what the pipeline wants matched. An empty Type searches
// both endpoints.
type Request struct {
	Title string
	Year  *int
	Type  MediaType
}

// Matcher runs the progressive match algorithm against a Searcher.
type Matcher struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewMatcher builds a matcher.
func NewMatcher(searcher Searcher, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{searcher: searcher, logger: logger}
}

type attempt struct {
	query string
	year  int
}

// Match runs the attempt ladder and returns the chosen candidate, or nil
// when every attempt came back empty. Transient search failures count as
// empty attempts; they never abort the ladder.
func (m *Matcher) Match(ctx context.Context, req Request) (*Candidate, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, nil
	}

	attempts := buildAttempts(title, req.Year)
	for _, a := range attempts {
		candidates, err := m.search(ctx, a, req.Type)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logger.Debug("search attempt failed",
				logging.String("query", a.query),
				logging.Error(err))
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		return pick(candidates, req.Year), nil
	}
	return nil, nil
}

func (m *Matcher) search(ctx context.Context, a attempt, mediaType MediaType) ([]Candidate, error) {
	switch mediaType {
	case MediaTypeMovie:
		return m.searcher.SearchMovie(ctx, a.query, a.year)
	case MediaTypeTV:
		return m.searcher.SearchTV(ctx, a.query, a.year)
	default:
		return m.searcher.SearchMulti(ctx, a.query, a.year)
	}
}

// buildAttempts orders the queries: exact title with year, exact title
// alone, then a simplified variant for titles that are short or carry
// non-alphanumeric characters.
func buildAttempts(title string, year *int) []attempt {
	var attempts []attempt
	if year != nil {
		attempts = append(attempts, attempt{query: title, year: *year})
	}
	attempts = append(attempts, attempt{query: title})

	if simplified := SimplifyTitle(title); simplified != "" && !strings.EqualFold(simplified, title) {
		attempts = append(attempts, attempt{query: simplified})
	}
	return attempts
}

// pick prefers an exact year match when the caller knows the year, falling
// back to the most popular candidate.
func pick(candidates []Candidate, year *int) *Candidate {
	if year != nil {
		for i := range candidates {
			if candidates[i].Year != nil && *candidates[i].Year == *year {
				return &candidates[i]
			}
		}
	}
	return &candidates[0]
}

var reNonAlnum = regexp.MustCompile(`[^a-zA-Z0-9 ]+`)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SimplifyTitle folds diacritics and strips punctuation so stylized titles
// still find their catalog entry.
func SimplifyTitle(title string) string {
	folded, _, err := transform.String(foldTransformer, title)
	if err != nil {
		folded = title
	}
	folded = reNonAlnum.ReplaceAllString(folded, " ")
	return strings.Join(strings.Fields(folded), " ")
}

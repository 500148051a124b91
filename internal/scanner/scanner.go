// Package scanner drives the ingestion pipeline: it discovers video files
// under the configured sources, diffs them against the record store, and
// pushes pending records through parse, match, and link with a bounded
// worker pool.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"linkarr/internal/events"
	"linkarr/internal/linker"
	"linkarr/internal/logging"
	"linkarr/internal/records"
	"linkarr/internal/settings"
	"linkarr/internal/tmdb"
)

const (
	chunkSize     = 100
	maxWorkers    = 15
	progressEvery = 50
)

// ErrScanInProgress rejects a scan request while another scan runs.
var ErrScanInProgress = errors.New("scan already in progress")

// CatalogMatcher is the match surface the scanner depends on;
// *tmdb.Matcher satisfies it.
type CatalogMatcher interface {
	Match(ctx context.Context, req tmdb.Request) (*tmdb.Candidate, error)
}

// ArrGate verifies the configured arr services before a scan when the
// operator requires them.
type ArrGate func(ctx context.Context, doc settings.Settings) error

// Scanner orchestrates scans over the configured sources.
type Scanner struct {
	store    *records.Store
	settings *settings.Store
	matcher  CatalogMatcher
	linker   *linker.Linker
	bus      events.Publisher
	logger   *slog.Logger
	arrGate  ArrGate

	running atomic.Bool
}

// New builds a Scanner. A nil bus gets a no-op publisher and a nil arrGate
// gets the default implementation backed by internal/arr.
func New(store *records.Store, settingsStore *settings.Store, matcher CatalogMatcher, lnk *linker.Linker, bus events.Publisher, logger *slog.Logger, arrGate ArrGate) *Scanner {
	if bus == nil {
		bus = events.NopPublisher{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if arrGate == nil {
		arrGate = defaultArrGate
	}
	return &Scanner{
		store:    store,
		settings: settingsStore,
		matcher:  matcher,
		linker:   lnk,
		bus:      bus,
		logger:   logger,
		arrGate:  arrGate,
	}
}

// Running reports whether a scan is currently in flight.
func (s *Scanner) Running() bool {
	return s.running.Load()
}

// Stats returns the current record population summary.
func (s *Scanner) Stats(ctx context.Context) (*records.Stats, error) {
	return s.store.Stats(ctx)
}

// Summary is the outcome of one scan.
type Summary struct {
	Scanned   int `json:"scanned"`
	New       int `json:"new"`
	Processed int `json:"processed"`
	Linked    int `json:"linked"`
	Failed    int `json:"failed"`
	Manual    int `json:"manual"`
	Deleted   int `json:"deleted"`
}

// counters is the shared scan tally; one lock protects every field. handled
// tracks every file the workers touched for progress reporting, while the
// Summary fields only count files actually pushed through the pipeline.
type counters struct {
	mu      sync.Mutex
	handled int
	Summary
}

func (c *counters) add(o outcome) (handled int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handled++
	if o.skipped {
		return c.handled
	}
	c.Processed++
	if o.isNew {
		c.New++
	}
	switch o.status {
	case records.StatusLinked:
		c.Linked++
	case records.StatusFailed:
		c.Failed++
	case records.StatusManual:
		c.Manual++
	}
	return c.handled
}

func (c *counters) snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Summary
}

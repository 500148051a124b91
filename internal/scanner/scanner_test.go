package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"linkarr/internal/events"
	"linkarr/internal/linker"
	"linkarr/internal/records"
	"linkarr/internal/settings"
	"linkarr/internal/testsupport"
	"linkarr/internal/tmdb"
)

type fakeMatcher struct {
	mu      sync.Mutex
	match   func(req tmdb.Request) *tmdb.Candidate
	started chan struct{}
	release chan struct{}
}

func (f *fakeMatcher) Match(ctx context.Context, req tmdb.Request) (*tmdb.Candidate, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.match == nil {
		return nil, nil
	}
	return f.match(req), nil
}

type env struct {
	scanner  *Scanner
	store    *records.Store
	settings *settings.Store
	source   string
	movies   string
	tv       string
}

func newEnv(t *testing.T, matcher CatalogMatcher, bus events.Publisher) *env {
	t.Helper()
	base := t.TempDir()
	source := filepath.Join(base, "downloads")
	movies := filepath.Join(base, "movies")
	tv := filepath.Join(base, "tv")
	for _, dir := range []string{source, movies, tv} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	settingsStore := testsupport.NewSettingsStore(t, settings.Patch{
		SourcePath:     testsupport.StringPtr(source),
		MoviesPath:     testsupport.StringPtr(movies),
		TVPath:         testsupport.StringPtr(tv),
		MinVideoSizeMB: testsupport.IntPtr(0),
	})
	store := testsupport.MustOpenStore(t)

	return &env{
		scanner:  New(store, settingsStore, matcher, linker.New(nil), bus, nil, nil),
		store:    store,
		settings: settingsStore,
		source:   source,
		movies:   movies,
		tv:       tv,
	}
}

func writeVideo(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("video payload"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanLinksMovieEndToEnd(t *testing.T) {
	matcher := &fakeMatcher{match: func(req tmdb.Request) *tmdb.Candidate {
		if req.Title != "The Matrix" {
			t.Errorf("match query = %q", req.Title)
		}
		year := 1999
		return &tmdb.Candidate{ID: 603, Title: "The Matrix", Year: &year, MediaType: tmdb.MediaTypeMovie, PosterPath: "/p.jpg"}
	}}
	e := newEnv(t, matcher, nil)
	writeVideo(t, filepath.Join(e.source, "The.Matrix.1999.1080p.BluRay.mkv"))

	summary, err := e.scanner.Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Scanned != 1 || summary.New != 1 || summary.Linked != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	destination := filepath.Join(e.movies, "The Matrix (1999)", "The Matrix (1999).mkv")
	if _, err := os.Stat(destination); err != nil {
		t.Fatalf("destination missing: %v", err)
	}

	record, err := e.store.FindBySourcePath(context.Background(), filepath.Join(e.source, "The.Matrix.1999.1080p.BluRay.mkv"))
	if err != nil {
		t.Fatalf("find record: %v", err)
	}
	if record.Status != records.StatusLinked {
		t.Fatalf("status = %q (%s)", record.Status, record.ErrorMessage)
	}
	if record.CatalogID == nil || *record.CatalogID != 603 {
		t.Fatalf("catalog id = %v", record.CatalogID)
	}
	if record.DestinationPath != destination {
		t.Fatalf("destination = %q", record.DestinationPath)
	}
}

func TestScanLinksEpisodeFromSeparateTVRoot(t *testing.T) {
	matcher := &fakeMatcher{match: func(req tmdb.Request) *tmdb.Candidate {
		year := 1989
		return &tmdb.Candidate{ID: 456, Title: "The Simpsons", Year: &year, MediaType: tmdb.MediaTypeTV}
	}}
	e := newEnv(t, matcher, nil)

	tvSource := filepath.Join(filepath.Dir(e.source), "tv-downloads")
	writeVideo(t, filepath.Join(tvSource, "Les.Simpson.S17", "Les.Simpson.S17E04.mkv"))
	if _, err := e.settings.Update(settings.Patch{
		SourceMode:   testsupport.StringPtr(settings.SourceModeSeparate),
		SourceTVPath: testsupport.StringPtr(tvSource),
	}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	summary, err := e.scanner.Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Linked != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	destination := filepath.Join(e.tv, "The Simpsons (1989)", "Season 17", "The Simpsons - S17E04.mkv")
	if _, err := os.Stat(destination); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestScanNoMatchGoesManualWithHoldingLink(t *testing.T) {
	e := newEnv(t, &fakeMatcher{}, nil)
	writeVideo(t, filepath.Join(e.source, "Totally.Unknown.Film.2020.mkv"))

	summary, err := e.scanner.Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Manual != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	record, err := e.store.FindBySourcePath(context.Background(), filepath.Join(e.source, "Totally.Unknown.Film.2020.mkv"))
	if err != nil {
		t.Fatalf("find record: %v", err)
	}
	if record.Status != records.StatusManual {
		t.Fatalf("status = %q", record.Status)
	}
	if !strings.Contains(record.ErrorMessage, "no catalog match") {
		t.Fatalf("error message = %q", record.ErrorMessage)
	}
	holding := filepath.Join(e.movies, linker.ManualFolder, "movie", "Totally.Unknown.Film.2020.mkv")
	if record.DestinationPath != holding {
		t.Fatalf("holding destination = %q", record.DestinationPath)
	}
	if _, err := os.Stat(holding); err != nil {
		t.Fatalf("holding link missing: %v", err)
	}
}

func TestScanSkipsFilteredFiles(t *testing.T) {
	e := newEnv(t, &fakeMatcher{}, nil)
	if _, err := e.settings.Update(settings.Patch{MinVideoSizeMB: testsupport.IntPtr(1)}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	writeVideo(t, filepath.Join(e.source, ".hidden", "Show.S01E01.mkv"))
	writeVideo(t, filepath.Join(e.source, ".Show.S01E02.mkv"))
	writeVideo(t, filepath.Join(e.source, "notes.txt"))
	writeVideo(t, filepath.Join(e.source, "tiny.mkv"))
	writeVideo(t, filepath.Join(e.source, "OP1.mkv"))

	summary, err := e.scanner.Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Scanned != 0 {
		t.Fatalf("scanned = %d, want 0", summary.Scanned)
	}
}

func TestScanSweepsOrphans(t *testing.T) {
	e := newEnv(t, &fakeMatcher{}, nil)

	destination := filepath.Join(e.movies, "Gone (2001)", "Gone (2001).mkv")
	writeVideo(t, destination)
	record, err := e.store.Insert(context.Background(), &records.Record{
		SourcePath:     filepath.Join(e.source, "gone.mkv"),
		SourceFilename: "gone.mkv",
		Kind:           records.KindMovie,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	record.Status = records.StatusLinked
	record.DestinationPath = destination
	if err := e.store.Update(context.Background(), record); err != nil {
		t.Fatalf("update: %v", err)
	}

	summary, err := e.scanner.Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Deleted != 1 {
		t.Fatalf("deleted = %d", summary.Deleted)
	}
	if _, err := os.Stat(destination); !os.IsNotExist(err) {
		t.Fatal("orphan destination still present")
	}
	if _, err := os.Stat(filepath.Join(e.movies, "Gone (2001)")); !os.IsNotExist(err) {
		t.Fatal("orphan directory not pruned")
	}
	remaining, err := e.store.Get(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if remaining != nil {
		t.Fatal("orphan record still present")
	}
}

func TestScanRejectsConcurrentScan(t *testing.T) {
	matcher := &fakeMatcher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	e := newEnv(t, matcher, nil)
	writeVideo(t, filepath.Join(e.source, "Slow.Movie.2020.mkv"))

	errs := make(chan error, 1)
	go func() {
		_, err := e.scanner.Scan(context.Background(), Options{})
		errs <- err
	}()

	select {
	case <-matcher.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first scan never reached the matcher")
	}

	if _, err := e.scanner.Scan(context.Background(), Options{}); err != ErrScanInProgress {
		t.Fatalf("second scan error = %v", err)
	}

	close(matcher.release)
	if err := <-errs; err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if e.scanner.Running() {
		t.Fatal("scanner still reports running")
	}
}

func TestScanEmitsLifecycleEvents(t *testing.T) {
	bus := events.NewBus(nil)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	matcher := &fakeMatcher{match: func(req tmdb.Request) *tmdb.Candidate {
		year := 1999
		return &tmdb.Candidate{ID: 1, Title: req.Title, Year: &year, MediaType: tmdb.MediaTypeMovie}
	}}
	e := newEnv(t, matcher, bus)
	writeVideo(t, filepath.Join(e.source, "Film.1999.mkv"))

	if _, err := e.scanner.Scan(context.Background(), Options{}); err != nil {
		t.Fatalf("scan: %v", err)
	}

	seen := map[events.Kind]bool{}
	deadline := time.After(2 * time.Second)
	for !seen[events.KindScanCompleted] {
		select {
		case event := <-sub:
			seen[event.Kind] = true
		case <-deadline:
			t.Fatalf("missing scan_completed, saw %v", seen)
		}
	}
	for _, kind := range []events.Kind{events.KindScanStarted, events.KindFileAdded, events.KindFileUpdated, events.KindStatsUpdated} {
		if !seen[kind] {
			t.Errorf("missing event %q", kind)
		}
	}
}

func TestProcessRecordRerunsPipeline(t *testing.T) {
	matcher := &fakeMatcher{}
	e := newEnv(t, matcher, nil)
	source := filepath.Join(e.source, "Late.Bloomer.2018.mkv")
	writeVideo(t, source)

	if _, err := e.scanner.Scan(context.Background(), Options{}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	record, err := e.store.FindBySourcePath(context.Background(), source)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if record.Status != records.StatusManual {
		t.Fatalf("status after first pass = %q", record.Status)
	}

	matcher.mu.Lock()
	matcher.match = func(req tmdb.Request) *tmdb.Candidate {
		year := 2018
		return &tmdb.Candidate{ID: 9, Title: "Late Bloomer", Year: &year, MediaType: tmdb.MediaTypeMovie}
	}
	matcher.mu.Unlock()

	updated, err := e.scanner.ProcessRecord(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("process record: %v", err)
	}
	if updated.Status != records.StatusLinked {
		t.Fatalf("status = %q (%s)", updated.Status, updated.ErrorMessage)
	}
	if updated.CatalogID == nil || *updated.CatalogID != 9 {
		t.Fatalf("catalog id = %v", updated.CatalogID)
	}
}

func TestProcessRecordRemovesStaleDestination(t *testing.T) {
	matcher := &fakeMatcher{match: func(req tmdb.Request) *tmdb.Candidate {
		year := 1999
		return &tmdb.Candidate{ID: 10, Title: "Old Title", Year: &year, MediaType: tmdb.MediaTypeMovie}
	}}
	e := newEnv(t, matcher, nil)
	source := filepath.Join(e.source, "Some.Film.1999.mkv")
	writeVideo(t, source)

	if _, err := e.scanner.Scan(context.Background(), Options{}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	record, err := e.store.FindBySourcePath(context.Background(), source)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	oldDestination := filepath.Join(e.movies, "Old Title (1999)", "Old Title (1999).mkv")
	if record.DestinationPath != oldDestination {
		t.Fatalf("first destination = %q", record.DestinationPath)
	}

	matcher.mu.Lock()
	matcher.match = func(req tmdb.Request) *tmdb.Candidate {
		year := 1999
		return &tmdb.Candidate{ID: 11, Title: "New Title", Year: &year, MediaType: tmdb.MediaTypeMovie}
	}
	matcher.mu.Unlock()

	updated, err := e.scanner.ProcessRecord(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("process record: %v", err)
	}
	newDestination := filepath.Join(e.movies, "New Title (1999)", "New Title (1999).mkv")
	if updated.DestinationPath != newDestination {
		t.Fatalf("destination = %q (%s)", updated.DestinationPath, updated.ErrorMessage)
	}
	if _, err := os.Stat(newDestination); err != nil {
		t.Fatalf("new destination missing: %v", err)
	}
	if _, err := os.Stat(oldDestination); !os.IsNotExist(err) {
		t.Fatal("stale destination still on disk")
	}
	if _, err := os.Stat(filepath.Join(e.movies, "Old Title (1999)")); !os.IsNotExist(err) {
		t.Fatal("stale directory not pruned")
	}
}

type panickyMatcher struct{}

func (panickyMatcher) Match(context.Context, tmdb.Request) (*tmdb.Candidate, error) {
	panic("catalog lookup blew up")
}

func TestScanPersistsWorkerPanicAsFailure(t *testing.T) {
	e := newEnv(t, panickyMatcher{}, nil)
	source := filepath.Join(e.source, "Volatile.2022.mkv")
	writeVideo(t, source)

	summary, err := e.scanner.Scan(context.Background(), Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	record, err := e.store.FindBySourcePath(context.Background(), source)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if record.Status != records.StatusFailed {
		t.Fatalf("status = %q", record.Status)
	}
	if !strings.Contains(record.ErrorMessage, "panic") {
		t.Fatalf("error message = %q", record.ErrorMessage)
	}
}

func TestScanDirectoryDoesNotInheritSiblingRootKind(t *testing.T) {
	matcher := &fakeMatcher{match: func(req tmdb.Request) *tmdb.Candidate {
		year := 1999
		return &tmdb.Candidate{ID: 12, Title: "Sibling Film", Year: &year, MediaType: tmdb.MediaTypeMovie}
	}}
	e := newEnv(t, matcher, nil)

	base := filepath.Dir(e.source)
	tvSource := filepath.Join(base, "tv-src")
	sibling := filepath.Join(base, "tv-src2")
	writeVideo(t, filepath.Join(sibling, "Sibling.Film.1999.mkv"))
	if _, err := e.settings.Update(settings.Patch{
		SourceMode:   testsupport.StringPtr(settings.SourceModeSeparate),
		SourceTVPath: testsupport.StringPtr(tvSource),
	}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	summary, err := e.scanner.Scan(context.Background(), Options{Directory: sibling})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Linked != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	destination := filepath.Join(e.movies, "Sibling Film (1999)", "Sibling Film (1999).mkv")
	if _, err := os.Stat(destination); err != nil {
		t.Fatalf("movie destination missing: %v", err)
	}
}

func TestRetryFailedOnlyTouchesFailedRecords(t *testing.T) {
	matcher := &fakeMatcher{match: func(req tmdb.Request) *tmdb.Candidate {
		year := 2020
		return &tmdb.Candidate{ID: 5, Title: req.Title, Year: &year, MediaType: tmdb.MediaTypeMovie}
	}}
	e := newEnv(t, matcher, nil)

	source := filepath.Join(e.source, "Recovered.2020.mkv")
	writeVideo(t, source)
	failed, err := e.store.Insert(context.Background(), &records.Record{
		SourcePath:     source,
		SourceFilename: "Recovered.2020.mkv",
		Kind:           records.KindMovie,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	failed.Status = records.StatusFailed
	if err := e.store.Update(context.Background(), failed); err != nil {
		t.Fatalf("update: %v", err)
	}

	linked, err := e.store.Insert(context.Background(), &records.Record{
		SourcePath:     filepath.Join(e.source, "already.mkv"),
		SourceFilename: "already.mkv",
		Kind:           records.KindMovie,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	linked.Status = records.StatusLinked
	if err := e.store.Update(context.Background(), linked); err != nil {
		t.Fatalf("update: %v", err)
	}

	summary, err := e.scanner.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if summary.Scanned != 1 || summary.Linked != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestCleanupIgnoredDeletesMatchingRecords(t *testing.T) {
	e := newEnv(t, &fakeMatcher{}, nil)

	ignored, err := e.store.Insert(context.Background(), &records.Record{
		SourcePath:     filepath.Join(e.source, "Show NCED 3.mkv"),
		SourceFilename: "Show NCED 3.mkv",
		Kind:           records.KindTV,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	kept, err := e.store.Insert(context.Background(), &records.Record{
		SourcePath:     filepath.Join(e.source, "Show.S01E01.mkv"),
		SourceFilename: "Show.S01E01.mkv",
		Kind:           records.KindTV,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	removed, err := e.scanner.CleanupIgnored(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if record, _ := e.store.Get(context.Background(), ignored.ID); record != nil {
		t.Fatal("ignored record still present")
	}
	if record, _ := e.store.Get(context.Background(), kept.ID); record == nil {
		t.Fatal("regular record deleted")
	}
}

func TestScanRequireArrGate(t *testing.T) {
	gateErr := make(chan error, 1)
	gate := func(ctx context.Context, doc settings.Settings) error {
		return <-gateErr
	}

	e := newEnv(t, &fakeMatcher{}, nil)
	e.scanner.arrGate = gate
	if _, err := e.settings.Update(settings.Patch{RequireArr: testsupport.BoolPtr(true)}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	gateErr <- context.DeadlineExceeded
	if _, err := e.scanner.Scan(context.Background(), Options{}); err == nil {
		t.Fatal("expected gate failure to abort the scan")
	}
}

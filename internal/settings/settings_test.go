package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewStoreCreatesDefaultDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := store.Current().SourceMode; got != SourceModeUnified {
		t.Fatalf("default source mode = %q", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("document not persisted: %v", err)
	}
}

func TestNewStoreResetsMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("source_mode = [broken"), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := store.Current().MinVideoSizeMB; got != 50 {
		t.Fatalf("expected defaults after reset, min size = %d", got)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Current().SourceMode; got != SourceModeUnified {
		t.Fatalf("rewritten document not loadable, source mode = %q", got)
	}
}

func TestUpdateMergesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	mode := SourceModeSeparate
	movies := "/library/movies"
	interval := 90
	updated, err := store.Update(Patch{
		SourceMode:       &mode,
		MoviesPath:       &movies,
		AutoScanInterval: &interval,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.SourceMode != SourceModeSeparate || updated.MoviesPath != movies {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.AutoScanUnit != UnitMinutes {
		t.Fatalf("untouched field changed: %q", updated.AutoScanUnit)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Current().AutoScanInterval; got != 90 {
		t.Fatalf("update not persisted, interval = %d", got)
	}
}

func TestDerivedAccessors(t *testing.T) {
	doc := Default()
	doc.MinVideoSizeMB = 3
	if got := doc.MinVideoSize(); got != 3*1048576 {
		t.Fatalf("MinVideoSize = %d", got)
	}

	doc.VideoExtensions = []string{".MKV", "mp4", " ", ".ts"}
	set := doc.ExtensionSet()
	for _, want := range []string{".mkv", ".mp4", ".ts"} {
		if _, ok := set[want]; !ok {
			t.Fatalf("extension %q missing from set %v", want, set)
		}
	}
	if len(set) != 3 {
		t.Fatalf("unexpected set size %d", len(set))
	}

	doc.AutoScanInterval = 45
	doc.AutoScanUnit = UnitSeconds
	if got := doc.IntervalDuration(); got != 45*time.Second {
		t.Fatalf("IntervalDuration = %v", got)
	}
	doc.AutoScanUnit = UnitMinutes
	if got := doc.IntervalDuration(); got != 45*time.Minute {
		t.Fatalf("IntervalDuration = %v", got)
	}
	doc.AutoScanInterval = 0
	if got := doc.IntervalDuration(); got != 0 {
		t.Fatalf("zero interval should yield 0, got %v", got)
	}
}

func TestPatchAffectsAutoScan(t *testing.T) {
	enabled := true
	if !(Patch{AutoScanEnabled: &enabled}).AffectsAutoScan() {
		t.Fatal("enabled change should affect auto-scan")
	}
	lang := "fr-FR"
	if (Patch{TMDBLanguage: &lang}).AffectsAutoScan() {
		t.Fatal("language change should not affect auto-scan")
	}
}

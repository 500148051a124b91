// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"linkarr/internal/records"
	"linkarr/internal/settings"
)

// MustOpenStore opens a record store backed by a temporary database.
func MustOpenStore(t *testing.T) *records.Store {
	t.Helper()
	store, err := records.Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open record store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewSettingsStore builds a settings store in a temporary directory and
// applies the patch on top of the defaults.
func NewSettingsStore(t *testing.T, patch settings.Patch) *settings.Store {
	t.Helper()
	store, err := settings.NewStore(filepath.Join(t.TempDir(), "settings.toml"), nil)
	if err != nil {
		t.Fatalf("open settings store: %v", err)
	}
	if _, err := store.Update(patch); err != nil {
		t.Fatalf("apply settings patch: %v", err)
	}
	return store
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }

package services

import (
	"errors"
	"strings"
	"testing"

	"linkarr/internal/records"
)

func TestWrapCarriesMarkerAndDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrTransient, "scanner", "match", "The Matrix", cause)

	if !errors.Is(err, ErrTransient) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	for _, want := range []string{"scanner", "match", "The Matrix", "connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("message %q missing %q", err.Error(), want)
		}
	}
}

func TestWrapDefaultsNilMarkerToTransient(t *testing.T) {
	err := Wrap(nil, "scanner", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestFailureStatus(t *testing.T) {
	cases := []struct {
		err  error
		want records.Status
	}{
		{Wrap(ErrNoMatch, "scanner", "match", "", nil), records.StatusManual},
		{Wrap(ErrValidation, "scanner", "link", "", nil), records.StatusManual},
		{Wrap(ErrTransient, "scanner", "match", "", nil), records.StatusFailed},
		{Wrap(ErrFilesystem, "scanner", "link", "", nil), records.StatusFailed},
		{Wrap(ErrConfiguration, "scanner", "link", "", nil), records.StatusFailed},
		{errors.New("untagged"), records.StatusFailed},
	}
	for _, tc := range cases {
		if got := FailureStatus(tc.err); got != tc.want {
			t.Fatalf("FailureStatus(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

// Package services defines the error taxonomy shared by the ingestion
// pipeline. Workers classify failures with sentinel markers so the scanner
// can decide which record status to persist.
package services

import (
	"errors"
	"fmt"
	"strings"

	"linkarr/internal/records"
)

var (
	// ErrTransient marks network failures and non-200 remote responses.
	// Records stay eligible for a later reprocess.
	ErrTransient = errors.New("transient failure")
	// ErrNoMatch marks a lookup that completed but produced no candidate.
	ErrNoMatch = errors.New("no catalog match")
	// ErrValidation marks records missing fields required for linking.
	ErrValidation = errors.New("validation error")
	// ErrFilesystem marks link and unlink failures other than EXDEV.
	ErrFilesystem = errors.New("filesystem error")
	// ErrConfiguration marks unusable configuration values.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a worker error to the record status the scanner should
// persist after processing fails.
func FailureStatus(err error) records.Status {
	switch {
	case errors.Is(err, ErrNoMatch), errors.Is(err, ErrValidation):
		return records.StatusManual
	default:
		return records.StatusFailed
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

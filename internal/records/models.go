// Package records persists media-file records backed by SQLite. One record
// exists per distinct source path; the pipeline advances its status as the
// file moves through parse, match, and link.
package records

import "time"

// Status describes where a record sits in its lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusMatched Status = "matched"
	StatusLinked  Status = "linked"
	StatusFailed  Status = "failed"
	StatusManual  Status = "manual"
	StatusIgnored Status = "ignored"
)

// MediaKind classifies a record as movie, tv, or unknown.
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindTV      MediaKind = "tv"
	KindUnknown MediaKind = "unknown"
)

// Record is one media file tracked by the store.
type Record struct {
	ID             int64  `json:"id"`
	SourcePath     string `json:"source_path"`
	SourceFilename string `json:"source_filename"`
	FileSize       int64  `json:"file_size"`

	ParsedTitle   string    `json:"parsed_title,omitempty"`
	ParsedYear    *int      `json:"parsed_year,omitempty"`
	ParsedSeason  *int      `json:"parsed_season,omitempty"`
	ParsedEpisode *int      `json:"parsed_episode,omitempty"`
	Kind          MediaKind `json:"media_kind"`

	CatalogID        *int64 `json:"catalog_id,omitempty"`
	CatalogTitle     string `json:"catalog_title,omitempty"`
	CatalogYear      *int   `json:"catalog_year,omitempty"`
	CatalogPosterURL string `json:"catalog_poster_url,omitempty"`

	DestinationPath string `json:"destination_path,omitempty"`
	Status          Status `json:"status"`
	ErrorMessage    string `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ClearMatch drops catalog and placement fields so the record can be
// re-matched from scratch.
func (r *Record) ClearMatch() {
	r.CatalogID = nil
	r.CatalogTitle = ""
	r.CatalogYear = nil
	r.CatalogPosterURL = ""
	r.DestinationPath = ""
	r.ErrorMessage = ""
}

// ValidStatus reports whether value names a known status.
func ValidStatus(value string) bool {
	switch Status(value) {
	case StatusPending, StatusMatched, StatusLinked, StatusFailed, StatusManual, StatusIgnored:
		return true
	}
	return false
}

// ValidKind reports whether value names a known media kind.
func ValidKind(value string) bool {
	switch MediaKind(value) {
	case KindMovie, KindTV, KindUnknown:
		return true
	}
	return false
}

// Package settings manages the runtime-mutable settings document. Unlike
// internal/config, every field here can change while the daemon runs; the
// document is persisted as TOML and replaced atomically on update.
package settings

import (
	"strings"
	"time"
)

// Source modes understood by discovery.
const (
	SourceModeUnified  = "unified"
	SourceModeSeparate = "separate"
)

// Auto-scan interval units.
const (
	UnitSeconds = "seconds"
	UnitMinutes = "minutes"
)

// Settings is the runtime settings document.
type Settings struct {
	SourceMode       string `toml:"source_mode" json:"source_mode"`
	SourcePath       string `toml:"source_path" json:"source_path"`
	SourceMoviesPath string `toml:"source_movies_path" json:"source_movies_path"`
	SourceTVPath     string `toml:"source_tv_path" json:"source_tv_path"`

	MoviesPath string `toml:"movies_path" json:"movies_path"`
	TVPath     string `toml:"tv_path" json:"tv_path"`

	RadarrURL    string `toml:"radarr_url" json:"radarr_url"`
	RadarrAPIKey string `toml:"radarr_api_key" json:"radarr_api_key"`
	SonarrURL    string `toml:"sonarr_url" json:"sonarr_url"`
	SonarrAPIKey string `toml:"sonarr_api_key" json:"sonarr_api_key"`
	RequireArr   bool   `toml:"require_arr" json:"require_arr"`

	AutoScanEnabled  bool   `toml:"auto_scan_enabled" json:"auto_scan_enabled"`
	AutoScanInterval int    `toml:"auto_scan_interval" json:"auto_scan_interval"`
	AutoScanUnit     string `toml:"auto_scan_unit" json:"auto_scan_unit"`

	TMDBLanguage string `toml:"tmdb_language" json:"tmdb_language"`

	MinVideoSizeMB  int      `toml:"min_video_size_mb" json:"min_video_size_mb"`
	VideoExtensions []string `toml:"video_extensions" json:"video_extensions"`
}

// Patch carries a partial update; nil fields keep their current value.
type Patch struct {
	SourceMode       *string `json:"source_mode,omitempty"`
	SourcePath       *string `json:"source_path,omitempty"`
	SourceMoviesPath *string `json:"source_movies_path,omitempty"`
	SourceTVPath     *string `json:"source_tv_path,omitempty"`

	MoviesPath *string `json:"movies_path,omitempty"`
	TVPath     *string `json:"tv_path,omitempty"`

	RadarrURL    *string `json:"radarr_url,omitempty"`
	RadarrAPIKey *string `json:"radarr_api_key,omitempty"`
	SonarrURL    *string `json:"sonarr_url,omitempty"`
	SonarrAPIKey *string `json:"sonarr_api_key,omitempty"`
	RequireArr   *bool   `json:"require_arr,omitempty"`

	AutoScanEnabled  *bool   `json:"auto_scan_enabled,omitempty"`
	AutoScanInterval *int    `json:"auto_scan_interval,omitempty"`
	AutoScanUnit     *string `json:"auto_scan_unit,omitempty"`

	TMDBLanguage *string `json:"tmdb_language,omitempty"`

	MinVideoSizeMB  *int      `json:"min_video_size_mb,omitempty"`
	VideoExtensions *[]string `json:"video_extensions,omitempty"`
}

// Default returns the settings used before an operator configures anything.
func Default() Settings {
	return Settings{
		SourceMode:       SourceModeUnified,
		AutoScanEnabled:  false,
		AutoScanInterval: 30,
		AutoScanUnit:     UnitMinutes,
		TMDBLanguage:     "en-US",
		MinVideoSizeMB:   50,
		VideoExtensions:  []string{".mkv", ".mp4", ".avi", ".m4v", ".mov", ".wmv", ".ts"},
	}
}

// MinVideoSize returns the size filter in bytes.
func (s Settings) MinVideoSize() int64 {
	if s.MinVideoSizeMB <= 0 {
		return 0
	}
	return int64(s.MinVideoSizeMB) * 1048576
}

// ExtensionSet returns the recognized extensions as a lowercase lookup set.
func (s Settings) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.VideoExtensions))
	for _, ext := range s.VideoExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

// IntervalDuration converts the auto-scan interval into a duration.
func (s Settings) IntervalDuration() time.Duration {
	if s.AutoScanInterval <= 0 {
		return 0
	}
	unit := time.Minute
	if strings.EqualFold(strings.TrimSpace(s.AutoScanUnit), UnitSeconds) {
		unit = time.Second
	}
	return time.Duration(s.AutoScanInterval) * unit
}

// DestinationRoots returns the configured library roots, skipping blanks.
func (s Settings) DestinationRoots() []string {
	var roots []string
	for _, root := range []string{s.MoviesPath, s.TVPath} {
		if strings.TrimSpace(root) != "" {
			roots = append(roots, root)
		}
	}
	return roots
}

// AffectsAutoScan reports whether applying the patch changes any field the
// periodic scan driver reads, so callers know to restart it.
func (p Patch) AffectsAutoScan() bool {
	return p.AutoScanEnabled != nil || p.AutoScanInterval != nil || p.AutoScanUnit != nil
}

func (p Patch) apply(s Settings) Settings {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&s.SourceMode, p.SourceMode)
	setString(&s.SourcePath, p.SourcePath)
	setString(&s.SourceMoviesPath, p.SourceMoviesPath)
	setString(&s.SourceTVPath, p.SourceTVPath)
	setString(&s.MoviesPath, p.MoviesPath)
	setString(&s.TVPath, p.TVPath)
	setString(&s.RadarrURL, p.RadarrURL)
	setString(&s.RadarrAPIKey, p.RadarrAPIKey)
	setString(&s.SonarrURL, p.SonarrURL)
	setString(&s.SonarrAPIKey, p.SonarrAPIKey)
	setString(&s.AutoScanUnit, p.AutoScanUnit)
	setString(&s.TMDBLanguage, p.TMDBLanguage)
	if p.RequireArr != nil {
		s.RequireArr = *p.RequireArr
	}
	if p.AutoScanEnabled != nil {
		s.AutoScanEnabled = *p.AutoScanEnabled
	}
	if p.AutoScanInterval != nil {
		s.AutoScanInterval = *p.AutoScanInterval
	}
	if p.MinVideoSizeMB != nil {
		s.MinVideoSizeMB = *p.MinVideoSizeMB
	}
	if p.VideoExtensions != nil {
		s.VideoExtensions = append([]string(nil), (*p.VideoExtensions)...)
	}
	return s
}

// Package parse turns messy release filenames into structured media
// information. Parsing is pure and deterministic: the same path always
// produces the same result, and nothing here touches the filesystem.
package parse

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies a parsed name.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindTV      Kind = "tv"
	KindUnknown Kind = "unknown"
)

// Result is the structured parse of one name or path.
type Result struct {
	Title   string
	Year    *int
	Season  *int
	Episode *int
	Kind    Kind

	Quality string
	Source  string
	Codec   string
	Group   string
}

// IsSpecial reports whether the result landed in the specials season.
func (r Result) IsSpecial() bool {
	return r.Season != nil && *r.Season == 0
}

var (
	// 4-digit leading token directly followed by an episode tag is a title,
	// not a year (1923.S01E01).
	reNumericTitle = regexp.MustCompile(`^(\d{4})[.\s_-]S(\d{1,2})E(\d{1,3})\b`)

	reSeasonEpisode = regexp.MustCompile(`(?i)\bS(\d{1,2})[\s._-]*E(\d{1,3})\b`)
	reAltEpisode    = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`)
	reSeasonOnly    = regexp.MustCompile(`(?i)\b(?:S|Saison[\s.]*|Season[\s.]*)(\d{1,2})\b`)
	reEpisodeOnly   = regexp.MustCompile(`(?i)\b(?:E|Ep|Episode)[\s.]?(\d{1,3})\b`)
	reYear          = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	reQuality = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p|4k)\b`)
	reSource  = regexp.MustCompile(`(?i)\b(blu-?ray|bd-?rip|br-?rip|web-?dl|web-?rip|hdtv|dvd-?rip|hd-?rip|remux)\b`)
	reCodec   = regexp.MustCompile(`(?i)\b(x\.?26[45]|h\.?26[45]|hevc|avc|av1|xvid|divx)\b`)
	reGroup   = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
)

// ParsePath parses a file path, consulting the parent directory when the
// filename alone does not carry enough context.
func ParsePath(path string) Result {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	file := Parse(stem)

	parentName := filepath.Base(filepath.Dir(path))
	if parentName == "." || parentName == "" || parentName == "/" || parentName == string(filepath.Separator) {
		return finalize(file)
	}
	parent := Parse(parentName)

	if file.IsSpecial() {
		if file.Title == "" && parent.Title != "" {
			file.Title = parent.Title
			if file.Year == nil {
				file.Year = parent.Year
			}
		}
		return finalize(file)
	}

	switch {
	case file.Season == nil && file.Episode == nil:
		// Episode markers live on the directory, not the file
		// (Les.Simpson.S17/Les.Simpson-Le.fils.a.maman.mkv).
		if parent.Title != "" && parent.Season != nil {
			file.Title = parent.Title
			file.Year = parent.Year
			file.Season = parent.Season
			file.Kind = KindTV
		}
	case file.Season == nil && file.Episode != nil:
		if parent.Season != nil {
			file.Season = parent.Season
		} else {
			file.Season = intPtr(1)
		}
		if parent.Title != "" {
			file.Title = parent.Title
			if file.Year == nil {
				file.Year = parent.Year
			}
		}
		file.Kind = KindTV
	}
	return finalize(file)
}

// Parse parses a single name with no extension and no directory context.
func Parse(stem string) Result {
	pre := Preprocess(stem)
	result := Result{Kind: KindUnknown}

	markerCut := extractMarkers(pre, &result)

	if m := reNumericTitle.FindStringSubmatch(pre); m != nil {
		result.Title = m[1]
		result.Season = atoiPtr(m[2])
		result.Episode = atoiPtr(m[3])
		result.Kind = KindTV
		return result
	}

	if sp, ok := matchSpecial(pre); ok {
		result.Season = intPtr(0)
		result.Episode = intPtr(sp.episode)
		result.Kind = KindTV
		segment := pre[:sp.titleEnd]
		if years := reYear.FindAllStringIndex(segment, -1); len(years) > 0 {
			last := years[len(years)-1]
			if last[0] > 0 {
				result.Year = atoiPtr(segment[last[0]:last[1]])
				segment = segment[:last[0]]
			}
		}
		result.Title = CleanTitle(segment)
		return result
	}

	cut := len(pre)
	if markerCut > 0 && markerCut < cut {
		cut = markerCut
	}

	if loc := reSeasonEpisode.FindStringSubmatchIndex(pre); loc != nil {
		result.Season = atoiPtr(pre[loc[2]:loc[3]])
		result.Episode = atoiPtr(pre[loc[4]:loc[5]])
		result.Kind = KindTV
		if loc[0] < cut {
			cut = loc[0]
		}
	} else if loc := reAltEpisode.FindStringSubmatchIndex(pre); loc != nil {
		result.Season = atoiPtr(pre[loc[2]:loc[3]])
		result.Episode = atoiPtr(pre[loc[4]:loc[5]])
		result.Kind = KindTV
		if loc[0] < cut {
			cut = loc[0]
		}
	} else {
		if loc := reSeasonOnly.FindStringSubmatchIndex(pre); loc != nil {
			result.Season = atoiPtr(pre[loc[2]:loc[3]])
			result.Kind = KindTV
			if loc[0] < cut {
				cut = loc[0]
			}
		}
		if loc := reEpisodeOnly.FindStringSubmatchIndex(pre); loc != nil {
			result.Episode = atoiPtr(pre[loc[2]:loc[3]])
			result.Kind = KindTV
			if loc[0] < cut {
				cut = loc[0]
			}
		}
	}

	if years := reYear.FindAllStringIndex(pre[:cut], -1); len(years) > 0 {
		last := years[len(years)-1]
		if last[0] > 0 {
			result.Year = atoiPtr(pre[last[0]:last[1]])
			cut = last[0]
		}
	}

	result.Title = CleanTitle(pre[:cut])

	if result.Kind == KindUnknown && result.Year != nil {
		result.Kind = KindMovie
	}
	return result
}

// finalize fills the episode default for TV results that carry a season but
// no episode number, so downstream path construction always has both.
func finalize(r Result) Result {
	if r.Kind == KindTV && r.Season != nil && r.Episode == nil {
		r.Episode = intPtr(1)
	}
	return r
}

// extractMarkers records quality/source/codec/group and returns the earliest
// marker offset, or 0 when none was found.
func extractMarkers(pre string, result *Result) int {
	cut := 0
	note := func(loc []int, dst *string) {
		if loc == nil {
			return
		}
		*dst = pre[loc[2]:loc[3]]
		if cut == 0 || loc[0] < cut {
			cut = loc[0]
		}
	}
	note(reQuality.FindStringSubmatchIndex(pre), &result.Quality)
	note(reSource.FindStringSubmatchIndex(pre), &result.Source)
	note(reCodec.FindStringSubmatchIndex(pre), &result.Codec)
	if result.Quality != "" || result.Source != "" || result.Codec != "" {
		if m := reGroup.FindStringSubmatch(pre); m != nil {
			result.Group = m[1]
		}
	}
	return cut
}

func intPtr(v int) *int { return &v }

func atoiPtr(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

package parse

import "regexp"

var (
	// E01v2, E01 v2 -> E01 (no leading boundary: the E in S01E01v2 sits
	// between word characters)
	reVersionTag = regexp.MustCompile(`(?i)(E\d{1,3})\s*v\d+\b`)
	// S01 - 01, S01.01 -> S01E01
	reSeasonSep = regexp.MustCompile(`(?i)\bS(\d{1,2})\s*(?:[-–]\s*|\.)(\d{1,3})\b`)
)

// Preprocess rewrites non-standard episode expressions into the canonical
// SxxEyy form so the generic parse can handle them.
func Preprocess(name string) string {
	name = reVersionTag.ReplaceAllString(name, "${1}")
	name = reSeasonSep.ReplaceAllString(name, "S${1}E${2}")
	return name
}

package parse

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	reCreditless    = regexp.MustCompile(`(?i)creditless|NCOP|NCED`)
	reEpisodeTag    = regexp.MustCompile(`(?i)S\d{1,2}\s*E\d{1,3}`)
	reSeasonSpecial = regexp.MustCompile(`(?i)\bS\d{1,2}\s*[-–]\s*(?:NC)?(?:OP|ED)\s*\d*`)
	reBareOPED      = regexp.MustCompile(`(?i)^\s*(?:OP|ED)\s*\d*\s*$`)
)

// ShouldIgnore reports whether a path should be excluded from discovery
// outright. Creditless openings/endings with no episode tag are skipped,
// unless they carry season context that places them under Specials; a bare
// OP/ED filename is always skipped.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if reBareOPED.MatchString(stem) {
		return true
	}
	if reCreditless.MatchString(stem) &&
		!reEpisodeTag.MatchString(stem) &&
		!reSeasonSpecial.MatchString(stem) {
		return true
	}
	return false
}

// Package linker builds canonical library paths and materializes them as
// hardlinks, falling back to symlinks across filesystems.
package linker

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ManualFolder is the holding area for files that need operator attention.
const ManualFolder = "_Manual"

const maxComponentLength = 200

// MoviePath returns the canonical destination for a movie file:
// <root>/<Title> (<year>)/<Title> (<year>)<ext>. Without a year the
// parenthesized suffix is omitted.
func MoviePath(root, title string, year *int, ext string) string {
	name := SanitizeComponent(displayTitle(title, year))
	return filepath.Join(root, name, name+ext)
}

// EpisodePath returns the canonical destination for an episode:
// <root>/<Title> (<year>)/Season <NN>/<Title> - S<NN>E<NN><ext>.
// Season 0 lands in the Specials folder.
func EpisodePath(root, title string, year *int, season, episode int, ext string) string {
	show := SanitizeComponent(displayTitle(title, year))
	seasonFolder := "Specials"
	if season != 0 {
		seasonFolder = fmt.Sprintf("Season %02d", season)
	}
	file := SanitizeComponent(fmt.Sprintf("%s - S%02dE%02d", SanitizeComponent(title), season, episode))
	return filepath.Join(root, show, seasonFolder, file+ext)
}

// ManualPath returns the holding destination for an unmatched file under
// <root>/_Manual/<kind>/.
func ManualPath(root, kind, filename string) string {
	return filepath.Join(root, ManualFolder, kind, SanitizeComponent(filename))
}

// SanitizeComponent removes characters that are unsafe in path components,
// trims whitespace and trailing dots, and truncates oversized names.
func SanitizeComponent(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, ". ")
	if runes := []rune(cleaned); len(runes) > maxComponentLength {
		cleaned = strings.TrimSpace(string(runes[:maxComponentLength]))
	}
	return cleaned
}

func displayTitle(title string, year *int) string {
	title = strings.TrimSpace(title)
	if year == nil {
		return title
	}
	return fmt.Sprintf("%s (%d)", title, *year)
}

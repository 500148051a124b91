package parse

import (
	"regexp"
	"strings"
)

var (
	reBracketTag   = regexp.MustCompile(`\[[^\]]*\]`)
	reParenTag     = regexp.MustCompile(`\([^)]*\)`)
	reParenYear    = regexp.MustCompile(`^\((19\d{2}|20\d{2})\)$`)
	reURL          = regexp.MustCompile(`(?i)\b(?:www\.\S+|https?://\S+)`)
	reNoiseWord    = regexp.MustCompile(`(?i)\b(?:intégrale|integrale|complete|collection|vostfr|multi|french|truefrench)\b`)
	reSeasonsRange = regexp.MustCompile(`(?i)\bsaisons?\s*\d+(?:\s*(?:-|–|à|a)\s*\d+)?\b|\bS\d{1,2}\s*-\s*S\d{1,2}\b`)
	reWhitespace   = regexp.MustCompile(`\s+`)
)

// CleanTitle normalizes a raw title segment: separators become spaces,
// bracketed tags, URLs, and release-noise tokens are removed, and whitespace
// is collapsed. A parenthesized 4-digit year survives.
func CleanTitle(segment string) string {
	s := strings.NewReplacer(".", " ", "_", " ").Replace(segment)
	s = reBracketTag.ReplaceAllString(s, " ")
	s = reParenTag.ReplaceAllStringFunc(s, func(tag string) string {
		if reParenYear.MatchString(tag) {
			return tag
		}
		return " "
	})
	s = reURL.ReplaceAllString(s, " ")
	s = reSeasonsRange.ReplaceAllString(s, " ")
	s = reNoiseWord.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " -–(")
	return s
}

package parse

import (
	"regexp"
	"strconv"
)

// Specials are extras shelved under season 0: creditless openings and
// endings, OVAs, bonus features, bloopers, and similar. The table is
// ordered; the first matching pattern wins so season-context forms take
// precedence over the bare tags they contain.
var specialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bS\d{1,2}\s*[-–]\s*(?:NCOP|NCED|OP|ED)\s*(\d+)`),
	regexp.MustCompile(`(?i)\bNC(?:OP|ED)\s*(\d+)`),
	regexp.MustCompile(`(?i)^(?:OP|ED)\s*(\d+)`),
	regexp.MustCompile(`(?i)\b(?:SP|OVA|OAD|OAV|Bonus|Extra|PV|CM)\s*(\d+)?\b`),
	regexp.MustCompile(`(?i)\b(?:BETISIER|BLOOPERS?|GAG\s*REEL|MAKING\s*OF|BEHIND\s*THE\s*SCENES?|DELETED\s*SCENES?|FEATURETTES?|INTERVIEWS?)\b`),
}

type special struct {
	episode  int
	titleEnd int
}

func matchSpecial(name string) (special, bool) {
	for _, pattern := range specialPatterns {
		loc := pattern.FindStringSubmatchIndex(name)
		if loc == nil {
			continue
		}
		episode := 1
		if len(loc) >= 4 && loc[2] >= 0 {
			if v, err := strconv.Atoi(name[loc[2]:loc[3]]); err == nil {
				episode = v
			}
		}
		return special{episode: episode, titleEnd: loc[0]}, true
	}
	return special{}, false
}

package timeparse

import (
	"regexp"
	"strings"
)

var joinRe = regexp.MustCompile(`(?i)\s*\b(?:dan|and)\s+(?:ingetin|ingatkan|remind\s+me)\b`)

// SplitRequests cuts text that chains several reminder requests
// ("... dan ingetin ...", "... and remind me to ...") into one segment per
// request. Text without a joining phrase comes back as a single segment.
func SplitRequests(text string) []string {
	var segments []string
	prev := 0
	for _, loc := range joinRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[prev:loc[0]]); s != "" {
			segments = append(segments, s)
		}
		prev = loc[1]
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		segments = append(segments, s)
	}
	return segments
}

package timeparse

import (
	"context"
	"regexp"
	"time"

	"github.com/hray3182/pengingat/internal/models"
)

var (
	relativeInRe    = regexp.MustCompile(`(?i)\b(?:in|dalam)\s+(\d+)\s*(` + unitPattern + `)\b(?:\s+(?:lagi|from\s+now))?`)
	relativeLaterRe = regexp.MustCompile(`(?i)\b(\d+)\s*(` + unitPattern + `)\s+(?:lagi|later|from\s+now)\b`)
)

// matchRelative handles "in 2 hours", "dalam 10 menit" and "2 jam lagi".
// Offsets of zero, or too large for a time.Duration, are not accepted, so the
// result is always in the future.
func matchRelative(_ context.Context, now time.Time, text string) (*Match, error) {
	var best []int
	for _, re := range []*regexp.Regexp{relativeInRe, relativeLaterRe} {
		loc := re.FindStringSubmatchIndex(text)
		if loc != nil && (best == nil || loc[0] < best[0]) {
			best = loc
		}
	}
	if best == nil {
		return nil, nil
	}

	d, ok := scaled(text[best[2]:best[3]], unitDuration(text[best[4]:best[5]]))
	if !ok {
		return nil, nil
	}
	at := now.Add(d)
	if !at.After(now) {
		return nil, nil
	}

	return &Match{
		Kind:     RelativeOffset,
		Schedule: models.OneOff(at),
		spans:    []span{{best[0], best[1]}},
	}, nil
}

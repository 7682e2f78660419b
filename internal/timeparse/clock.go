package timeparse

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/hray3182/pengingat/internal/models"
)

var (
	clockRe = regexp.MustCompile(`(?i)(?:\b(at|jam|pukul)\s*)?\b(\d{1,2})(?:[:.](\d{2}))?\b`)

	// A number followed by a unit is a duration ("2 jam lagi"), not a clock time.
	// After a marker only sub-day units count, so "jam 9 hari ini" stays a time.
	clockUnitAfterRe   = regexp.MustCompile(`(?i)^\s*(?:` + unitPattern + `|[smhd])\b`)
	clockSubDayAfterRe = regexp.MustCompile(`(?i)^\s*(?:seconds?|secs?|detik|minutes?|mins?|menit|hours?|hrs?|jam)\b`)
	clockMeridiemRe    = regexp.MustCompile(`(?i)^\s*(?:am|pm|a\.m\.|p\.m\.)`)
	clockDateAfterRe   = regexp.MustCompile(`^[/\-]\d`)
	clockBeforeRe      = regexp.MustCompile(`(?i)(?:\b(?:every|setiap|tiap|in|dalam)\s*|[/\-]|\d[.:]?)$`)
	bareClockBeforeRe  = regexp.MustCompile(`(?i)^\s*(?:(?:ingetin|ingatkan|remind\s+me)\s*)?$`)
	bareClockAfterRe   = regexp.MustCompile(`^[\s.,!?]*$`)

	// A calendar date belongs to the date-time phrase matchers.
	calendarDateRe = regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}`)
)

type clockTime struct {
	hour, minute int
	at           span
}

// findClock returns the clock time mentioned in text. Candidates that carry a
// marker word or a minute part are preferred, leftmost first. A bare hour
// counts only at the start or the end of the text, since a number inside the
// task ("beli 2 roti") is not a time.
func findClock(text string) (clockTime, bool) {
	var bare *clockTime
	for _, loc := range clockRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if clockBeforeRe.MatchString(text[:start]) {
			continue
		}
		marked := loc[2] >= 0
		hasMinute := loc[6] >= 0
		rest := text[end:]
		unitAfter := clockUnitAfterRe
		if marked {
			unitAfter = clockSubDayAfterRe
		}
		if unitAfter.MatchString(rest) || clockMeridiemRe.MatchString(rest) || clockDateAfterRe.MatchString(rest) {
			continue
		}

		hour, _ := strconv.Atoi(text[loc[4]:loc[5]])
		minute := 0
		if hasMinute {
			minute, _ = strconv.Atoi(text[loc[6]:loc[7]])
		}
		if hour > 23 || minute > 59 {
			continue
		}

		c := clockTime{hour: hour, minute: minute, at: span{start, end}}
		if hasMinute || marked {
			return c, true
		}
		atEdge := bareClockBeforeRe.MatchString(text[:start]) || bareClockAfterRe.MatchString(rest)
		if bare == nil && atEdge {
			bare = &c
		}
	}
	if bare != nil {
		return *bare, true
	}
	return clockTime{}, false
}

func matchClock(_ context.Context, now time.Time, text string) (*Match, error) {
	if calendarDateRe.MatchString(text) {
		return nil, nil
	}
	c, ok := findClock(text)
	if !ok {
		return nil, nil
	}
	at := rollForward(dateAt(now, c.hour, c.minute), now, 1)
	return &Match{
		Kind:     OneOffClockTime,
		Schedule: models.OneOff(at),
		spans:    []span{c.at},
	}, nil
}

package timeparse

import (
	"context"
	"regexp"
	"time"

	"github.com/hray3182/pengingat/internal/models"
)

var (
	weeklyRe   = regexp.MustCompile(`(?i)\b(?:every|setiap|tiap)\s+(?:hari\s+)?(` + weekdayPattern + `)\b`)
	dailyRe    = regexp.MustCompile(`(?i)\b(?:every\s+day|setiap\s+hari|tiap\s+hari|daily)\b`)
	dailyAtRe  = regexp.MustCompile(`(?i)\b(setiap|tiap)\s+(?:jam|pukul)\s*\d{1,2}(?:[:.]\d{2})?\b`)
	intervalRe = regexp.MustCompile(`(?i)\b(?:every|setiap|tiap)\s+(?:(\d+)\s*)?(` + unitPattern + `)\b`)
)

// matchWeekly handles "every monday at 9", "setiap hari senin jam 07.30".
func matchWeekly(_ context.Context, _ time.Time, text string) (*Match, error) {
	loc := weeklyRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, nil
	}
	day, ok := weekdayOf(text[loc[2]:loc[3]])
	if !ok {
		return nil, nil
	}
	phrase := span{loc[0], loc[1]}
	c, ok := findClock(blank(text, phrase))
	if !ok {
		return nil, ErrAnchorRequired
	}
	return &Match{
		Kind:     RecurringWeekly,
		Schedule: models.Weekly(day, c.hour, c.minute),
		spans:    []span{phrase, c.at},
	}, nil
}

// matchDaily handles "every day at 9", "setiap hari jam 20.00" and the
// Indonesian shorthand "setiap jam 8".
func matchDaily(_ context.Context, _ time.Time, text string) (*Match, error) {
	var phrase span
	if loc := dailyRe.FindStringIndex(text); loc != nil {
		phrase = span{loc[0], loc[1]}
	} else if loc := dailyAtRe.FindStringSubmatchIndex(text); loc != nil {
		// Only the "setiap" keyword is the recurrence; "jam 8" is left for findClock.
		phrase = span{loc[2], loc[3]}
	} else {
		return nil, nil
	}

	c, ok := findClock(blank(text, phrase))
	if !ok {
		return nil, ErrAnchorRequired
	}
	return &Match{
		Kind:     RecurringDaily,
		Schedule: models.Daily(c.hour, c.minute),
		spans:    []span{phrase, c.at},
	}, nil
}

// matchInterval handles "every 2 hours", "setiap 30 menit", "every hour".
func matchInterval(_ context.Context, _ time.Time, text string) (*Match, error) {
	loc := intervalRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, nil
	}
	count := "1"
	if loc[2] >= 0 {
		count = text[loc[2]:loc[3]]
	}
	d, ok := scaled(count, unitDuration(text[loc[4]:loc[5]]))
	if !ok {
		return nil, nil
	}
	return &Match{
		Kind:     RecurringInterval,
		Schedule: models.Every(d),
		spans:    []span{{loc[0], loc[1]}},
	}, nil
}

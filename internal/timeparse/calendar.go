package timeparse

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hray3182/pengingat/internal/models"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	dayWordRe = regexp.MustCompile(`(?i)\b(?:(today|hari\s+ini|tonight|malam\s+ini|day\s+after\s+tomorrow|tomorrow|besok|lusa)|(next\s+)?(` +
		weekdayPattern + `)(\s+depan)?)\b`)
	// A phrase that states a time of day, as opposed to a bare date like "1/2".
	explicitTimeRe = regexp.MustCompile(`(?i)\d\s*(?:am|pm|a\.m\.|p\.m\.)|\d[:.]\d{2}|\b(?:noon|midnight)\b`)
)

func dayOffset(word string) int {
	switch strings.Join(strings.Fields(strings.ToLower(word)), " ") {
	case "tomorrow", "besok":
		return 1
	case "day after tomorrow", "lusa":
		return 2
	}
	return 0
}

// matchDayWord handles a named day plus a clock time: "besok jam 9",
// "tomorrow 14:30", "next friday at 10", "senin depan 08.00".
func matchDayWord(_ context.Context, now time.Time, text string) (*Match, error) {
	loc := dayWordRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, nil
	}
	phrase := span{loc[0], loc[1]}
	c, ok := findClock(blank(text, phrase))
	if !ok {
		return nil, nil
	}

	var at time.Time
	if loc[2] >= 0 {
		day := now.AddDate(0, 0, dayOffset(text[loc[2]:loc[3]]))
		at = rollForward(dateAt(day, c.hour, c.minute), now, 1)
	} else {
		wd, _ := weekdayOf(text[loc[6]:loc[7]])
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 && (loc[4] >= 0 || loc[8] >= 0) {
			ahead = 7
		}
		at = rollForward(dateAt(now.AddDate(0, 0, ahead), c.hour, c.minute), now, 7)
	}

	return &Match{
		Kind:     GeneralDateTimePhrase,
		Schedule: models.OneOff(at),
		spans:    []span{phrase, c.at},
	}, nil
}

// whenMatcher defers to olebedev/when for English phrases the fixed patterns
// don't cover ("9pm", "next wednesday at 2:25 p.m.").
type whenMatcher struct {
	w *when.Parser
}

func newWhenMatcher() *whenMatcher {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &whenMatcher{w: w}
}

func (m *whenMatcher) Match(_ context.Context, now time.Time, text string) (*Match, error) {
	r, err := m.w.Parse(text, now)
	if err != nil || r == nil {
		return nil, nil
	}
	start := r.Index
	end := start + len(r.Text)
	if start < 0 || end > len(text) {
		return nil, nil
	}

	// when fills a missing time of day with now's, so the time must come from
	// the phrase itself or from a clock time elsewhere in the text.
	t := r.Time.In(now.Location())
	hour, minute := t.Hour(), t.Minute()
	spans := []span{{start, end}}
	if !explicitTimeRe.MatchString(r.Text) {
		c, ok := findClock(blank(text, spans[0]))
		if !ok {
			return nil, nil
		}
		hour, minute = c.hour, c.minute
		spans = append(spans, c.at)
	}

	at := rollForward(dateAt(t, hour, minute), now, 1)
	return &Match{
		Kind:     GeneralDateTimePhrase,
		Schedule: models.OneOff(at),
		spans:    spans,
	}, nil
}

// Resolver resolves a date-time phrase the built-in matchers could not, and
// reports the phrase it used. ok is false when it found nothing.
type Resolver interface {
	Resolve(ctx context.Context, now time.Time, text string) (at time.Time, phrase string, ok bool, err error)
}

// ResolverMatcher adapts a Resolver to the matcher chain. Resolver errors are
// treated as "no match"; a phrase not found verbatim in the text is not cut.
func ResolverMatcher(r Resolver) Matcher {
	return MatcherFunc(func(ctx context.Context, now time.Time, text string) (*Match, error) {
		at, phrase, ok, err := r.Resolve(ctx, now, text)
		if err != nil || !ok || at.IsZero() {
			return nil, nil
		}
		at = rollForward(at.In(now.Location()), now, 1)
		m := &Match{Kind: GeneralDateTimePhrase, Schedule: models.OneOff(at)}
		if i := strings.Index(strings.ToLower(text), strings.ToLower(phrase)); phrase != "" && i >= 0 && i+len(phrase) <= len(text) {
			m.spans = []span{{i, i + len(phrase)}}
		}
		return m, nil
	})
}

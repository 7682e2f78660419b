// Package timeparse turns free-text reminder requests into schedules.
//
// A Parser runs an ordered chain of matchers over the text. The first matcher
// that recognizes a phrase wins; its phrase is cut out of the text and what is
// left becomes the task description.
package timeparse

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hray3182/pengingat/internal/models"
)

var (
	// ErrNotFound means no time or recurrence phrase was recognized.
	ErrNotFound = errors.New("no time expression found")
	// ErrAnchorRequired means a daily or weekly recurrence had no clock time.
	ErrAnchorRequired = errors.New("recurrence needs a time of day")
)

// Kind identifies which matcher produced a Result.
type Kind int

const (
	OneOffClockTime Kind = iota + 1
	RelativeOffset
	GeneralDateTimePhrase
	RecurringInterval
	RecurringDaily
	RecurringWeekly
)

func (k Kind) String() string {
	switch k {
	case OneOffClockTime:
		return "clock_time"
	case RelativeOffset:
		return "relative_offset"
	case GeneralDateTimePhrase:
		return "date_time_phrase"
	case RecurringInterval:
		return "recurring_interval"
	case RecurringDaily:
		return "recurring_daily"
	case RecurringWeekly:
		return "recurring_weekly"
	}
	return "unknown"
}

type Result struct {
	Kind     Kind
	Schedule models.Schedule
	Task     string
}

// span is a half-open byte range of the input that belongs to the time phrase.
type span struct{ start, end int }

// Match is what a Matcher reports on success.
type Match struct {
	Kind     Kind
	Schedule models.Schedule
	spans    []span
}

// Matcher recognizes one family of phrases. It returns (nil, nil) when the
// text holds nothing it understands, and an error only when it recognized a
// phrase that cannot be turned into a schedule.
type Matcher interface {
	Match(ctx context.Context, now time.Time, text string) (*Match, error)
}

type MatcherFunc func(ctx context.Context, now time.Time, text string) (*Match, error)

func (f MatcherFunc) Match(ctx context.Context, now time.Time, text string) (*Match, error) {
	return f(ctx, now, text)
}

type Parser struct {
	matchers []Matcher
}

type Option func(*Parser)

// WithFallback appends a matcher that runs after the built-in chain.
func WithFallback(m Matcher) Option {
	return func(p *Parser) { p.matchers = append(p.matchers, m) }
}

// New returns a parser with the built-in chain. Recurrence phrases are tried
// before one-off phrases because they embed clock times and unit words that
// the one-off matchers would otherwise claim. Among one-off phrases a relative
// offset is the least ambiguous, and a day word only wins when a clock time
// goes with it.
func New(opts ...Option) *Parser {
	p := &Parser{
		matchers: []Matcher{
			MatcherFunc(matchWeekly),
			MatcherFunc(matchDaily),
			MatcherFunc(matchInterval),
			MatcherFunc(matchRelative),
			MatcherFunc(matchDayWord),
			MatcherFunc(matchClock),
			newWhenMatcher(),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse resolves text against now, which must already be in the owner's
// local zone. One-off results are always strictly after now.
func (p *Parser) Parse(ctx context.Context, now time.Time, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrNotFound
	}
	for _, m := range p.matchers {
		match, err := m.Match(ctx, now, text)
		if err != nil {
			return Result{}, err
		}
		if match == nil {
			continue
		}
		return Result{
			Kind:     match.Kind,
			Schedule: match.Schedule,
			Task:     residual(text, match.spans),
		}, nil
	}
	return Result{}, ErrNotFound
}

// rollForward moves a past instant forward by whole periods until it is
// strictly after now. The period is one day for clock and day-word phrases
// and one week for weekday phrases.
func rollForward(at, now time.Time, periodDays int) time.Time {
	for !at.After(now) {
		at = at.AddDate(0, 0, periodDays)
	}
	return at
}

var (
	leadingRequestRe = regexp.MustCompile(`(?i)^\s*(?:ingetin|ingatkan|remind\s+me)\b`)
	leadingMarkerRe  = regexp.MustCompile(`(?i)^\s*(?:to|untuk|at|jam|pukul|pada)\b`)
	trailingMarkerRe = regexp.MustCompile(`(?i)\b(?:at|jam|pukul|pada)\s*$`)
	spacesRe         = regexp.MustCompile(`\s+`)
)

const defaultTask = "Reminder"

func residual(text string, spans []span) string {
	sorted := append([]span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start > sorted[j].start })
	out := text
	for _, s := range sorted {
		out = out[:s.start] + " " + out[s.end:]
	}

	out = spacesRe.ReplaceAllString(out, " ")
	out = leadingRequestRe.ReplaceAllString(out, "")
	for {
		trimmed := strings.Trim(out, " ,:-")
		trimmed = leadingMarkerRe.ReplaceAllString(trimmed, "")
		trimmed = trailingMarkerRe.ReplaceAllString(trimmed, "")
		trimmed = strings.Trim(trimmed, " ,:-")
		if trimmed == out {
			break
		}
		out = trimmed
	}
	if out == "" {
		return defaultTask
	}
	return out
}

// blank overwrites spans with spaces so later searches keep byte offsets.
func blank(text string, spans ...span) string {
	b := []byte(text)
	for _, s := range spans {
		for i := s.start; i < s.end; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

func dateAt(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

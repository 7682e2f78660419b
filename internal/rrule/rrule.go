package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/hray3182/pengingat/internal/models"
	"github.com/teambition/rrule-go"
)

var weekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

var weekdayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

// Build returns the RFC 5545 rule for an anchored (daily or weekly) schedule.
// dtstart is interpreted in loc; occurrences are produced in loc.
func Build(s models.Schedule, dtstart time.Time, loc *time.Location) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Dtstart:  dtstart.In(loc).Truncate(time.Second),
		Byhour:   []int{s.Hour},
		Byminute: []int{s.Minute},
		Bysecond: []int{0},
	}
	switch s.Kind {
	case models.KindDaily:
		opt.Freq = rrule.DAILY
	case models.KindWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{weekdays[s.Weekday]}
	default:
		return nil, fmt.Errorf("schedule kind %q has no anchor rule", s.Kind)
	}
	return rrule.NewRRule(opt)
}

// String renders the RRULE text for anchored schedules, empty for the rest.
func String(s models.Schedule) string {
	switch s.Kind {
	case models.KindDaily:
		return fmt.Sprintf("FREQ=DAILY;BYHOUR=%d;BYMINUTE=%d;BYSECOND=0", s.Hour, s.Minute)
	case models.KindWeekly:
		return fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;BYHOUR=%d;BYMINUTE=%d;BYSECOND=0", weekdayCodes[s.Weekday], s.Hour, s.Minute)
	}
	return ""
}

// Next returns the first occurrence of s strictly after ref.
// For one-off schedules it is the fixed trigger instant.
func Next(s models.Schedule, ref time.Time, loc *time.Location) (time.Time, error) {
	switch s.Kind {
	case models.KindOneOff:
		return s.TriggerAt, nil
	case models.KindInterval:
		if s.Interval <= 0 {
			return time.Time{}, fmt.Errorf("non-positive interval %s", s.Interval)
		}
		return ref.Add(s.Interval), nil
	}

	rule, err := Build(s, ref, loc)
	if err != nil {
		return time.Time{}, err
	}
	next := rule.After(ref, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("rule %s has no occurrence after %s", String(s), ref)
	}
	return next, nil
}

// Latest returns the last occurrence of recurring s that is on or before now,
// counting from fired (itself an occurrence). Occurrences skipped this way are
// never delivered; the schedule keeps its phase.
func Latest(s models.Schedule, fired, now time.Time, loc *time.Location) time.Time {
	if !now.After(fired) {
		return fired
	}
	switch s.Kind {
	case models.KindInterval:
		if s.Interval <= 0 {
			return fired
		}
		steps := now.Sub(fired) / s.Interval
		return fired.Add(steps * s.Interval)
	case models.KindDaily, models.KindWeekly:
		rule, err := Build(s, fired, loc)
		if err != nil {
			return fired
		}
		if prev := rule.Before(now, true); !prev.IsZero() && prev.After(fired) {
			return prev
		}
	}
	return fired
}

// HumanReadable returns an English label for the schedule's recurrence,
// or the trigger clock time for one-off schedules.
func HumanReadable(s models.Schedule, loc *time.Location) string {
	switch s.Kind {
	case models.KindOneOff:
		return s.TriggerAt.In(loc).Format("15:04")
	case models.KindInterval:
		return intervalLabel(s.Interval)
	case models.KindDaily:
		return fmt.Sprintf("every day at %02d:%02d", s.Hour, s.Minute)
	case models.KindWeekly:
		return fmt.Sprintf("every %s at %02d:%02d", strings.ToLower(s.Weekday.String()), s.Hour, s.Minute)
	}
	return string(s.Kind)
}

func intervalLabel(d time.Duration) string {
	units := []struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "day"},
		{time.Hour, "hour"},
		{time.Minute, "minute"},
		{time.Second, "second"},
	}
	for _, u := range units {
		if d >= u.size && d%u.size == 0 {
			n := int64(d / u.size)
			if n == 1 {
				return "every " + u.name
			}
			return fmt.Sprintf("every %d %ss", n, u.name)
		}
	}
	return "every " + d.String()
}

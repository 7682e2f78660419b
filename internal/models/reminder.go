package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScheduleKind tags which variant of Schedule is populated.
type ScheduleKind string

const (
	KindOneOff   ScheduleKind = "one_off"
	KindInterval ScheduleKind = "interval"
	KindDaily    ScheduleKind = "daily"
	KindWeekly   ScheduleKind = "weekly"
)

// Schedule is either a single trigger instant (KindOneOff) or a recurrence rule.
// Only the fields belonging to Kind are meaningful.
type Schedule struct {
	Kind      ScheduleKind
	TriggerAt time.Time
	Interval  time.Duration
	Hour      int
	Minute    int
	Weekday   time.Weekday
}

func OneOff(at time.Time) Schedule {
	return Schedule{Kind: KindOneOff, TriggerAt: at}
}

func Every(interval time.Duration) Schedule {
	return Schedule{Kind: KindInterval, Interval: interval}
}

func Daily(hour, minute int) Schedule {
	return Schedule{Kind: KindDaily, Hour: hour, Minute: minute}
}

func Weekly(weekday time.Weekday, hour, minute int) Schedule {
	return Schedule{Kind: KindWeekly, Weekday: weekday, Hour: hour, Minute: minute}
}

// IsRecurring returns true for interval, daily and weekly schedules
func (s Schedule) IsRecurring() bool {
	return s.Kind != KindOneOff
}

// Equal compares only the fields that belong to the schedule's kind.
func (s Schedule) Equal(o Schedule) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindOneOff:
		return s.TriggerAt.Equal(o.TriggerAt)
	case KindInterval:
		return s.Interval == o.Interval
	case KindDaily:
		return s.Hour == o.Hour && s.Minute == o.Minute
	case KindWeekly:
		return s.Weekday == o.Weekday && s.Hour == o.Hour && s.Minute == o.Minute
	}
	return false
}

// Validate reports whether the schedule can be stored and replayed. Intervals
// are kept in whole milliseconds.
func (s Schedule) Validate() error {
	switch s.Kind {
	case KindOneOff:
		if s.TriggerAt.IsZero() {
			return fmt.Errorf("one_off schedule without trigger time")
		}
	case KindInterval:
		if s.Interval < time.Millisecond {
			return fmt.Errorf("interval %s is below one millisecond", s.Interval)
		}
	case KindDaily, KindWeekly:
		if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
			return fmt.Errorf("time of day %02d:%02d out of range", s.Hour, s.Minute)
		}
		if s.Kind == KindWeekly && (s.Weekday < time.Sunday || s.Weekday > time.Saturday) {
			return fmt.Errorf("weekday %d out of range", s.Weekday)
		}
	default:
		return fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
	return nil
}

type Reminder struct {
	ID              uuid.UUID  `json:"id"`
	Owner           string     `json:"owner"`
	TaskText        string     `json:"taskText"`
	Schedule        Schedule   `json:"-"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastTriggeredAt *time.Time `json:"lastTriggeredAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Reference returns the instant recurrence arithmetic starts from:
// the last fired occurrence, or the creation time before the first fire.
func (r *Reminder) Reference() time.Time {
	if r.LastTriggeredAt != nil {
		return *r.LastTriggeredAt
	}
	return r.CreatedAt
}

// Clone returns a deep copy so snapshots can't alias store state.
func (r *Reminder) Clone() *Reminder {
	c := *r
	if r.LastTriggeredAt != nil {
		t := *r.LastTriggeredAt
		c.LastTriggeredAt = &t
	}
	return &c
}

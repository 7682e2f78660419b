package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/pengingat/internal/models"
)

// record is the durable shape of a reminder, shared by every snapshot driver.
type record struct {
	ID              string         `json:"id"`
	Owner           string         `json:"owner"`
	TaskText        string         `json:"taskText"`
	ScheduleType    string         `json:"scheduleType"`
	ScheduleFields  scheduleFields `json:"scheduleFields"`
	Active          bool           `json:"active"`
	CreatedAt       time.Time      `json:"createdAt"`
	LastTriggeredAt *time.Time     `json:"lastTriggeredAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type scheduleFields struct {
	TriggerAt  *time.Time `json:"triggerAt,omitempty"`
	IntervalMs int64      `json:"intervalMs,omitempty"`
	Weekday    *int       `json:"weekday,omitempty"`
	Hour       *int       `json:"hour,omitempty"`
	Minute     *int       `json:"minute,omitempty"`
}

func intPtr(v int) *int { return &v }

func toRecord(r *models.Reminder) record {
	var f scheduleFields
	s := r.Schedule
	switch s.Kind {
	case models.KindOneOff:
		at := s.TriggerAt
		f.TriggerAt = &at
	case models.KindInterval:
		f.IntervalMs = s.Interval.Milliseconds()
	case models.KindDaily:
		f.Hour, f.Minute = intPtr(s.Hour), intPtr(s.Minute)
	case models.KindWeekly:
		f.Weekday = intPtr(int(s.Weekday))
		f.Hour, f.Minute = intPtr(s.Hour), intPtr(s.Minute)
	}

	return record{
		ID:              r.ID.String(),
		Owner:           r.Owner,
		TaskText:        r.TaskText,
		ScheduleType:    string(s.Kind),
		ScheduleFields:  f,
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
		LastTriggeredAt: r.LastTriggeredAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (rec record) toReminder() (*models.Reminder, error) {
	id := uuid.New()
	if rec.ID != "" {
		parsed, err := uuid.Parse(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid reminder id %q: %w", rec.ID, err)
		}
		id = parsed
	}

	sched, err := rec.schedule()
	if err != nil {
		return nil, fmt.Errorf("reminder %s: %w", id, err)
	}

	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = rec.CreatedAt
	}
	return &models.Reminder{
		ID:              id,
		Owner:           rec.Owner,
		TaskText:        rec.TaskText,
		Schedule:        sched,
		Active:          rec.Active,
		CreatedAt:       rec.CreatedAt,
		LastTriggeredAt: rec.LastTriggeredAt,
		UpdatedAt:       updated,
	}, nil
}

func (rec record) schedule() (models.Schedule, error) {
	f := rec.ScheduleFields
	switch models.ScheduleKind(rec.ScheduleType) {
	case models.KindOneOff:
		if f.TriggerAt == nil {
			return models.Schedule{}, fmt.Errorf("one_off schedule without triggerAt")
		}
		return models.OneOff(*f.TriggerAt), nil
	case models.KindInterval:
		if f.IntervalMs <= 0 {
			return models.Schedule{}, fmt.Errorf("interval schedule with intervalMs %d", f.IntervalMs)
		}
		return models.Every(time.Duration(f.IntervalMs) * time.Millisecond), nil
	case models.KindDaily:
		if f.Hour == nil || f.Minute == nil {
			return models.Schedule{}, fmt.Errorf("daily schedule without hour/minute")
		}
		return models.Daily(*f.Hour, *f.Minute), nil
	case models.KindWeekly:
		if f.Weekday == nil || f.Hour == nil || f.Minute == nil {
			return models.Schedule{}, fmt.Errorf("weekly schedule without weekday/hour/minute")
		}
		if *f.Weekday < 0 || *f.Weekday > 6 {
			return models.Schedule{}, fmt.Errorf("weekly schedule with weekday %d", *f.Weekday)
		}
		return models.Weekly(time.Weekday(*f.Weekday), *f.Hour, *f.Minute), nil
	}
	return models.Schedule{}, fmt.Errorf("unknown schedule type %q", rec.ScheduleType)
}

func toRecords(reminders []*models.Reminder) []record {
	out := make([]record, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, toRecord(r))
	}
	return out
}

func fromRecords(recs []record) ([]*models.Reminder, error) {
	out := make([]*models.Reminder, 0, len(recs))
	for _, rec := range recs {
		r, err := rec.toReminder()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// encodeFields/decodeFields serialize the schedule fields for the SQL drivers,
// which keep them in a single JSON column.
func encodeFields(f scheduleFields) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeFields(b []byte) (scheduleFields, error) {
	var f scheduleFields
	if len(b) == 0 {
		return f, nil
	}
	err := json.Unmarshal(b, &f)
	return f, err
}

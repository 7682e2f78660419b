package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hray3182/pengingat/internal/models"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound           = errors.New("reminder not found")
	ErrPositionOutOfRange = errors.New("position out of range")
	ErrInvalidSchedule    = errors.New("invalid schedule")
	// ErrPersist marks a mutation that was applied in memory but could not be
	// written to the snapshot store.
	ErrPersist = errors.New("failed to persist reminders")
)

// PositionError reports a position outside 1..Count for an owner.
type PositionError struct {
	Position int
	Count    int
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position %d out of range, owner has %d reminder(s)", e.Position, e.Count)
}

func (e *PositionError) Unwrap() error { return ErrPositionOutOfRange }

// Snapshotter persists the whole ordered store at once.
type Snapshotter interface {
	Load(ctx context.Context) ([]*models.Reminder, error)
	Save(ctx context.Context, reminders []*models.Reminder) error
}

// ReminderRepository keeps every reminder in creation order. Positions shown
// to users are derived from that order on each call and never stored.
type ReminderRepository struct {
	mu        sync.Mutex
	reminders []*models.Reminder
	store     Snapshotter
	clock     clock.Clock
	log       zerolog.Logger
}

// Open loads the snapshot once; later mutations rewrite it in full.
func Open(ctx context.Context, store Snapshotter, clk clock.Clock, log zerolog.Logger) (*ReminderRepository, error) {
	reminders, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}
	return &ReminderRepository{
		reminders: reminders,
		store:     store,
		clock:     clk,
		log:       log.With().Str("component", "repository").Logger(),
	}, nil
}

func (r *ReminderRepository) Create(ctx context.Context, owner string, sched models.Schedule, taskText string) (*models.Reminder, error) {
	if err := sched.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	now := r.clock.Now()
	reminder := &models.Reminder{
		ID:        uuid.New(),
		Owner:     owner,
		TaskText:  taskText,
		Schedule:  sched,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders = append(r.reminders, reminder)
	return reminder.Clone(), r.persist(ctx)
}

func (r *ReminderRepository) ListByOwner(ctx context.Context, owner string) []*models.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Reminder
	for _, reminder := range r.reminders {
		if reminder.Owner == owner {
			out = append(out, reminder.Clone())
		}
	}
	return out
}

// ResolvePosition returns the reminder at the 1-based position in the owner's list.
func (r *ReminderRepository) ResolvePosition(ctx context.Context, owner string, position int) (*models.Reminder, error) {
	list := r.ListByOwner(ctx, owner)
	if position < 1 || position > len(list) {
		return nil, &PositionError{Position: position, Count: len(list)}
	}
	return list[position-1], nil
}

// Update replaces the stored reminder with the same ID.
func (r *ReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	if err := reminder.Schedule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(reminder.ID)
	if i < 0 {
		return ErrNotFound
	}
	updated := reminder.Clone()
	updated.UpdatedAt = r.clock.Now()
	r.reminders[i] = updated
	return r.persist(ctx)
}

func (r *ReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	r.reminders = append(r.reminders[:i], r.reminders[i+1:]...)
	return r.persist(ctx)
}

// DeleteAllByOwner removes every reminder of owner with a single write and
// returns how many were removed.
func (r *ReminderRepository) DeleteAllByOwner(ctx context.Context, owner string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.reminders[:0]
	removed := 0
	for _, reminder := range r.reminders {
		if reminder.Owner == owner {
			removed++
			continue
		}
		kept = append(kept, reminder)
	}
	for i := len(kept); i < len(r.reminders); i++ {
		r.reminders[i] = nil
	}
	r.reminders = kept

	if removed == 0 {
		return 0, nil
	}
	return removed, r.persist(ctx)
}

// ActiveSnapshot returns copies of all active reminders. Callers may iterate
// it while commands keep mutating the repository.
func (r *ReminderRepository) ActiveSnapshot() []*models.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Reminder
	for _, reminder := range r.reminders {
		if reminder.Active {
			out = append(out, reminder.Clone())
		}
	}
	return out
}

// SaveAll applies a batch of state changes with one snapshot write. Reminders
// deleted or rescheduled since the caller read them are skipped.
func (r *ReminderRepository) SaveAll(ctx context.Context, changed []*models.Reminder) error {
	if len(changed) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	applied := 0
	for _, c := range changed {
		i := r.indexOf(c.ID)
		if i < 0 {
			continue
		}
		cur := r.reminders[i]
		if !cur.Schedule.Equal(c.Schedule) {
			continue
		}
		cur.Active = c.Active
		cur.LastTriggeredAt = c.Clone().LastTriggeredAt
		cur.UpdatedAt = now
		applied++
	}
	if applied == 0 {
		return nil
	}
	return r.persist(ctx)
}

func (r *ReminderRepository) indexOf(id uuid.UUID) int {
	for i, reminder := range r.reminders {
		if reminder.ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with mu held.
func (r *ReminderRepository) persist(ctx context.Context) error {
	if err := r.store.Save(ctx, r.reminders); err != nil {
		r.log.Error().Err(err).Int("reminders", len(r.reminders)).Msg("failed to persist reminders")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

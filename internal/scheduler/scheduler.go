package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hray3182/pengingat/internal/models"
	"github.com/hray3182/pengingat/internal/repository"
	"github.com/hray3182/pengingat/internal/rrule"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"
)

// Gateway delivers a rendered reminder to its owner.
type Gateway interface {
	Send(ctx context.Context, owner, text string) error
}

type Scheduler struct {
	repo    *repository.ReminderRepository
	gateway Gateway
	clock   clock.Clock
	loc     *time.Location
	log     zerolog.Logger

	checkInterval   time.Duration
	startDelay      time.Duration
	deliveryTimeout time.Duration
	notifyCh        chan struct{}
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.checkInterval = d
		}
	}
}

// WithStartDelay sets how long Run waits before the first check.
func WithStartDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.startDelay = d }
}

// WithDeliveryTimeout bounds each gateway call. Zero disables the bound.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.deliveryTimeout = d }
}

func New(repo *repository.ReminderRepository, gateway Gateway, clk clock.Clock, loc *time.Location, log zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:            repo,
		gateway:         gateway,
		clock:           clk,
		loc:             loc,
		log:             log.With().Str("component", "scheduler").Logger(),
		checkInterval:   1 * time.Minute,
		startDelay:      2 * time.Second,
		deliveryTimeout: 30 * time.Second,
		notifyCh:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Run checks for due reminders every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.checkInterval).Msg("scheduler started")
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.startDelay):
	}

	s.Tick(ctx, s.clock.Now())

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx, s.clock.Now())
		case <-s.notifyCh:
			s.log.Debug().Msg("scheduler triggered by notification")
			s.Tick(ctx, s.clock.Now())
		}
	}
}

// Tick fires every active reminder due at now, advances it, and persists all
// advanced reminders with one write. It returns how many reminders fired.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	var fired []*models.Reminder

	for _, r := range s.repo.ActiveSnapshot() {
		due, err := rrule.Next(r.Schedule, r.Reference(), s.loc)
		if err != nil {
			s.log.Error().Err(err).Str("reminder_id", r.ID.String()).Msg("failed to compute next occurrence")
			continue
		}
		if now.Before(due) {
			continue
		}

		if err := s.deliver(ctx, r); err != nil {
			s.log.Warn().Err(err).
				Str("owner", r.Owner).
				Str("reminder_id", r.ID.String()).
				Msg("failed to deliver reminder")
		} else {
			s.log.Info().
				Str("owner", r.Owner).
				Str("reminder_id", r.ID.String()).
				Time("due", due).
				Msg("reminder delivered")
		}

		advance(r, due, now, s.loc)
		fired = append(fired, r)
	}

	if err := s.repo.SaveAll(ctx, fired); err != nil {
		s.log.Error().Err(err).Int("reminders", len(fired)).Msg("failed to save fired reminders")
	}
	return len(fired)
}

// advance moves r past the occurrence that just fired. One-off reminders are
// finished; recurring ones skip to the newest occurrence not after now so a
// long outage yields a single delivery.
func advance(r *models.Reminder, due, now time.Time, loc *time.Location) {
	if !r.Schedule.IsRecurring() {
		r.Active = false
		r.LastTriggeredAt = &due
		return
	}
	last := rrule.Latest(r.Schedule, due, now, loc)
	r.LastTriggeredAt = &last
}

func (s *Scheduler) deliver(ctx context.Context, r *models.Reminder) (err error) {
	if s.deliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deliveryTimeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("gateway panic: %v", p)
		}
	}()
	return s.gateway.Send(ctx, r.Owner, Render(r, s.loc))
}

// Render builds the delivery text for r.
func Render(r *models.Reminder, loc *time.Location) string {
	text := fmt.Sprintf("⏰ **Reminder**\n\n%s", r.TaskText)
	if r.Schedule.IsRecurring() {
		text += fmt.Sprintf("\n\n🔄 %s", rrule.HumanReadable(r.Schedule, loc))
	}
	return text
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hray3182/pengingat/internal/models"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	saved   [][]*models.Reminder
	initial []*models.Reminder
	saveErr error
	loadErr error
}

func (m *memStore) Load(context.Context) ([]*models.Reminder, error) {
	return m.initial, m.loadErr
}

func (m *memStore) Save(_ context.Context, reminders []*models.Reminder) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	snap := make([]*models.Reminder, 0, len(reminders))
	for _, r := range reminders {
		snap = append(snap, r.Clone())
	}
	m.saved = append(m.saved, snap)
	return nil
}

func (m *memStore) last() []*models.Reminder {
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

func newTestRepo(t *testing.T) (*ReminderRepository, *memStore, clock.FakeClock) {
	t.Helper()
	clk := clock.NewFake()
	clk.Set(time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC))
	store := &memStore{}
	repo, err := Open(context.Background(), store, clk, zerolog.Nop())
	require.NoError(t, err)
	return repo, store, clk
}

func tasks(list []*models.Reminder) []string {
	var out []string
	for _, r := range list {
		out = append(out, r.TaskText)
	}
	return out
}

func TestCreatePersistsWholeStore(t *testing.T) {
	ctx := context.Background()
	repo, store, clk := newTestRepo(t)

	r, err := repo.Create(ctx, "100", models.Every(2*time.Hour), "break")
	require.NoError(t, err)
	assert.True(t, r.Active)
	assert.Equal(t, clk.Now(), r.CreatedAt)
	assert.Nil(t, r.LastTriggeredAt)

	_, err = repo.Create(ctx, "200", models.Daily(7, 0), "sarapan")
	require.NoError(t, err)

	require.Len(t, store.saved, 2)
	assert.Equal(t, []string{"break", "sarapan"}, tasks(store.last()))
}

func TestPositionsShiftAfterDelete(t *testing.T) {
	ctx := context.Background()
	repo, _, clk := newTestRepo(t)

	first, err := repo.Create(ctx, "100", models.Daily(7, 0), "first")
	require.NoError(t, err)
	clk.Add(time.Minute)
	_, err = repo.Create(ctx, "200", models.Daily(8, 0), "other owner")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "100", models.Daily(9, 0), "second")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, tasks(repo.ListByOwner(ctx, "100")))

	got, err := repo.ResolvePosition(ctx, "100", 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	require.NoError(t, repo.Delete(ctx, first.ID))

	got, err = repo.ResolvePosition(ctx, "100", 1)
	require.NoError(t, err)
	assert.Equal(t, "second", got.TaskText)
}

func TestResolvePositionOutOfRange(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestRepo(t)
	_, err := repo.Create(ctx, "100", models.Daily(7, 0), "only")
	require.NoError(t, err)

	for _, pos := range []int{0, -1, 2} {
		_, err := repo.ResolvePosition(ctx, "100", pos)
		require.ErrorIs(t, err, ErrPositionOutOfRange)

		var perr *PositionError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, 1, perr.Count)
	}
}

func TestDeleteAllByOwnerLeavesOthers(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newTestRepo(t)

	for _, task := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, "100", models.Daily(7, 0), task)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, "200", models.Daily(7, 0), "keep")
	require.NoError(t, err)
	writes := len(store.saved)

	n, err := repo.DeleteAllByOwner(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, repo.ListByOwner(ctx, "100"))
	assert.Equal(t, []string{"keep"}, tasks(repo.ListByOwner(ctx, "200")))
	assert.Len(t, store.saved, writes+1)

	n, err = repo.DeleteAllByOwner(ctx, "100")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, store.saved, writes+1)
}

func TestUpdateAndDeleteUnknown(t *testing.T) {
	ctx := context.Background()
	repo, _, clk := newTestRepo(t)

	r, err := repo.Create(ctx, "100", models.Daily(7, 0), "old")
	require.NoError(t, err)

	clk.Add(time.Hour)
	r.TaskText = "new"
	r.Schedule = models.Daily(8, 30)
	require.NoError(t, repo.Update(ctx, r))

	got, err := repo.ResolvePosition(ctx, "100", 1)
	require.NoError(t, err)
	assert.Equal(t, "new", got.TaskText)
	assert.Equal(t, models.Daily(8, 30), got.Schedule)
	assert.Equal(t, clk.Now(), got.UpdatedAt)

	require.NoError(t, repo.Delete(ctx, r.ID))
	assert.ErrorIs(t, repo.Delete(ctx, r.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, r), ErrNotFound)
}

func TestInvalidScheduleRejected(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newTestRepo(t)

	bad := []models.Schedule{
		models.Every(-2124095 * time.Hour),
		models.Every(0),
		models.OneOff(time.Time{}),
		models.Daily(24, 0),
		models.Weekly(time.Weekday(9), 9, 0),
	}
	for _, sched := range bad {
		_, err := repo.Create(ctx, "100", sched, "task")
		assert.ErrorIs(t, err, ErrInvalidSchedule, "%+v", sched)
	}
	assert.Empty(t, repo.ListByOwner(ctx, "100"))
	assert.Empty(t, store.saved)

	r, err := repo.Create(ctx, "100", models.Every(2*time.Hour), "break")
	require.NoError(t, err)
	r.Schedule = models.Every(-time.Hour)
	assert.ErrorIs(t, repo.Update(ctx, r), ErrInvalidSchedule)

	got, err := repo.ResolvePosition(ctx, "100", 1)
	require.NoError(t, err)
	assert.Equal(t, models.Every(2*time.Hour), got.Schedule)
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newTestRepo(t)
	_, err := repo.Create(ctx, "100", models.Daily(7, 0), "task")
	require.NoError(t, err)

	repo.ListByOwner(ctx, "100")[0].TaskText = "mutated"
	repo.ActiveSnapshot()[0].Active = false

	got, err := repo.ResolvePosition(ctx, "100", 1)
	require.NoError(t, err)
	assert.Equal(t, "task", got.TaskText)
	assert.True(t, got.Active)
}

func TestSaveAllSingleWriteSkipsStale(t *testing.T) {
	ctx := context.Background()
	repo, store, clk := newTestRepo(t)

	a, err := repo.Create(ctx, "100", models.OneOff(clk.Now().Add(time.Hour)), "a")
	require.NoError(t, err)
	b, err := repo.Create(ctx, "100", models.Every(time.Hour), "b")
	require.NoError(t, err)
	c, err := repo.Create(ctx, "100", models.Every(time.Hour), "c")
	require.NoError(t, err)

	snap := repo.ActiveSnapshot()
	require.Len(t, snap, 3)

	// c is rescheduled and a is deleted while the batch is being built.
	c.Schedule = models.Every(30 * time.Minute)
	require.NoError(t, repo.Update(ctx, c))
	require.NoError(t, repo.Delete(ctx, a.ID))
	writes := len(store.saved)

	fired := clk.Now().Add(time.Hour)
	for _, r := range snap {
		r.Active = r.Schedule.IsRecurring()
		r.LastTriggeredAt = &fired
	}
	require.NoError(t, repo.SaveAll(ctx, snap))
	assert.Len(t, store.saved, writes+1)

	list := repo.ListByOwner(ctx, "100")
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	require.NotNil(t, list[0].LastTriggeredAt)
	assert.Equal(t, fired, *list[0].LastTriggeredAt)
	assert.Nil(t, list[1].LastTriggeredAt)
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newTestRepo(t)
	store.saveErr = errors.New("disk full")

	r, err := repo.Create(ctx, "100", models.Daily(7, 0), "task")
	assert.ErrorIs(t, err, ErrPersist)
	require.NotNil(t, r)
	assert.Len(t, repo.ListByOwner(ctx, "100"), 1)
}

func TestOpenLoadsSnapshot(t *testing.T) {
	store := &memStore{initial: []*models.Reminder{
		{Owner: "100", TaskText: "from disk", Schedule: models.Daily(7, 0), Active: true},
	}}
	repo, err := Open(context.Background(), store, clock.NewFake(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"from disk"}, tasks(repo.ListByOwner(context.Background(), "100")))

	_, err = Open(context.Background(), &memStore{loadErr: errors.New("boom")}, clock.NewFake(), zerolog.Nop())
	assert.Error(t, err)
}

package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/pengingat/internal/models"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

func sampleReminders() []*models.Reminder {
	created := time.Date(2026, 10, 15, 10, 0, 0, 0, wib)
	fired := created.Add(2 * time.Hour)
	return []*models.Reminder{
		{ID: uuid.New(), Owner: "100", TaskText: "minum air", Schedule: models.OneOff(created.Add(4 * time.Hour)),
			Active: true, CreatedAt: created, UpdatedAt: created},
		{ID: uuid.New(), Owner: "100", TaskText: "break", Schedule: models.Every(2 * time.Hour),
			Active: true, CreatedAt: created, LastTriggeredAt: &fired, UpdatedAt: fired},
		{ID: uuid.New(), Owner: "200", TaskText: "olahraga", Schedule: models.Daily(7, 30),
			Active: true, CreatedAt: created, UpdatedAt: created},
		{ID: uuid.New(), Owner: "100", TaskText: "lari pagi", Schedule: models.Weekly(time.Sunday, 6, 15),
			Active: false, CreatedAt: created, UpdatedAt: created},
	}
}

func assertSameReminders(t *testing.T, want, got []*models.Reminder) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Owner, g.Owner)
		assert.Equal(t, w.TaskText, g.TaskText)
		assert.True(t, w.Schedule.Equal(g.Schedule), "schedule %d: %+v vs %+v", i, w.Schedule, g.Schedule)
		assert.Equal(t, w.Active, g.Active)
		assert.True(t, w.CreatedAt.Equal(g.CreatedAt))
		assert.True(t, w.UpdatedAt.Equal(g.UpdatedAt))
		if w.LastTriggeredAt == nil {
			assert.Nil(t, g.LastTriggeredAt)
		} else {
			require.NotNil(t, g.LastTriggeredAt)
			assert.True(t, w.LastTriggeredAt.Equal(*g.LastTriggeredAt))
		}
	}
}

func TestFileSnapshotterRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "reminders.json")
	s, err := NewFileSnapshotter(path)
	require.NoError(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	want := sampleReminders()
	require.NoError(t, s.Save(ctx, want))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assertSameReminders(t, want, got)
}

func TestFileSnapshotterRecordShape(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reminders.json")
	s, err := NewFileSnapshotter(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleReminders()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 4)

	assert.Equal(t, "one_off", raw[0]["scheduleType"])
	assert.Contains(t, raw[0]["scheduleFields"], "triggerAt")
	assert.Equal(t, "interval", raw[1]["scheduleType"])
	assert.Equal(t, float64(2*time.Hour/time.Millisecond), raw[1]["scheduleFields"].(map[string]any)["intervalMs"])
	assert.Equal(t, "daily", raw[2]["scheduleType"])
	assert.Equal(t, map[string]any{"hour": float64(7), "minute": float64(30)}, raw[2]["scheduleFields"])
	assert.Equal(t, "weekly", raw[3]["scheduleType"])
	assert.Equal(t, float64(0), raw[3]["scheduleFields"].(map[string]any)["weekday"])
	assert.Nil(t, raw[0]["lastTriggeredAt"])
	for _, key := range []string{"id", "owner", "taskText", "active", "createdAt", "updatedAt"} {
		assert.Contains(t, raw[0], key)
	}
}

func TestFileSnapshotterLoadEdgeCases(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	s, err := NewFileSnapshotter(empty)
	require.NoError(t, err)
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Records written without an id still load and get one.
	legacy := filepath.Join(dir, "legacy.json")
	require.NoError(t, os.WriteFile(legacy, []byte(`[{"owner":"100","taskText":"t","scheduleType":"daily",
		"scheduleFields":{"hour":7,"minute":0},"active":true,"createdAt":"2026-10-15T10:00:00+07:00",
		"lastTriggeredAt":null,"updatedAt":"2026-10-15T10:00:00+07:00"}]`), 0o600))
	s, err = NewFileSnapshotter(legacy)
	require.NoError(t, err)
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.Equal(t, models.Daily(7, 0), got[0].Schedule)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`[{"scheduleType":"hourly"}]`), 0o600))
	s, err = NewFileSnapshotter(broken)
	require.NoError(t, err)
	_, err = s.Load(ctx)
	assert.ErrorContains(t, err, "unknown schedule type")

	_, err = NewFileSnapshotter(" ")
	assert.Error(t, err)
}

func TestSQLiteSnapshotterRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	want := sampleReminders()
	require.NoError(t, s.Save(ctx, want))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assertSameReminders(t, want, got)

	// A second save replaces the table, keeping the new order.
	want = []*models.Reminder{want[2], want[0]}
	require.NoError(t, s.Save(ctx, want))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assertSameReminders(t, want, got)
}

func TestPostgresSnapshotterSave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	reminders := sampleReminders()[:2]
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reminders")).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reminders")).
		WithArgs(reminders[0].ID.String(), 0, "100", "minum air", "one_off", pgxmock.AnyArg(), true,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reminders")).
		WithArgs(reminders[1].ID.String(), 1, "100", "break", "interval", `{"intervalMs":7200000}`, true,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresSnapshotter(mock).Save(context.Background(), reminders))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSnapshotterLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	created := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)
	fired := created.Add(time.Hour)
	rows := pgxmock.NewRows([]string{"id", "owner", "task_text", "schedule_type", "schedule_fields", "active",
		"created_at", "last_triggered_at", "updated_at"}).
		AddRow(id.String(), "100", "standup", "weekly", []byte(`{"weekday":1,"hour":9,"minute":0}`), true,
			created, &fired, fired)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reminders ORDER BY seq")).WillReturnRows(rows)

	got, err := NewPostgresSnapshotter(mock).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, models.Weekly(time.Monday, 9, 0), got[0].Schedule)
	require.NotNil(t, got[0].LastTriggeredAt)
	assert.True(t, got[0].LastTriggeredAt.Equal(fired))
	assert.NoError(t, mock.ExpectationsWereMet())
}

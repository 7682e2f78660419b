package rrule

import (
	"testing"
	"time"

	"github.com/hray3182/pengingat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

func TestNextDaily(t *testing.T) {
	s := models.Daily(9, 0)

	// 2026-10-15 is a Thursday.
	ref := time.Date(2026, 10, 15, 10, 0, 0, 0, wib)
	next, err := Next(s, ref, wib)
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2026, 10, 16, 9, 0, 0, 0, wib)), "got %s", next)

	ref = time.Date(2026, 10, 15, 8, 59, 30, 0, wib)
	next, err = Next(s, ref, wib)
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2026, 10, 15, 9, 0, 0, 0, wib)), "got %s", next)

	// Strictly after: an occurrence equal to ref is skipped.
	ref = time.Date(2026, 10, 15, 9, 0, 0, 0, wib)
	next, err = Next(s, ref, wib)
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2026, 10, 16, 9, 0, 0, 0, wib)), "got %s", next)
}

func TestNextWeekly(t *testing.T) {
	s := models.Weekly(time.Monday, 18, 30)

	ref := time.Date(2026, 10, 15, 10, 0, 0, 0, wib)
	next, err := Next(s, ref, wib)
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2026, 10, 19, 18, 30, 0, 0, wib)), "got %s", next)

	next, err = Next(s, next, wib)
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2026, 10, 26, 18, 30, 0, 0, wib)), "got %s", next)
}

func TestNextIntervalAndOneOff(t *testing.T) {
	ref := time.Date(2026, 10, 15, 10, 0, 0, 0, wib)

	next, err := Next(models.Every(2*time.Hour), ref, wib)
	require.NoError(t, err)
	assert.Equal(t, ref.Add(2*time.Hour), next)

	at := ref.Add(90 * time.Minute)
	next, err = Next(models.OneOff(at), ref, wib)
	require.NoError(t, err)
	assert.Equal(t, at, next)

	_, err = Next(models.Every(0), ref, wib)
	assert.Error(t, err)
}

func TestLatest(t *testing.T) {
	fired := time.Date(2026, 10, 15, 10, 0, 0, 0, wib)

	t.Run("interval keeps phase", func(t *testing.T) {
		now := fired.Add(7*time.Hour + 10*time.Minute)
		got := Latest(models.Every(2*time.Hour), fired, now, wib)
		assert.Equal(t, fired.Add(6*time.Hour), got)
	})

	t.Run("interval without gap", func(t *testing.T) {
		now := fired.Add(30 * time.Second)
		got := Latest(models.Every(2*time.Hour), fired, now, wib)
		assert.Equal(t, fired, got)
	})

	t.Run("daily after days offline", func(t *testing.T) {
		daily := time.Date(2026, 10, 15, 9, 0, 0, 0, wib)
		now := time.Date(2026, 10, 18, 12, 0, 0, 0, wib)
		got := Latest(models.Daily(9, 0), daily, now, wib)
		assert.True(t, got.Equal(time.Date(2026, 10, 18, 9, 0, 0, 0, wib)), "got %s", got)
	})
}

func TestHumanReadable(t *testing.T) {
	tests := []struct {
		name string
		s    models.Schedule
		want string
	}{
		{"one off", models.OneOff(time.Date(2026, 10, 15, 14, 30, 0, 0, wib)), "14:30"},
		{"two hours", models.Every(2 * time.Hour), "every 2 hours"},
		{"one hour", models.Every(time.Hour), "every hour"},
		{"ninety minutes", models.Every(90 * time.Minute), "every 90 minutes"},
		{"three days", models.Every(72 * time.Hour), "every 3 days"},
		{"daily", models.Daily(7, 5), "every day at 07:05"},
		{"weekly", models.Weekly(time.Friday, 20, 0), "every friday at 20:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanReadable(tt.s, wib))
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SU;BYHOUR=8;BYMINUTE=15;BYSECOND=0", String(models.Weekly(time.Sunday, 8, 15)))
	assert.Equal(t, "", String(models.Every(time.Minute)))
}

package cron_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/covergrid/tenantcore/pkg/cron"
)

func TestEvery(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	s := cron.Every(15 * time.Minute)
	assert.Equal(t, from.Add(15*time.Minute), s.Next(from))
	assert.Equal(t, "every 15m0s", s.String())
}

func TestHourlySchedule(t *testing.T) {
	t.Parallel()

	t.Run("before the minute fires the same hour", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 9, 10, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
			cron.HourlyAt(30).Next(from))
	})

	t.Run("at or past the minute rolls to the next hour", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
			cron.HourlyAt(30).Next(from))
	})

	t.Run("hour rollover crosses midnight", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 23, 45, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
			cron.Hourly().Next(from))
	})
}

func TestDailySchedule(t *testing.T) {
	t.Parallel()

	t.Run("before the clock time fires today", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 3, 10, 3, 30, 0, 0, time.UTC),
			cron.DailyAt(3, 30).Next(from))
	})

	t.Run("past the clock time fires tomorrow", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 3, 11, 3, 30, 0, 0, time.UTC),
			cron.DailyAt(3, 30).Next(from))
	})

	t.Run("exactly at the clock time fires tomorrow", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 3, 30, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 3, 11, 3, 30, 0, 0, time.UTC),
			cron.DailyAt(3, 30).Next(from))
	})
}

func TestWeeklySchedule(t *testing.T) {
	t.Parallel()

	// 2025-03-10 is a Monday.
	monday := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("later in the same week", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t,
			time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC),
			cron.WeeklyOn(time.Friday, 6, 0).Next(monday))
	})

	t.Run("earlier weekday wraps to next week", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t,
			time.Date(2025, 3, 16, 6, 0, 0, 0, time.UTC),
			cron.WeeklyOn(time.Sunday, 6, 0).Next(monday))
	})

	t.Run("same weekday with passed time wraps a full week", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t,
			time.Date(2025, 3, 17, 6, 0, 0, 0, time.UTC),
			cron.WeeklyOn(time.Monday, 6, 0).Next(monday))
	})

	t.Run("same weekday with pending time fires today", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t,
			time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
			cron.WeeklyOn(time.Monday, 18, 0).Next(monday))
	})
}

func TestMonthlySchedule(t *testing.T) {
	t.Parallel()

	t.Run("later in the same month", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC),
			cron.MonthlyOn(15, 2, 0).Next(from))
	})

	t.Run("passed day rolls to next month", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 4, 15, 2, 0, 0, 0, time.UTC),
			cron.MonthlyOn(15, 2, 0).Next(from))
	})

	t.Run("december rolls into january", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2026, 1, 15, 2, 0, 0, 0, time.UTC),
			cron.MonthlyOn(15, 2, 0).Next(from))
	})

	t.Run("day 31 clamps to shorter months", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2025, 2, 28, 2, 0, 0, 0, time.UTC),
			cron.MonthlyOn(31, 2, 0).Next(from))
	})

	t.Run("day 31 clamps to leap-year february 29", func(t *testing.T) {
		t.Parallel()

		from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t,
			time.Date(2024, 2, 29, 2, 0, 0, 0, time.UTC),
			cron.MonthlyOn(31, 2, 0).Next(from))
	})
}

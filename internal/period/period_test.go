package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKey(t *testing.T) {
	// 23:30 New York is already the next day in UTC.
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	late := time.Date(2024, 6, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-06-11", DayKey(late))
	assert.Equal(t, "2024-06-10", DayKey(time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)))
}

func TestWeekStartUTC(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday midnight", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"wednesday", time.Date(2024, 6, 12, 15, 4, 5, 0, time.UTC), time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2024, 6, 16, 23, 59, 59, 0, time.UTC), time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"across month boundary", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 29, 0, 0, 0, 0, time.UTC)},
		{"across year boundary", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, WeekStartUTC(tc.in).Equal(tc.want), "got %s", WeekStartUTC(tc.in))
		})
	}
}

func TestWeekKey(t *testing.T) {
	assert.Equal(t, "2024-06-10", WeekKey(time.Date(2024, 6, 13, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-06-17", WeekKey(time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)))
}

func TestSameUTCDay(t *testing.T) {
	a := time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC)
	b := time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC)
	c := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameUTCDay(a, b))
	assert.False(t, SameUTCDay(b, c))
}

func TestSameUTCWeek(t *testing.T) {
	sunday := time.Date(2024, 6, 16, 23, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 6, 17, 1, 0, 0, 0, time.UTC)

	assert.True(t, SameUTCWeek(time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC), sunday))
	assert.False(t, SameUTCWeek(sunday, monday))
}

func TestDaysBetween(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	t.Run("consecutive days", func(t *testing.T) {
		a := DateIn(time.Date(2024, 6, 10, 22, 0, 0, 0, loc), loc)
		b := DateIn(time.Date(2024, 6, 11, 1, 0, 0, 0, loc), loc)
		assert.Equal(t, 1, DaysBetween(a, b))
	})

	t.Run("same day", func(t *testing.T) {
		a := DateIn(time.Date(2024, 6, 10, 1, 0, 0, 0, loc), loc)
		b := DateIn(time.Date(2024, 6, 10, 23, 0, 0, 0, loc), loc)
		assert.Equal(t, 0, DaysBetween(a, b))
	})

	t.Run("spring forward is still one day", func(t *testing.T) {
		// DST starts 2024-03-10 in New York; that day is 23 hours long.
		a := DateIn(time.Date(2024, 3, 9, 20, 0, 0, 0, loc), loc)
		b := DateIn(time.Date(2024, 3, 10, 20, 0, 0, 0, loc), loc)
		assert.Equal(t, 1, DaysBetween(a, b))
	})

	t.Run("fall back is still one day", func(t *testing.T) {
		// DST ends 2024-11-03 in New York; that day is 25 hours long.
		a := DateIn(time.Date(2024, 11, 2, 20, 0, 0, 0, loc), loc)
		b := DateIn(time.Date(2024, 11, 3, 20, 0, 0, 0, loc), loc)
		assert.Equal(t, 1, DaysBetween(a, b))
	})

	t.Run("utc instant resolves to reference date", func(t *testing.T) {
		// 03:00 UTC is still the previous evening in New York.
		utcMorning := time.Date(2024, 6, 11, 3, 0, 0, 0, time.UTC)
		got := DateIn(utcMorning, loc)
		assert.Equal(t, CivilDate{Year: 2024, Month: time.June, Day: 10}, got)
	})
}

func TestNextWeekStartUTC(t *testing.T) {
	wednesday := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	assert.True(t, NextWeekStartUTC(wednesday).Equal(time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)))

	// Exactly at a week start the next fire is a full week out.
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, NextWeekStartUTC(monday).Equal(time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)))
}

package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakAPI/internal/types/challenge"
)

func tp(t time.Time) *time.Time { return &t }

func TestCompletedInPeriodDaily(t *testing.T) {
	now := time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC)

	assert.False(t, completedInPeriod(challenge.TypeDaily, nil, now))
	assert.True(t, completedInPeriod(challenge.TypeDaily, tp(time.Date(2024, 6, 11, 1, 0, 0, 0, time.UTC)), now))

	// Yesterday's completion no longer counts: the challenge is eligible again.
	assert.False(t, completedInPeriod(challenge.TypeDaily, tp(time.Date(2024, 6, 10, 23, 59, 0, 0, time.UTC)), now))
}

func TestCompletedInPeriodWeekly(t *testing.T) {
	// 2024-06-11 is a Tuesday; its week starts Monday 2024-06-10.
	now := time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC)

	assert.True(t, completedInPeriod(challenge.TypeWeekly, tp(time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC)), now))
	assert.False(t, completedInPeriod(challenge.TypeWeekly, tp(time.Date(2024, 6, 9, 23, 0, 0, 0, time.UTC)), now))
}

func TestNextStreakFirstCompletion(t *testing.T) {
	streak, bumped := nextStreak(0, nil, time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, 1, streak)
	assert.True(t, bumped)
}

func TestNextStreakConsecutiveDays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	last := time.Date(2024, 6, 10, 22, 0, 0, 0, loc)
	now := time.Date(2024, 6, 11, 7, 0, 0, 0, loc)

	streak, bumped := nextStreak(2, tp(last), now, loc)
	assert.Equal(t, 3, streak)
	assert.True(t, bumped)
}

func TestNextStreakBrokenResetsToOne(t *testing.T) {
	last := time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC)

	streak, bumped := nextStreak(9, tp(last), now, time.UTC)
	assert.Equal(t, 1, streak)
	assert.True(t, bumped)
}

func TestNextStreakSameDayNoBump(t *testing.T) {
	last := time.Date(2024, 6, 11, 8, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 11, 20, 0, 0, 0, time.UTC)

	streak, bumped := nextStreak(3, tp(last), now, time.UTC)
	assert.Equal(t, 3, streak)
	assert.False(t, bumped)
}

func TestNextStreakReferenceZoneDrawsTheBoundary(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Both instants are 2024-06-11 in UTC, but New York is still on the
	// evening of the 10th for the first one.
	last := time.Date(2024, 6, 11, 2, 0, 0, 0, time.UTC)  // 2024-06-10 22:00 EDT
	now := time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)  // 2024-06-11 10:00 EDT

	streak, bumped := nextStreak(4, tp(last), now, loc)
	assert.Equal(t, 5, streak)
	assert.True(t, bumped)
}

func TestIsRetryableTxError(t *testing.T) {
	assert.True(t, isRetryableTxError(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isRetryableTxError(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, isRetryableTxError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isRetryableTxError(errors.New("plain")))
}

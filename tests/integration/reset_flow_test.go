package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakAPI/services"
	"peakAPI/tests/helpers"
)

func TestWeeklyResetZeroesOncePerWeek(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	helpers.ClearResetMarkers(t, pool)

	leaderboardService := services.NewLeaderboardService(pool, nil)

	clerkID := helpers.CreateTestUser(t, pool, 40, 100, 2, nil)

	ctx := context.Background()
	now := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC) // Tuesday

	first, err := leaderboardService.MaybeResetWeekly(ctx, now)
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.GreaterOrEqual(t, first.UsersReset, 1)

	// Weekly score is gone, all-time score untouched.
	var weeklyXP, totalXP int
	err = pool.QueryRow(ctx, `SELECT weekly_xp, total_xp FROM users WHERE clerk_id = $1`, clerkID).Scan(&weeklyXP, &totalXP)
	require.NoError(t, err)
	assert.Equal(t, 0, weeklyXP)
	assert.Equal(t, 100, totalXP)

	// Second attempt inside the same week is a no-op.
	second, err := leaderboardService.MaybeResetWeekly(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, 0, second.UsersReset)

	// Next Monday a reset is due again.
	third, err := leaderboardService.MaybeResetWeekly(ctx, time.Date(2024, 6, 17, 0, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, third.Skipped)
}

func TestLastResetAt(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	helpers.ClearResetMarkers(t, pool)

	leaderboardService := services.NewLeaderboardService(pool, nil)
	ctx := context.Background()

	none, err := leaderboardService.LastResetAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	now := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)
	_, err = leaderboardService.MaybeResetWeekly(ctx, now)
	require.NoError(t, err)

	last, err := leaderboardService.LastResetAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(now))
}

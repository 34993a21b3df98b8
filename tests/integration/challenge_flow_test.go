package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakAPI/internal/apperr"
	"peakAPI/services"
	"peakAPI/tests/helpers"
)

// Tuesday 2024-06-11 in a fixed week; Monday is 2024-06-10.
var (
	mondayEvening  = time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC)
	tuesdayMorning = time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)
	wednesday      = time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC)
)

func TestCompleteChallengeAwardsOncePerDay(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	challengeService := services.NewChallengeService(pool, userService)

	// User mid-streak: completed something Monday, streak 2.
	clerkID := helpers.CreateTestUser(t, pool, 40, 100, 2, &mondayEvening)
	challengeID := helpers.CreateTestChallenge(t, pool, "daily", 10)

	ctx := context.Background()

	first, err := challengeService.CompleteChallenge(ctx, clerkID, challengeID, tuesdayMorning)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	assert.Equal(t, 50, first.WeeklyXP)
	assert.Equal(t, 110, first.TotalXP)
	assert.Equal(t, 3, first.Streak)

	// Immediate repeat in the same period: identical snapshot, no award.
	second, err := challengeService.CompleteChallenge(ctx, clerkID, challengeID, tuesdayMorning.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDailyChallengeEligibleAgainNextDay(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	challengeService := services.NewChallengeService(pool, userService)

	clerkID := helpers.CreateTestUser(t, pool, 0, 0, 0, nil)
	challengeID := helpers.CreateTestChallenge(t, pool, "daily", 10)

	ctx := context.Background()

	day1, err := challengeService.CompleteChallenge(ctx, clerkID, challengeID, tuesdayMorning)
	require.NoError(t, err)
	assert.Equal(t, 10, day1.TotalXP)
	assert.Equal(t, 1, day1.Streak)

	day2, err := challengeService.CompleteChallenge(ctx, clerkID, challengeID, wednesday)
	require.NoError(t, err)
	assert.Equal(t, 20, day2.TotalXP)
	assert.Equal(t, 20, day2.WeeklyXP)
	assert.Equal(t, 2, day2.Streak)
}

func TestSameDayTwoChallengesBumpStreakOnce(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	challengeService := services.NewChallengeService(pool, userService)

	clerkID := helpers.CreateTestUser(t, pool, 0, 0, 0, nil)
	weeklyA := helpers.CreateTestChallenge(t, pool, "weekly", 50)
	weeklyB := helpers.CreateTestChallenge(t, pool, "weekly", 30)

	ctx := context.Background()

	first, err := challengeService.CompleteChallenge(ctx, clerkID, weeklyA, tuesdayMorning)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Streak)

	second, err := challengeService.CompleteChallenge(ctx, clerkID, weeklyB, tuesdayMorning.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 80, second.TotalXP)
	assert.Equal(t, 1, second.Streak, "streak bumps at most once per day")
}

func TestBrokenStreakRestartsAtOne(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	challengeService := services.NewChallengeService(pool, userService)

	// Last completion over a week ago, streak was 9.
	staleCompletion := tuesdayMorning.AddDate(0, 0, -9)
	clerkID := helpers.CreateTestUser(t, pool, 0, 200, 9, &staleCompletion)
	challengeID := helpers.CreateTestChallenge(t, pool, "daily", 10)

	resp, err := challengeService.CompleteChallenge(context.Background(), clerkID, challengeID, tuesdayMorning)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Streak)
}

func TestCompleteUnknownChallengeNotFound(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	challengeService := services.NewChallengeService(pool, userService)

	clerkID := helpers.CreateTestUser(t, pool, 0, 0, 0, nil)

	_, err := challengeService.CompleteChallenge(context.Background(), clerkID, uuid.New(), tuesdayMorning)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDashboardMarksCompletedChallenges(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	challengeService := services.NewChallengeService(pool, userService)

	clerkID := helpers.CreateTestUser(t, pool, 0, 0, 0, nil)

	ctx := context.Background()
	now := tuesdayMorning

	dashboard, err := challengeService.GetDashboard(ctx, clerkID, now)
	require.NoError(t, err)

	if len(dashboard.Daily) == 0 {
		t.Skip("no daily challenges seeded in test database")
	}

	target := dashboard.Daily[0]
	assert.False(t, target.Completed)

	_, err = challengeService.CompleteChallenge(ctx, clerkID, target.ChallengeID, now)
	require.NoError(t, err)

	after, err := challengeService.GetDashboard(ctx, clerkID, now)
	require.NoError(t, err)
	for _, status := range after.Daily {
		if status.ChallengeID == target.ChallengeID {
			assert.True(t, status.Completed)
		}
	}
}

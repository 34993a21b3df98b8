package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// SetupTestDB connects to the test database, or skips the test when no
// database is configured. Point TEST_DATABASE_URL at a throwaway database:
// the reset tests zero every user's weekly XP.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes rows created by the helpers below.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'"); err != nil {
		t.Logf("Warning: failed to clean up test users: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM challenges WHERE title LIKE 'Test %'"); err != nil {
		t.Logf("Warning: failed to clean up test challenges: %v", err)
	}
	pool.Close()
}

// CreateTestUser inserts a user with the given aggregates and returns its
// clerk ID.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool, weeklyXP, totalXP, streak int, lastCompletedAt *time.Time) string {
	clerkID := "user_test_" + uuid.NewString()
	email := fmt.Sprintf("test+%s@example.com", uuid.NewString()[:8])

	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, clerk_id, email, username, weekly_xp, total_xp, streak, last_challenge_completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), clerkID, email, "testuser", weeklyXP, totalXP, streak, lastCompletedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return clerkID
}

// CreateTestChallenge inserts a challenge and returns its ID.
func CreateTestChallenge(t *testing.T, pool *pgxpool.Pool, challengeType string, points int) uuid.UUID {
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO challenges (id, type, title, description, points)
		VALUES ($1, $2, $3, 'integration test challenge', $4)`,
		id, challengeType, "Test "+id.String()[:8], points)
	if err != nil {
		t.Fatalf("Failed to create test challenge: %v", err)
	}
	return id
}

// ClearResetMarkers empties the reset log so reset tests start from a
// known state.
func ClearResetMarkers(t *testing.T, pool *pgxpool.Pool) {
	if _, err := pool.Exec(context.Background(), "DELETE FROM leaderboard_resets"); err != nil {
		t.Fatalf("Failed to clear reset markers: %v", err)
	}
}

// MockClerkWebhookPayload builds a minimal Clerk webhook body for the given
// event type and clerk user id.
func MockClerkWebhookPayload(eventType, clerkID string) []byte {
	return []byte(fmt.Sprintf(`{
		"type": %q,
		"object": "event",
		"data": {
			"id": %q,
			"username": "testuser",
			"first_name": "Test",
			"last_name": "User",
			"image_url": "https://example.com/avatar.png",
			"email_addresses": [
				{"id": "idn_1", "email_address": "test.user@example.com", "verification": {"status": "verified"}}
			]
		}
	}`, eventType, clerkID))
}

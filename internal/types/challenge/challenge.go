package challenge

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChallengeType string

const (
	TypeDaily  ChallengeType = "daily"
	TypeWeekly ChallengeType = "weekly"
)

// Normalize maps the stored type string onto a known ChallengeType.
// Unknown values fall back to weekly, same as the dashboard grouping.
func Normalize(t string) ChallengeType {
	if strings.EqualFold(t, string(TypeDaily)) {
		return TypeDaily
	}
	return TypeWeekly
}

type Challenge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Points      int       `json:"points" db:"points"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UserChallenge is the per-(user, challenge) progress row. One row per pair,
// created lazily on the first completion attempt. StreakDelta is a legacy
// counter kept for client compatibility; the engine never reads it back.
type UserChallenge struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	AssignedAt  time.Time  `json:"assigned_at" db:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	StreakDelta int        `json:"streak_delta" db:"streak_delta"`
}

// ChallengeStatus is a rotation entry joined with the user's progress,
// ready for the dashboard.
type ChallengeStatus struct {
	UserChallengeID *uuid.UUID `json:"user_challenge_id"`
	ChallengeID     uuid.UUID  `json:"challenge_id"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Points          int        `json:"points"`
	Completed       bool       `json:"completed"`
	StreakDelta     int        `json:"streak_delta"`
}

type DashboardChallengesResponse struct {
	Daily  []*ChallengeStatus `json:"daily"`
	Weekly []*ChallengeStatus `json:"weekly"`
}

// CompleteChallengeResponse is the post-mutation aggregate snapshot. A repeat
// completion inside the same rotation period returns the same values again.
type CompleteChallengeResponse struct {
	Completed bool `json:"completed"`
	WeeklyXP  int  `json:"weekly_xp"`
	TotalXP   int  `json:"total_xp"`
	Streak    int  `json:"streak"`
}

type JoinChallengeResponse struct {
	Message         string    `json:"message"`
	UserChallengeID uuid.UUID `json:"user_challenge_id"`
}

package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodAllTime Period = "alltime"
)

type LeaderboardEntry struct {
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Username string    `json:"username" db:"username"`
	ImageURL *string   `json:"image_url" db:"image_url"`
	XP       int       `json:"xp" db:"xp"`
	Streak   int       `json:"streak" db:"streak"`
	Rank     int       `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Period       Period              `json:"period"`
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}

// LeaderboardReset is one row of the append-only reset log. Only the most
// recent row is ever consulted.
type LeaderboardReset struct {
	ID      int64     `json:"id" db:"id"`
	ResetAt time.Time `json:"reset_at" db:"reset_at"`
}

// ResetResult reports the outcome of a weekly reset attempt. UsersReset is 0
// when the week had already been reset and the call was a no-op.
type ResetResult struct {
	UsersReset int       `json:"users_reset"`
	ResetAt    time.Time `json:"reset_at"`
	Skipped    bool      `json:"skipped"`
}

package user

import "time"

type User struct {
	ID                       string     `json:"id"`
	ClerkID                  string     `json:"clerkId"`
	Email                    string     `json:"email"`
	Username                 string     `json:"username"`
	FirstName                string     `json:"firstName"`
	LastName                 string     `json:"lastName"`
	ImageURL                 string     `json:"imageUrl,omitempty"`
	EmailVerified            bool       `json:"emailVerified"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
	WeeklyXP                 int        `json:"weekly_xp"`
	TotalXP                  int        `json:"total_xp"`
	Streak                   int        `json:"streak"`
	LastChallengeCompletedAt *time.Time `json:"last_challenge_completed_at,omitempty"`
}

type CreateUserRequest struct {
	ClerkID   string `json:"clerkId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	ImageURL  *string `json:"imageUrl,omitempty"`
}

// UserStats is the profile stats block shown on the dashboard header.
type UserStats struct {
	WeeklyXP            int        `json:"weekly_xp"`
	TotalXP             int        `json:"total_xp"`
	Streak              int        `json:"streak"`
	ChallengesCompleted int        `json:"challenges_completed"`
	LastCompletedAt     *time.Time `json:"last_completed_at,omitempty"`
}

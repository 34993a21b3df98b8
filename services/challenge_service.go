package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"peakAPI/internal/apperr"
	"peakAPI/internal/period"
	"peakAPI/internal/rotation"
	"peakAPI/internal/types/challenge"
	"peakAPI/internal/types/notification"
)

const (
	// DailyRotationCount and WeeklyRotationCount are how many challenges of
	// each class the dashboard shows per rotation period.
	DailyRotationCount  = 2
	WeeklyRotationCount = 2

	// maxCompleteAttempts bounds the retry loop around the completion
	// transaction when Postgres reports a serialization conflict.
	maxCompleteAttempts = 3
)

// PushProvider delivers push notifications. Satisfied by notification.FCMService.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// streakMilestones are streak lengths worth a push notification.
var streakMilestones = map[int]bool{7: true, 30: true, 100: true}

type ChallengeService struct {
	db          *pgxpool.Pool
	userService *UserService
	refZone     *time.Location
	push        PushProvider
}

func NewChallengeService(db *pgxpool.Pool, userService *UserService) *ChallengeService {
	return &ChallengeService{
		db:          db,
		userService: userService,
		refZone:     period.ReferenceLocation(),
	}
}

// SetPushProvider injects the push backend. Without one, milestone pushes are
// silently skipped.
func (s *ChallengeService) SetPushProvider(p PushProvider) {
	s.push = p
}

// completedInPeriod is the derived-state predicate: a daily challenge counts
// as completed only if completed_at falls on now's UTC calendar date, a
// weekly one only if it falls in now's UTC ISO week. The timestamp is the
// single source of truth; no completion flag is stored.
func completedInPeriod(challengeType challenge.ChallengeType, completedAt *time.Time, now time.Time) bool {
	if completedAt == nil {
		return false
	}
	if challengeType == challenge.TypeDaily {
		return period.SameUTCDay(*completedAt, now)
	}
	return period.SameUTCWeek(*completedAt, now)
}

// nextStreak applies the streak transition for a completion at now, given the
// user's current streak and last completion instant. Day boundaries are drawn
// in the reference timezone. The streak bumps at most once per reference day
// no matter how many challenges are completed.
func nextStreak(current int, lastCompletedAt *time.Time, now time.Time, loc *time.Location) (streak int, bumped bool) {
	if lastCompletedAt == nil {
		return 1, true
	}

	daysDiff := period.DaysBetween(period.DateIn(*lastCompletedAt, loc), period.DateIn(now, loc))
	switch {
	case daysDiff == 1:
		return current + 1, true
	case daysDiff > 1:
		// Streak broken, fresh start.
		return 1, true
	default:
		// Same reference day (or clock skew backwards): no bump.
		return current, false
	}
}

// GetRotatingChallenges returns this period's active pool: 2 daily challenges
// rotating per UTC day and 2 weekly ones rotating per UTC ISO week.
func (s *ChallengeService) GetRotatingChallenges(ctx context.Context, now time.Time) ([]*challenge.Challenge, error) {
	pool, err := s.loadChallengePool(ctx)
	if err != nil {
		return nil, err
	}

	active := rotation.Select(pool, challenge.TypeDaily, period.DayKey(now), DailyRotationCount)
	active = append(active, rotation.Select(pool, challenge.TypeWeekly, period.WeekKey(now), WeeklyRotationCount)...)
	return active, nil
}

// GetDashboard joins the active rotation with the user's progress rows and
// groups the result by challenge class. Unrecognized classes land in the
// weekly bucket. Read-only.
func (s *ChallengeService) GetDashboard(ctx context.Context, clerkID string, now time.Time) (*challenge.DashboardChallengesResponse, error) {
	active, err := s.GetRotatingChallenges(ctx, now)
	if err != nil {
		return nil, err
	}

	var userID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", clerkID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	progress, err := s.loadUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &challenge.DashboardChallengesResponse{
		Daily:  []*challenge.ChallengeStatus{},
		Weekly: []*challenge.ChallengeStatus{},
	}
	for _, ch := range active {
		status := toStatus(ch, progress[ch.ID], now)
		if challenge.Normalize(ch.Type) == challenge.TypeDaily {
			resp.Daily = append(resp.Daily, status)
		} else {
			resp.Weekly = append(resp.Weekly, status)
		}
	}
	return resp, nil
}

// GetUserChallenges returns the user's progress rows that are still relevant
// for the current rotation period: uncompleted rows always, completed rows
// only while their completion still counts.
func (s *ChallengeService) GetUserChallenges(ctx context.Context, clerkID string, now time.Time) ([]*challenge.UserChallenge, error) {
	query := `
	SELECT uc.id, uc.user_id, uc.challenge_id, uc.assigned_at, uc.completed_at, uc.streak_delta, c.type
	FROM user_challenges uc
	JOIN challenges c ON c.id = uc.challenge_id
	JOIN users u ON u.id = uc.user_id
	WHERE u.clerk_id = $1
	`
	rows, err := s.db.Query(ctx, query, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user challenges: %w", err)
	}
	defer rows.Close()

	var relevant []*challenge.UserChallenge
	for rows.Next() {
		uc := &challenge.UserChallenge{}
		var chType string
		if err := rows.Scan(&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.AssignedAt, &uc.CompletedAt, &uc.StreakDelta, &chType); err != nil {
			return nil, fmt.Errorf("failed to scan user challenge: %w", err)
		}
		if uc.CompletedAt == nil || completedInPeriod(challenge.Normalize(chType), uc.CompletedAt, now) {
			relevant = append(relevant, uc)
		}
	}
	return relevant, rows.Err()
}

// JoinChallenge explicitly assigns a challenge to the user ahead of any
// completion. Completion does this lazily anyway; the endpoint exists for
// clients that want the row up front.
func (s *ChallengeService) JoinChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.JoinChallengeResponse, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM challenges WHERE id = $1)`, challengeID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check challenge: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, apperr.ErrNotFound)
	}

	var id uuid.UUID
	query := `
	INSERT INTO user_challenges (id, user_id, challenge_id, assigned_at)
	SELECT $1, u.id, $2, NOW() FROM users u WHERE u.clerk_id = $3
	ON CONFLICT (user_id, challenge_id) DO NOTHING
	RETURNING id
	`
	err = s.db.QueryRow(ctx, query, uuid.New(), challengeID, clerkID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge already assigned: %w", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to join challenge: %w", err)
	}

	return &challenge.JoinChallengeResponse{
		Message:         "Challenge joined successfully",
		UserChallengeID: id,
	}, nil
}

// CompleteChallenge marks a challenge completed for this user and awards XP.
// At most one award per rotation period: a repeat call inside the period
// returns the current aggregates unchanged. The read-check-write sequence
// runs under row locks in a single transaction and is retried a bounded
// number of times on serialization conflicts.
func (s *ChallengeService) CompleteChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID, now time.Time) (*challenge.CompleteChallengeResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCompleteAttempts; attempt++ {
		resp, err := s.completeOnce(ctx, clerkID, challengeID, now)
		if err == nil || !isRetryableTxError(err) {
			return resp, err
		}
		lastErr = err
		log.Printf("CompleteChallenge: serialization conflict for user %s challenge %s (attempt %d/%d): %v",
			clerkID, challengeID, attempt, maxCompleteAttempts, err)
	}
	return nil, fmt.Errorf("completion conflict not resolved after %d attempts: %v: %w", maxCompleteAttempts, lastErr, apperr.ErrInternal)
}

func (s *ChallengeService) completeOnce(ctx context.Context, clerkID string, challengeID uuid.UUID, now time.Time) (*challenge.CompleteChallengeResponse, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1) The global challenge must exist.
	ch := &challenge.Challenge{}
	err = tx.QueryRow(ctx, `SELECT id, type, title, COALESCE(points, 0) FROM challenges WHERE id = $1`, challengeID).
		Scan(&ch.ID, &ch.Type, &ch.Title, &ch.Points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge %s: %w", challengeID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	// 2) Lock the user's aggregate row for the rest of the transaction.
	var (
		userID          uuid.UUID
		weeklyXP        int
		totalXP         int
		streak          int
		lastCompletedAt *time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT id, weekly_xp, total_xp, streak, last_challenge_completed_at
		FROM users WHERE clerk_id = $1
		FOR UPDATE`, clerkID).
		Scan(&userID, &weeklyXP, &totalXP, &streak, &lastCompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", clerkID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// 3) Get or create the progress row, locked. Two concurrent first
	// touches race on the unique (user_id, challenge_id) constraint; the
	// loser re-selects the winner's row.
	var (
		ucID        uuid.UUID
		completedAt *time.Time
	)
	err = tx.QueryRow(ctx, `
		INSERT INTO user_challenges (id, user_id, challenge_id, assigned_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, challenge_id) DO NOTHING
		RETURNING id, completed_at`, uuid.New(), userID, challengeID).
		Scan(&ucID, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `
			SELECT id, completed_at FROM user_challenges
			WHERE user_id = $1 AND challenge_id = $2
			FOR UPDATE`, userID, challengeID).
			Scan(&ucID, &completedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user challenge: %w", err)
	}

	// 4) Idempotent short-circuit: already completed in this rotation
	// period means no award and no mutation, just the current snapshot.
	if completedInPeriod(challenge.Normalize(ch.Type), completedAt, now) {
		completionsTotal.WithLabelValues("repeat").Inc()
		return &challenge.CompleteChallengeResponse{
			Completed: true,
			WeeklyXP:  weeklyXP,
			TotalXP:   totalXP,
			Streak:    streak,
		}, nil
	}

	// 5) Streak transition in the reference timezone.
	newStreak, bumped := nextStreak(streak, lastCompletedAt, now, s.refZone)

	// 6) Persist progress and aggregates together.
	_, err = tx.Exec(ctx, `
		UPDATE user_challenges
		SET completed_at = $1, streak_delta = streak_delta + 1
		WHERE id = $2`, now, ucID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark challenge completed: %w", err)
	}

	weeklyXP += ch.Points
	totalXP += ch.Points
	_, err = tx.Exec(ctx, `
		UPDATE users
		SET weekly_xp = $1, total_xp = $2, streak = $3, last_challenge_completed_at = $4, updated_at = NOW()
		WHERE id = $5`, weeklyXP, totalXP, newStreak, now, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to award xp: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}

	completionsTotal.WithLabelValues("awarded").Inc()

	if bumped && streakMilestones[newStreak] {
		s.sendStreakMilestonePush(userID, newStreak)
	}

	return &challenge.CompleteChallengeResponse{
		Completed: true,
		WeeklyXP:  weeklyXP,
		TotalXP:   totalXP,
		Streak:    newStreak,
	}, nil
}

func (s *ChallengeService) sendStreakMilestonePush(userID uuid.UUID, streak int) {
	if s.push == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		tokens, err := s.userService.GetDeviceTokens(ctx, userID)
		if err != nil {
			log.Printf("Milestone push: failed to load device tokens for %s: %v", userID, err)
			return
		}
		title := fmt.Sprintf("%d day streak!", streak)
		body := "Keep showing up. Your streak is on fire."
		if err := s.push.SendPush(ctx, tokens, title, body, map[string]any{"type": string(notification.NotificationStreakMilestone), "days": streak}); err != nil {
			log.Printf("Milestone push failed for %s: %v", userID, err)
		}
	}()
}

func (s *ChallengeService) loadChallengePool(ctx context.Context) ([]*challenge.Challenge, error) {
	rows, err := s.db.Query(ctx, `SELECT id, type, title, description, COALESCE(points, 0), created_at FROM challenges`)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenges: %w", err)
	}
	defer rows.Close()

	var pool []*challenge.Challenge
	for rows.Next() {
		ch := &challenge.Challenge{}
		if err := rows.Scan(&ch.ID, &ch.Type, &ch.Title, &ch.Description, &ch.Points, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		pool = append(pool, ch)
	}
	return pool, rows.Err()
}

func (s *ChallengeService) loadUserProgress(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]*challenge.UserChallenge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, challenge_id, assigned_at, completed_at, streak_delta
		FROM user_challenges WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user progress: %w", err)
	}
	defer rows.Close()

	progress := make(map[uuid.UUID]*challenge.UserChallenge)
	for rows.Next() {
		uc := &challenge.UserChallenge{}
		if err := rows.Scan(&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.AssignedAt, &uc.CompletedAt, &uc.StreakDelta); err != nil {
			return nil, fmt.Errorf("failed to scan user progress: %w", err)
		}
		progress[uc.ChallengeID] = uc
	}
	return progress, rows.Err()
}

func toStatus(ch *challenge.Challenge, uc *challenge.UserChallenge, now time.Time) *challenge.ChallengeStatus {
	status := &challenge.ChallengeStatus{
		ChallengeID: ch.ID,
		Type:        ch.Type,
		Title:       ch.Title,
		Description: ch.Description,
		Points:      ch.Points,
	}
	if uc != nil {
		status.UserChallengeID = &uc.ID
		status.StreakDelta = uc.StreakDelta
		status.Completed = completedInPeriod(challenge.Normalize(ch.Type), uc.CompletedAt, now)
	}
	return status
}

// isRetryableTxError reports whether err is a Postgres serialization failure
// or deadlock, both safe to retry from the top of the transaction.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

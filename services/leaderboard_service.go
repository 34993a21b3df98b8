package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"peakAPI/internal/apperr"
	"peakAPI/internal/period"
	"peakAPI/internal/types/leaderboard"
)

const (
	leaderboardCacheTTL     = time.Minute
	leaderboardWeeklyKey    = "leaderboard:weekly"
	leaderboardAllTimeKey   = "leaderboard:alltime"
	leaderboardEntriesLimit = 100
)

type LeaderboardService struct {
	db    *pgxpool.Pool
	cache *redis.Client
}

// NewLeaderboardService wires the ranking reads and the weekly reset. The
// Redis client is optional; without it every read hits Postgres.
func NewLeaderboardService(db *pgxpool.Pool, cache *redis.Client) *LeaderboardService {
	return &LeaderboardService{db: db, cache: cache}
}

// GetLeaderboard returns the ranked top users for the period plus the calling
// user's own position. The ranked page is cached briefly in Redis; the
// caller's position is always computed fresh.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, clerkID string, p leaderboard.Period) (*leaderboard.Leaderboard, error) {
	if p != leaderboard.PeriodWeekly && p != leaderboard.PeriodAllTime {
		p = leaderboard.PeriodWeekly
	}

	entries, total, err := s.rankedEntries(ctx, p)
	if err != nil {
		return nil, err
	}

	position, err := s.userPosition(ctx, clerkID, p)
	if err != nil {
		return nil, err
	}

	return &leaderboard.Leaderboard{
		Period:       p,
		Entries:      entries,
		UserPosition: position,
		TotalUsers:   total,
	}, nil
}

func (s *LeaderboardService) rankedEntries(ctx context.Context, p leaderboard.Period) ([]*leaderboard.LeaderboardEntry, int, error) {
	type cachedPage struct {
		Entries    []*leaderboard.LeaderboardEntry `json:"entries"`
		TotalUsers int                             `json:"total_users"`
	}

	cacheKey := leaderboardWeeklyKey
	xpColumn := "weekly_xp"
	if p == leaderboard.PeriodAllTime {
		cacheKey = leaderboardAllTimeKey
		xpColumn = "total_xp"
	}

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var page cachedPage
			if json.Unmarshal([]byte(raw), &page) == nil {
				return page.Entries, page.TotalUsers, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("Leaderboard cache read failed: %v", err)
		}
	}

	query := fmt.Sprintf(`
	SELECT user_id, username, image_url, xp, streak, rank FROM (
		SELECT u.id AS user_id, u.username, u.image_url, u.%s AS xp, u.streak,
			ROW_NUMBER() OVER (ORDER BY u.%s DESC, u.created_at ASC) AS rank
		FROM users u
	) ranked
	ORDER BY rank ASC
	LIMIT $1
	`, xpColumn, xpColumn)

	rows, err := s.db.Query(ctx, query, leaderboardEntriesLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []*leaderboard.LeaderboardEntry{}
	for rows.Next() {
		e := &leaderboard.LeaderboardEntry{}
		if err := rows.Scan(&e.UserID, &e.Username, &e.ImageURL, &e.XP, &e.Streak, &e.Rank); err != nil {
			return nil, 0, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	if s.cache != nil {
		raw, err := json.Marshal(cachedPage{Entries: entries, TotalUsers: total})
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, leaderboardCacheTTL).Err(); err != nil {
				log.Printf("Leaderboard cache write failed: %v", err)
			}
		}
	}

	return entries, total, nil
}

func (s *LeaderboardService) userPosition(ctx context.Context, clerkID string, p leaderboard.Period) (*leaderboard.LeaderboardEntry, error) {
	xpColumn := "weekly_xp"
	if p == leaderboard.PeriodAllTime {
		xpColumn = "total_xp"
	}

	query := fmt.Sprintf(`
	SELECT user_id, username, image_url, xp, streak, rank FROM (
		SELECT u.id AS user_id, u.clerk_id, u.username, u.image_url, u.%s AS xp, u.streak,
			ROW_NUMBER() OVER (ORDER BY u.%s DESC, u.created_at ASC) AS rank
		FROM users u
	) ranked
	WHERE clerk_id = $1
	`, xpColumn, xpColumn)

	e := &leaderboard.LeaderboardEntry{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(&e.UserID, &e.Username, &e.ImageURL, &e.XP, &e.Streak, &e.Rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", clerkID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user position: %w", err)
	}
	return e, nil
}

// LastResetAt returns when the weekly leaderboard was last reset, or nil if
// it never has been. Only the newest marker is consulted.
func (s *LeaderboardService) LastResetAt(ctx context.Context) (*time.Time, error) {
	var resetAt time.Time
	err := s.db.QueryRow(ctx, `SELECT reset_at FROM leaderboard_resets ORDER BY reset_at DESC LIMIT 1`).Scan(&resetAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last reset: %w", err)
	}
	return &resetAt, nil
}

// shouldReset decides whether a reset is due: true when no reset has ever
// happened, or when the newest marker predates the current week's Monday
// 00:00 UTC.
func shouldReset(lastReset *time.Time, now time.Time) bool {
	if lastReset == nil {
		return true
	}
	return lastReset.Before(period.WeekStartUTC(now))
}

// MaybeResetWeekly zeroes every user's weekly_xp at most once per UTC week.
// The check and the zeroing run in one transaction under an advisory lock, so
// overlapping invocations (startup check racing the Monday trigger, or two
// admin calls) collapse to a single effective reset; the rest report a skip.
// Any failure rolls the whole thing back, leaving the marker unset so the
// next invocation retries.
func (s *LeaderboardService) MaybeResetWeekly(ctx context.Context, now time.Time) (*leaderboard.ResetResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes concurrent reset attempts; released on commit/rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('weekly_leaderboard_reset'))`); err != nil {
		return nil, fmt.Errorf("failed to acquire reset lock: %w", err)
	}

	var lastReset *time.Time
	var resetAt time.Time
	err = tx.QueryRow(ctx, `SELECT reset_at FROM leaderboard_resets ORDER BY reset_at DESC LIMIT 1`).Scan(&resetAt)
	if err == nil {
		lastReset = &resetAt
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read reset marker: %w", err)
	}

	if !shouldReset(lastReset, now) {
		leaderboardResetsTotal.WithLabelValues("skipped").Inc()
		log.Printf("Weekly leaderboard already reset for this week (last reset %s). Skipping.", lastReset.Format(time.RFC3339))
		return &leaderboard.ResetResult{UsersReset: 0, ResetAt: *lastReset, Skipped: true}, nil
	}

	tag, err := tx.Exec(ctx, `UPDATE users SET weekly_xp = 0`)
	if err != nil {
		return nil, fmt.Errorf("failed to zero weekly xp: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO leaderboard_resets (reset_at) VALUES ($1)`, now); err != nil {
		return nil, fmt.Errorf("failed to record reset: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reset: %w", err)
	}

	s.invalidateCache(ctx)

	usersReset := int(tag.RowsAffected())
	leaderboardResetsTotal.WithLabelValues("reset").Inc()
	usersResetLast.Set(float64(usersReset))
	log.Printf("Weekly leaderboard reset completed. %d users reset.", usersReset)

	return &leaderboard.ResetResult{UsersReset: usersReset, ResetAt: now}, nil
}

func (s *LeaderboardService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, leaderboardWeeklyKey, leaderboardAllTimeKey).Err(); err != nil {
		log.Printf("Leaderboard cache invalidation failed: %v", err)
	}
}

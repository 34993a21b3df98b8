package workers

import (
	"context"
	"log"
	"time"

	"peakAPI/internal/period"
	"peakAPI/internal/types/leaderboard"
)

// Resetter is the slice of LeaderboardService the worker needs.
type Resetter interface {
	MaybeResetWeekly(ctx context.Context, now time.Time) (*leaderboard.ResetResult, error)
}

// StartWeeklyResetWorker runs the leaderboard reset every Monday 00:00 UTC.
// The reset itself is idempotent per week, so an extra firing (or the startup
// check racing the timer) is harmless. Returns a stop function.
func StartWeeklyResetWorker(svc Resetter) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for {
			now := time.Now().UTC()
			next := period.NextWeekStartUTC(now)
			log.Printf("[ResetWorker] Next weekly leaderboard reset at %s", next.Format(time.RFC3339))

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Println("[ResetWorker] Stopped")
				return
			case <-timer.C:
			}

			runReset(ctx, svc)
		}
	}()

	return cancel
}

// RunStartupCheck performs the self-healing reset check at process start, to
// cover downtime that spanned a Monday boundary.
func RunStartupCheck(svc Resetter) {
	log.Println("[ResetWorker] Checking if weekly reset is needed...")
	runReset(context.Background(), svc)
}

func runReset(ctx context.Context, svc Resetter) {
	opCtx, opCancel := context.WithTimeout(ctx, 5*time.Minute)
	defer opCancel()

	result, err := svc.MaybeResetWeekly(opCtx, time.Now().UTC())
	if err != nil {
		log.Printf("[ResetWorker] ERROR resetting weekly leaderboard: %v", err)
		return
	}
	if result.Skipped {
		return
	}
	log.Printf("[ResetWorker] Weekly leaderboard reset done, %d users reset", result.UsersReset)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"peakAPI/internal/types/leaderboard"
	"peakAPI/middleware"
	"peakAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard serves the ranked list for ?period=weekly (default) or
// ?period=alltime, including the caller's own position.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	period := leaderboard.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = leaderboard.PeriodWeekly
	}

	board, err := h.leaderboardService.GetLeaderboard(ctx, clerkID, period)
	if err != nil {
		respondWithServiceError(w, err, "Could not load leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

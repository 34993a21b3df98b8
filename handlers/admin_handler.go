package handlers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"peakAPI/middleware"
	"peakAPI/services"
)

type AdminHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewAdminHandler(leaderboardService *services.LeaderboardService) *AdminHandler {
	return &AdminHandler{
		leaderboardService: leaderboardService,
	}
}

// isAdmin checks the caller against the ADMIN_CLERK_IDS allow-list
// (comma separated). An empty list means no caller is an admin.
func isAdmin(clerkID string) bool {
	for _, id := range strings.Split(os.Getenv("ADMIN_CLERK_IDS"), ",") {
		if id != "" && strings.TrimSpace(id) == clerkID {
			return true
		}
	}
	return false
}

// ResetLeaderboard manually triggers the weekly reset. Idempotent: inside an
// already-reset week it reports 0 users reset.
func (h *AdminHandler) ResetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	if !isAdmin(clerkID) {
		respondWithError(w, http.StatusForbidden, "Admin access required")
		return
	}

	result, err := h.leaderboardService.MaybeResetWeekly(ctx, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err, "Failed to reset leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) GetLastReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	if !isAdmin(clerkID) {
		respondWithError(w, http.StatusForbidden, "Admin access required")
		return
	}

	lastReset, err := h.leaderboardService.LastResetAt(ctx)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load last reset")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"last_reset": lastReset})
}

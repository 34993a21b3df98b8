package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"peakAPI/middleware"
	"peakAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

// GetRotatingChallenges returns today's 2 daily + this week's 2 weekly
// challenges. Same answer for every caller within a rotation period.
func (h *ChallengeHandler) GetRotatingChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challenges, err := h.challengeService.GetRotatingChallenges(ctx, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err, "Could not load challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) GetUserChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userChallenges, err := h.challengeService.GetUserChallenges(ctx, clerkID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err, "Could not load user challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, userChallenges)
}

func (h *ChallengeHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	dashboard, err := h.challengeService.GetDashboard(ctx, clerkID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err, "Could not load dashboard challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, dashboard)
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["challengeId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	resp, err := h.challengeService.JoinChallenge(ctx, clerkID, challengeID)
	if err != nil {
		respondWithServiceError(w, err, "Could not join challenge")
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

// CompleteChallenge awards XP and advances the streak, at most once per
// rotation period. Repeats inside the period return the same snapshot.
func (h *ChallengeHandler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["challengeId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	resp, err := h.challengeService.CompleteChallenge(ctx, clerkID, challengeID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err, "Could not complete challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

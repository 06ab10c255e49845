package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"habitflowAPI/internal/types/completion"
	habittype "habitflowAPI/internal/types/habit"
	"habitflowAPI/middleware"
	"habitflowAPI/services"
)

type HabitHandler struct {
	habitService     *services.HabitService
	challengeService *services.ChallengeService
}

func NewHabitHandler(habitService *services.HabitService, challengeService *services.ChallengeService) *HabitHandler {
	return &HabitHandler{
		habitService:     habitService,
		challengeService: challengeService,
	}
}

func (h *HabitHandler) GetHabits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habits, err := h.habitService.GetHabits(ctx, clerkID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, habits)
}

func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req habittype.CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Habit name is required")
		return
	}

	habit, err := h.habitService.CreateHabit(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, habit)
}

func (h *HabitHandler) GetHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(w, r)
	if !ok {
		return
	}

	habit, err := h.habitService.GetHabit(ctx, clerkID, habitID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(w, r)
	if !ok {
		return
	}

	var req habittype.UpdateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	habit, err := h.habitService.UpdateHabit(ctx, clerkID, habitID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.habitService.DeleteHabit(ctx, clerkID, habitID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted successfully"})
}

// ToggleCompletion advances the day's cycle one step:
// cleared -> completed -> partial -> cleared.
func (h *HabitHandler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(w, r)
	if !ok {
		return
	}

	// An absent body toggles today; only malformed JSON is rejected.
	var req completion.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := time.Now().UTC()
	date := now
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	result, err := h.habitService.ToggleCompletion(ctx, clerkID, habitID, date, now)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	status := result.Status
	if status == "" {
		status = "cleared"
	}
	middleware.CompletionToggles.WithLabelValues(status).Inc()

	// Challenge progress rides on completion counts; refresh it best-effort.
	if err := h.challengeService.UpdateProgressByClerkID(ctx, clerkID, now); err != nil {
		log.Printf("HabitHandler: challenge progress refresh failed: %v", err)
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *HabitHandler) SetCompletionType(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(w, r)
	if !ok {
		return
	}

	var req completion.SetKindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Kind {
	case completion.KindCheck, completion.KindStar, completion.KindSkip:
	default:
		respondWithError(w, http.StatusBadRequest, "completionType must be check, star or skip")
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	if err := h.habitService.SetCompletionType(ctx, clerkID, habitID, date, req.Kind); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Completion type updated"})
}

func (h *HabitHandler) ReconcileStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(w, r)
	if !ok {
		return
	}

	streak, err := h.habitService.ReconcileStreak(ctx, clerkID, habitID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	middleware.StreakReconciles.Inc()
	respondWithJSON(w, http.StatusOK, map[string]int{"streak_count": streak})
}

func (h *HabitHandler) GetYearlyActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(w, r)
	if !ok {
		return
	}

	buckets, err := h.habitService.GetYearlyActivity(ctx, clerkID, habitID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, buckets)
}

func (h *HabitHandler) GetWeekdayTotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := habitIDFromRequest(w, r)
	if !ok {
		return
	}

	totals, err := h.habitService.GetWeekdayTotals(ctx, clerkID, habitID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, totals)
}

func habitIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	habitID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid habit id")
		return uuid.Nil, false
	}
	return habitID, true
}

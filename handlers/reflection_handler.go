package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	reflectiontype "habitflowAPI/internal/types/reflection"
	"habitflowAPI/middleware"
	"habitflowAPI/services"
)

type ReflectionHandler struct {
	reflectionService *services.ReflectionService
}

func NewReflectionHandler(reflectionService *services.ReflectionService) *ReflectionHandler {
	return &ReflectionHandler{reflectionService: reflectionService}
}

func (h *ReflectionHandler) CreateReflection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := reflectionHabitID(w, r)
	if !ok {
		return
	}

	var req reflectiontype.CreateReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ReflectionText == "" {
		respondWithError(w, http.StatusBadRequest, "Reflection text is required")
		return
	}
	for idx, v := range req.SRHIResponses {
		if idx < 0 || idx >= len(services.SRHIQuestions) || v < 1 || v > 3 {
			respondWithError(w, http.StatusBadRequest, "SRHI responses must map question index to a 1-3 value")
			return
		}
	}

	reflection, err := h.reflectionService.CreateReflection(ctx, clerkID, habitID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, reflection)
}

func (h *ReflectionHandler) GetReflections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := reflectionHabitID(w, r)
	if !ok {
		return
	}

	reflections, err := h.reflectionService.GetReflections(ctx, clerkID, habitID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, reflections)
}

func (h *ReflectionHandler) NeedsReflection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habitID, ok := reflectionHabitID(w, r)
	if !ok {
		return
	}

	resp, err := h.reflectionService.NeedsReflection(ctx, clerkID, habitID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GetSRHIQuestions serves the questionnaire itself; no auth state needed
// beyond the usual middleware.
func (h *ReflectionHandler) GetSRHIQuestions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, services.SRHIQuestions)
}

func reflectionHabitID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	habitID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid habit id")
		return uuid.Nil, false
	}
	return habitID, true
}

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitflowAPI/handlers"
	"habitflowAPI/internal/types/completion"
	habittype "habitflowAPI/internal/types/habit"
	"habitflowAPI/internal/types/user"
	"habitflowAPI/middleware"
	"habitflowAPI/services"
	"habitflowAPI/tests/helpers"
)

func setupHabitTest(t *testing.T) (*services.HabitService, *handlers.HabitHandler, string, func()) {
	pool := helpers.SetupTestDB(t)

	userService := services.NewUserService(pool)
	habitService := services.NewHabitService(pool)
	challengeService := services.NewChallengeService(pool)
	habitHandler := handlers.NewHabitHandler(habitService, challengeService)

	clerkID := "user_test_" + time.Now().Format("20060102150405.000")
	_, err := userService.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testhabits@example.com",
		Username:  "testhabits",
		FirstName: "Test",
		LastName:  "Habits",
	})
	require.NoError(t, err)

	return habitService, habitHandler, clerkID, func() {
		helpers.CleanupTestDB(t, pool)
	}
}

func authedRequest(method, target, body, clerkID string, vars map[string]string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestCreateAndGetHabit(t *testing.T) {
	_, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	body := `{"name": "Morning run", "description": "5k before work", "category": "fitness"}`
	req := authedRequest(http.MethodPost, "/api/v1/habits", body, clerkID, nil)
	rr := httptest.NewRecorder()

	habitHandler.CreateHabit(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created habittype.Habit
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Morning run", created.Name)
	assert.Equal(t, "fitness", created.Category)
	assert.Zero(t, created.StreakCount)

	req = authedRequest(http.MethodGet, "/api/v1/habits/"+created.ID.String(), "", clerkID,
		map[string]string{"id": created.ID.String()})
	rr = httptest.NewRecorder()

	habitHandler.GetHabit(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got habittype.HabitWithProgress
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "", got.TodayStatus)
	assert.Equal(t, "motivational", got.Phase)
	assert.Equal(t, 0, got.Progress)
}

func TestCreateHabit_MissingName(t *testing.T) {
	_, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	req := authedRequest(http.MethodPost, "/api/v1/habits", `{"category": "fitness"}`, clerkID, nil)
	rr := httptest.NewRecorder()

	habitHandler.CreateHabit(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// The toggle walks empty -> completed -> partial -> empty; three calls must
// land back where it started with no streak left behind.
func TestToggleCompletion_FullCycle(t *testing.T) {
	habitService, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	created, err := habitService.CreateHabit(context.Background(), clerkID, &habittype.CreateHabitRequest{
		Name:     "Read",
		Category: "learning",
	})
	require.NoError(t, err)

	vars := map[string]string{"id": created.ID.String()}
	toggle := func() completion.ToggleResponse {
		req := authedRequest(http.MethodPost, "/api/v1/habits/"+created.ID.String()+"/toggle", `{}`, clerkID, vars)
		rr := httptest.NewRecorder()
		habitHandler.ToggleCompletion(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp completion.ToggleResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	first := toggle()
	assert.Equal(t, "completed", first.Status)
	assert.Equal(t, 1, first.StreakCount)

	second := toggle()
	assert.Equal(t, "partial", second.Status)
	assert.Equal(t, 1, second.StreakCount)

	third := toggle()
	assert.Equal(t, "", third.Status)
	assert.Equal(t, 0, third.StreakCount)
}

func TestToggleCompletion_NoBodyDefaultsToToday(t *testing.T) {
	habitService, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	created, err := habitService.CreateHabit(context.Background(), clerkID, &habittype.CreateHabitRequest{
		Name: "Hydrate",
	})
	require.NoError(t, err)

	vars := map[string]string{"id": created.ID.String()}
	req := authedRequest(http.MethodPost, "/api/v1/habits/"+created.ID.String()+"/toggle", "", clerkID, vars)
	rr := httptest.NewRecorder()

	habitHandler.ToggleCompletion(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp completion.ToggleResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), resp.Date)
}

func TestToggleCompletion_InvalidDate(t *testing.T) {
	habitService, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	created, err := habitService.CreateHabit(context.Background(), clerkID, &habittype.CreateHabitRequest{
		Name: "Stretch",
	})
	require.NoError(t, err)

	vars := map[string]string{"id": created.ID.String()}
	req := authedRequest(http.MethodPost, "/api/v1/habits/"+created.ID.String()+"/toggle",
		`{"date": "15-03-2026"}`, clerkID, vars)
	rr := httptest.NewRecorder()

	habitHandler.ToggleCompletion(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// Tagging a completion type must never create a day that was not toggled.
func TestSetCompletionType_RequiresExistingDay(t *testing.T) {
	habitService, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	created, err := habitService.CreateHabit(context.Background(), clerkID, &habittype.CreateHabitRequest{
		Name: "Meditate",
	})
	require.NoError(t, err)

	vars := map[string]string{"id": created.ID.String()}
	req := authedRequest(http.MethodPut, "/api/v1/habits/"+created.ID.String()+"/completion-type",
		`{"completionType": "star"}`, clerkID, vars)
	rr := httptest.NewRecorder()

	habitHandler.SetCompletionType(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
}

func TestSetCompletionType_AfterToggle(t *testing.T) {
	habitService, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	ctx := context.Background()
	created, err := habitService.CreateHabit(ctx, clerkID, &habittype.CreateHabitRequest{
		Name: "Journal",
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = habitService.ToggleCompletion(ctx, clerkID, created.ID, now, now)
	require.NoError(t, err)

	vars := map[string]string{"id": created.ID.String()}
	req := authedRequest(http.MethodPut, "/api/v1/habits/"+created.ID.String()+"/completion-type",
		`{"completionType": "star"}`, clerkID, vars)
	rr := httptest.NewRecorder()

	habitHandler.SetCompletionType(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestReconcileStreak_MatchesCache(t *testing.T) {
	habitService, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	ctx := context.Background()
	created, err := habitService.CreateHabit(ctx, clerkID, &habittype.CreateHabitRequest{
		Name: "Walk",
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	resp, err := habitService.ToggleCompletion(ctx, clerkID, created.ID, now, now)
	require.NoError(t, err)
	require.Equal(t, 1, resp.StreakCount)

	vars := map[string]string{"id": created.ID.String()}
	req := authedRequest(http.MethodPost, "/api/v1/habits/"+created.ID.String()+"/reconcile-streak", "", clerkID, vars)
	rr := httptest.NewRecorder()

	habitHandler.ReconcileStreak(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body["streak_count"])
}

func TestGetHabits_ListsWithProgress(t *testing.T) {
	habitService, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	ctx := context.Background()
	for _, name := range []string{"Run", "Read", "Sleep early"} {
		_, err := habitService.CreateHabit(ctx, clerkID, &habittype.CreateHabitRequest{Name: name})
		require.NoError(t, err)
	}

	req := authedRequest(http.MethodGet, "/api/v1/habits", "", clerkID, nil)
	rr := httptest.NewRecorder()

	habitHandler.GetHabits(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var habits []habittype.HabitWithProgress
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &habits))
	require.Len(t, habits, 3)
	for _, h := range habits {
		assert.Equal(t, "motivational", h.Phase)
		assert.Equal(t, 66, h.RemainingDays, "fresh habit has the full window ahead")
		assert.Equal(t, 0, h.TotalDone)
	}
}

func TestGetHabit_NotFound(t *testing.T) {
	_, habitHandler, clerkID, cleanup := setupHabitTest(t)
	defer cleanup()

	missing := "00000000-0000-0000-0000-000000000001"
	req := authedRequest(http.MethodGet, "/api/v1/habits/"+missing, "", clerkID,
		map[string]string{"id": missing})
	rr := httptest.NewRecorder()

	habitHandler.GetHabit(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

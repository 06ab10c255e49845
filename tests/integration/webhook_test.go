package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitflowAPI/handlers"
	"habitflowAPI/services"
	"habitflowAPI/tests/helpers"
)

func TestClerkWebhook_UserLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	// No secret configured means signature verification is skipped.
	os.Unsetenv("CLERK_WEBHOOK_SECRET")

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	clerkID := "user_test_wh_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	// user.created
	payload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	created, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", created.Username)
	assert.Equal(t, "test.user@example.com", created.Email)

	// user.updated
	payload = helpers.MockClerkWebhookPayload("user.updated", clerkID)
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr = httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	updated, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "updateduser", updated.Username)
	assert.Equal(t, "Updated", updated.FirstName)

	// user.deleted
	payload = helpers.MockClerkWebhookPayload("user.deleted", clerkID)
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr = httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "user should be gone after user.deleted")
}

func TestClerkWebhook_RejectsBadSignature(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	payload := helpers.MockClerkWebhookPayload("user.created", "user_test_bad_sig")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,not-a-real-signature")
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

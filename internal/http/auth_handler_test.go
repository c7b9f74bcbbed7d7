package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunoxdev/mai-store/internal/auth"
)

type mockProfileWriter struct {
	upsertedID    uuid.UUID
	upsertedEmail string
	calls         int
}

func (m *mockProfileWriter) UpsertProfileEmail(_ context.Context, id uuid.UUID, email string) error {
	m.upsertedID = id
	m.upsertedEmail = email
	m.calls++
	return nil
}

func TestFinishSignIn_WithEmail(t *testing.T) {
	sessions := auth.NewSessions(auth.Config{SessionSecret: "test-secret"})
	profiles := &mockProfileWriter{}
	h := NewAuthHandler(sessions, profiles)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	h.finishSignIn(rec, req, "google", "subject-1", "cliente@example.com")

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, auth.UserIDForProvider("google", "subject-1"), profiles.upsertedID)
	assert.Equal(t, "cliente@example.com", profiles.upsertedEmail)

	// The session carries the identity for follow-up requests.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	next := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	next.AddCookie(cookies[0])
	userID, ok := sessions.UserID(next)
	require.True(t, ok)
	assert.Equal(t, profiles.upsertedID, userID)
}

func TestFinishSignIn_NoEmail_StillCreatesProfile(t *testing.T) {
	// Orders reference the profile row, so it must exist even when the
	// provider returned no email address.
	sessions := auth.NewSessions(auth.Config{SessionSecret: "test-secret"})
	profiles := &mockProfileWriter{}
	h := NewAuthHandler(sessions, profiles)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	h.finishSignIn(rec, req, "google", "subject-2", "")

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, 1, profiles.calls)
	assert.Equal(t, auth.UserIDForProvider("google", "subject-2"), profiles.upsertedID)
	assert.Empty(t, profiles.upsertedEmail)
}

func TestMe_Unauthorized(t *testing.T) {
	sessions := auth.NewSessions(auth.Config{SessionSecret: "test-secret"})
	h := NewAuthHandler(sessions, &mockProfileWriter{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

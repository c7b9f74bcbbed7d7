package http

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"

	"github.com/lunoxdev/mai-store/internal/auth"
)

// ProfileWriter backfills the profile row on first sign-in.
type ProfileWriter interface {
	UpsertProfileEmail(ctx context.Context, id uuid.UUID, email string) error
}

type AuthHandler struct {
	sessions *auth.Sessions
	profiles ProfileWriter
}

func NewAuthHandler(sessions *auth.Sessions, profiles ProfileWriter) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		profiles: profiles,
	}
}

// GET /auth/{provider}
func (h *AuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)
	gothic.BeginAuthHandler(w, r)
}

// GET /auth/{provider}/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		log.Printf("oauth callback failed: %v", err)
		http.Redirect(w, r, "/?error=oauth_failed", http.StatusTemporaryRedirect)
		return
	}

	h.finishSignIn(w, r, gothUser.Provider, gothUser.UserID, gothUser.Email)
}

// finishSignIn maps the OAuth identity to a local user, makes sure the
// profile row exists (orders reference it) and stores the session. The email
// is backfilled only when the provider supplied one.
func (h *AuthHandler) finishSignIn(w http.ResponseWriter, r *http.Request, provider, subject, email string) {
	userID := auth.UserIDForProvider(provider, subject)

	if err := h.profiles.UpsertProfileEmail(r.Context(), userID, email); err != nil {
		log.Printf("error upserting profile: %v", err)
	}

	if err := h.sessions.SignIn(w, r, userID, email); err != nil {
		log.Printf("error saving session: %v", err)
		http.Redirect(w, r, "/?error=session_failed", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// GET /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(w, r); err != nil {
		log.Printf("error clearing session: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

type MeResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.sessions.UserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "not signed in")
		return
	}
	respondJSON(w, http.StatusOK, MeResponse{
		UserID: userID.String(),
		Email:  h.sessions.UserEmail(r),
	})
}

// withProvider feeds the chi route param to gothic, which reads the
// provider name from the query string.
func withProvider(r *http.Request) *http.Request {
	if provider := chi.URLParam(r, "provider"); provider != "" {
		q := r.URL.Query()
		q.Set("provider", provider)
		r.URL.RawQuery = q.Encode()
	}
	return r
}

package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/lunoxdev/mai-store/internal/domain"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// ProfileReader looks up the role attached to an identity.
type ProfileReader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

// UserIDFromContext returns the authenticated user placed by RequireUser.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// RequireUser rejects requests without a signed-in session and exposes the
// user ID on the request context.
func (s *Sessions) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.UserID(r)
		if !ok {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin re-checks the profile role on every request. No session,
// a failed lookup or a non-admin role all redirect to the home route.
func (s *Sessions) RequireAdmin(profiles ProfileReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := s.UserID(r)
			if !ok {
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}

			profile, err := profiles.GetProfile(r.Context(), userID)
			if err != nil {
				log.Printf("admin gate profile lookup error: %v", err)
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}
			if !profile.IsAdmin() {
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

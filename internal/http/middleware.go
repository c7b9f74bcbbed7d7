package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	requestIDKey   ctxKey = "request_id"
	cartSessionKey ctxKey = "cart_session"
)

const cartSessionCookie = "cart_session"

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CartSessionMiddleware gives every browser a stable cart session cookie.
// The cart exists per browser session, signed in or not.
func CartSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if c, err := r.Cookie(cartSessionCookie); err == nil && c.Value != "" {
			sessionID = c.Value
		} else {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     cartSessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				MaxAge:   86400 * 90,
			})
		}

		ctx := context.WithValue(r.Context(), cartSessionKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getCartSession(ctx context.Context) string {
	if id, ok := ctx.Value(cartSessionKey).(string); ok {
		return id
	}
	return ""
}

// Package auth wraps the OAuth sign-in flow and the cookie session the rest
// of the app reads the user identity from.
package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

const (
	sessionName  = "store_session"
	keyUserID    = "user_id"
	keyUserEmail = "user_email"
)

type Config struct {
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
	CallbackURL        string
	SecureCookies      bool
}

type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(cfg Config) *Sessions {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.SecureCookies

	gothic.Store = store

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		goth.UseProviders(
			google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.CallbackURL),
		)
	}

	return &Sessions{store: store}
}

// UserIDForProvider maps an OAuth identity to a stable local user ID. The
// same provider subject always yields the same UUID, so repeated sign-ins
// land on the same profile row.
func UserIDForProvider(provider, subject string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(provider+":"+subject))
}

// SignIn stores the authenticated identity in the cookie session.
func (s *Sessions) SignIn(w http.ResponseWriter, r *http.Request, userID uuid.UUID, email string) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values[keyUserID] = userID.String()
	session.Values[keyUserEmail] = email
	return session.Save(r, w)
}

// SignOut drops the session.
func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// UserID returns the signed-in user, if any.
func (s *Sessions) UserID(r *http.Request) (uuid.UUID, bool) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := session.Values[keyUserID].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// UserEmail returns the signed-in user's email, "" when absent.
func (s *Sessions) UserEmail(r *http.Request) string {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	email, _ := session.Values[keyUserEmail].(string)
	return email
}

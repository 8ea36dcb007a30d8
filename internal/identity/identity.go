// Package identity provides the trivial session login: an email plus a role,
// carried in a cookie. There are no passwords.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

const (
	// SessionCookieName holds the session user id on the browser.
	SessionCookieName = "fluxo_session"

	sessionCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const userIDKey contextKey = iota

var sessionIDPattern = regexp.MustCompile(`^u_[a-f0-9]{32}$`)

// UserIDFromContext extracts the session user id from the request context.
// Empty means not logged in.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID returns a context carrying the session user id. Used by tests
// and by the login handler after issuing a cookie.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// NewUserID generates a fresh session user id.
func NewUserID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return "u_" + hex.EncodeToString(buf), nil
}

func validUserID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// SetSessionCookie issues the session cookie for a user id.
func SetSessionCookie(w http.ResponseWriter, userID string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    userID,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(sessionCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// ClearSessionCookie removes the session cookie (logout).
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware resolves the session cookie into the request context. Requests
// without a valid cookie pass through with no user id; handlers that need a
// user reject those themselves.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookieName); err == nil && validUserID(c.Value) {
				r = r.WithContext(WithUserID(r.Context(), c.Value))
			}
			next.ServeHTTP(w, r)
		})
	}
}

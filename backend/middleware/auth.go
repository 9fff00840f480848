// ABOUTME: Session authentication middleware for API routes
// ABOUTME: Resolves the sealed session cookie and puts the session on the request context

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

// AuthMode defines how authentication is enforced
type AuthMode string

const (
	// AuthModeOptional attaches the session if valid, allows anonymous
	AuthModeOptional AuthMode = "optional"
	// AuthModeRequired rejects requests without a valid session
	AuthModeRequired AuthMode = "required"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const sessionKey contextKey = "session"

// Auth returns middleware that resolves the session cookie.
// A cookie that is present but expired or undecodable is cleared and treated
// as absent. In required mode such requests get 401 JSON, never a redirect.
func Auth(sessions *services.SessionService, mode AuthMode) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session := sessions.Get(w, r)
			if session == nil {
				if mode == AuthModeRequired {
					slog.Debug("Auth rejected: no valid session", "path", r.URL.Path)
					writeJSONError(w, "Not authenticated", http.StatusUnauthorized)
					return
				}
				next(w, r)
				return
			}

			slog.Debug("Auth: valid session", "path", r.URL.Path, "user", session.User.Username)
			ctx := context.WithValue(r.Context(), sessionKey, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// GetSession extracts the session attached by Auth.
// Returns nil if none is present.
func GetSession(r *http.Request) *models.Session {
	session, ok := r.Context().Value(sessionKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// WithSession returns a copy of r carrying session, as Auth would attach it.
func WithSession(r *http.Request, session *models.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey, session))
}

// ABOUTME: Session proxy backed by a sealed, httpOnly cookie
// ABOUTME: Stores the backend bearer token and user snapshot; expired or tampered cookies read as absent

package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
)

const (
	// SessionCookieName names the cookie holding the sealed session
	SessionCookieName = "DRIVE_SESSION"

	// SessionMaxAge is the lifetime granted by every Set
	SessionMaxAge = 7 * 24 * time.Hour
)

// ErrEmptyToken is returned by Set when no bearer token is supplied
var ErrEmptyToken = errors.New("session token must not be empty")

// SessionService reads and writes the session cookie.
// It holds no per-user state; everything lives in the cookie.
type SessionService struct {
	sealer *Sealer
	secure bool
	now    func() time.Time
}

// NewSessionService creates a session service.
// secure controls the cookie's Secure attribute (true in production).
func NewSessionService(sealer *Sealer, secure bool) *SessionService {
	return &SessionService{
		sealer: sealer,
		secure: secure,
		now:    time.Now,
	}
}

// Set seals {token, user, expiresAt} into the session cookie.
// expiresAt is now + SessionMaxAge; calling Set again renews it.
func (s *SessionService) Set(w http.ResponseWriter, token string, user models.User) error {
	if token == "" {
		return ErrEmptyToken
	}

	session := models.Session{
		Token:     token,
		User:      user,
		ExpiresAt: s.NextExpiry(),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	value, err := s.sealer.Seal(payload, []byte(SessionCookieName))
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(SessionMaxAge / time.Second),
	})
	return nil
}

// NextExpiry is the expiresAt a Set performed now would record.
func (s *SessionService) NextExpiry() int64 {
	return s.now().Add(SessionMaxAge).UnixMilli()
}

// Get returns the current session or nil.
// A missing, undecodable or expired cookie is treated as no session. Undecodable
// and expired cookies are also cleared on w (which may be nil for read-only use).
func (s *SessionService) Get(w http.ResponseWriter, r *http.Request) *models.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := s.decode(cookie.Value)
	if err != nil {
		slog.Debug("Session cookie rejected", "path", r.URL.Path, "error", err)
		s.clearIfWritable(w)
		return nil
	}

	if session.Expired(s.now()) {
		slog.Debug("Session expired", "path", r.URL.Path, "expires_at", session.ExpiresAt)
		s.clearIfWritable(w)
		return nil
	}

	return session
}

// Token returns the bearer token of the current session, or "".
func (s *SessionService) Token(w http.ResponseWriter, r *http.Request) string {
	if session := s.Get(w, r); session != nil {
		return session.Token
	}
	return ""
}

// CurrentUser returns the user snapshot of the current session, or nil.
func (s *SessionService) CurrentUser(w http.ResponseWriter, r *http.Request) *models.User {
	if session := s.Get(w, r); session != nil {
		return &session.User
	}
	return nil
}

// IsAuthenticated reports whether a valid session exists.
func (s *SessionService) IsAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	return s.Get(w, r) != nil
}

// UpdateUser replaces the user snapshot, keeping the token.
// The rewrite renews the session for another full SessionMaxAge.
// Returns false when there is no valid session to update.
func (s *SessionService) UpdateUser(w http.ResponseWriter, r *http.Request, user models.User) (bool, error) {
	session := s.Get(w, r)
	if session == nil {
		return false, nil
	}
	if err := s.Set(w, session.Token, user); err != nil {
		return false, err
	}
	return true, nil
}

// Clear deletes the session cookie unconditionally.
func (s *SessionService) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1, // Delete cookie
	})
}

// HasSessionCookie reports cookie presence only; it does not validate.
func HasSessionCookie(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	return err == nil && cookie.Value != ""
}

func (s *SessionService) clearIfWritable(w http.ResponseWriter) {
	if w != nil {
		s.Clear(w)
	}
}

func (s *SessionService) decode(value string) (*models.Session, error) {
	payload, err := s.sealer.Open(value, []byte(SessionCookieName))
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, ErrEmptyToken
	}
	return &session, nil
}

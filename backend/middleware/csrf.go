// ABOUTME: CSRF protection middleware using double-submit cookie pattern
// ABOUTME: Validates X-CSRF-Token header (or form field) matches DRIVE_CSRF cookie for session requests

package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"mime"
	"net/http"

	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

const (
	// CSRFCookieName is readable by scripts and the CLI so they can echo it back
	CSRFCookieName = "DRIVE_CSRF"
	// CSRFHeaderName carries the echoed token on API writes
	CSRFHeaderName = "X-CSRF-Token"
	// CSRFFormField carries the echoed token on server-rendered form posts
	CSRFFormField = "csrf_token"

	// base64url encoding of 32 bytes produces 44 characters (with padding)
	csrfTokenLength = 44
)

// IssueCSRFToken generates a fresh token and sets it as the CSRF cookie.
// The cookie shares the session cookie's lifetime but is not HttpOnly.
func IssueCSRFToken(w http.ResponseWriter, secure bool) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(services.SessionMaxAge.Seconds()),
	})
	return token, nil
}

// ClearCSRFToken expires the CSRF cookie.
func ClearCSRFToken(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// CSRFToken returns the CSRF cookie value for embedding in forms, or "".
func CSRFToken(r *http.Request) string {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// CSRF returns middleware that validates CSRF tokens for state-changing requests.
// Validation is skipped for:
//   - GET, HEAD, OPTIONS requests (safe methods)
//   - Login endpoints (create a new session, must work with stale cookies)
//   - Requests without session cookie (not session-authenticated)
func CSRF() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// Skip safe methods
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next(w, r)
				return
			}

			// Skip login endpoints -- they create a new session and must work
			// even when the browser has a stale session cookie with no CSRF cookie
			if r.URL.Path == "/api/auth/login" || r.URL.Path == "/login" {
				slog.Debug("CSRF skipped: login endpoint", "path", r.URL.Path)
				next(w, r)
				return
			}

			// Skip if no session cookie (not session-authenticated)
			if !services.HasSessionCookie(r) {
				next(w, r)
				return
			}

			// Session-authenticated request - validate CSRF token
			csrfCookie, err := r.Cookie(CSRFCookieName)
			if err != nil || csrfCookie.Value == "" {
				slog.Debug("CSRF rejected: missing cookie", "path", r.URL.Path)
				writeJSONError(w, "CSRF token missing or invalid", http.StatusForbidden)
				return
			}

			submitted := r.Header.Get(CSRFHeaderName)
			if submitted == "" && isURLEncodedForm(r) {
				submitted = r.PostFormValue(CSRFFormField)
			}
			if submitted == "" {
				slog.Debug("CSRF rejected: missing header", "path", r.URL.Path)
				writeJSONError(w, "CSRF token missing or invalid", http.StatusForbidden)
				return
			}

			// Validate token lengths before comparison
			if len(csrfCookie.Value) != csrfTokenLength || len(submitted) != csrfTokenLength {
				slog.Debug("CSRF rejected: invalid token length", "path", r.URL.Path)
				writeJSONError(w, "CSRF token missing or invalid", http.StatusForbidden)
				return
			}

			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(csrfCookie.Value), []byte(submitted)) != 1 {
				slog.Debug("CSRF rejected: token mismatch", "path", r.URL.Path)
				writeJSONError(w, "CSRF token missing or invalid", http.StatusForbidden)
				return
			}

			slog.Debug("CSRF validated", "path", r.URL.Path)
			next(w, r)
		}
	}
}

// isURLEncodedForm reports a classic HTML form post. Multipart bodies are
// never parsed here so uploads keep streaming.
func isURLEncodedForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

// ABOUTME: Request gate for page navigations
// ABOUTME: Redirects anonymous users away from protected pages and signed-in users away from login

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

// ProtectedPrefixes are page trees that need a session cookie.
var ProtectedPrefixes = []string{
	"/dashboard", "/files", "/shared", "/trash", "/settings", "/admin", "/favorites",
}

// AuthOnlyPaths are pages meaningless for a signed-in user.
var AuthOnlyPaths = []string{"/login", "/register"}

// Gate wraps a handler (normally the whole mux) with presence-only session
// checks. It never decodes the cookie; the page handler does that.
func Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if !gateApplies(p) {
			next.ServeHTTP(w, r)
			return
		}

		hasCookie := services.HasSessionCookie(r)

		if !hasCookie && matchesAny(p, ProtectedPrefixes) {
			target := "/login?redirect=" + url.QueryEscape(p)
			slog.Debug("Gate: redirecting anonymous request", "path", p)
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		if hasCookie && matchesAny(p, AuthOnlyPaths) && r.Method == http.MethodGet {
			slog.Debug("Gate: redirecting signed-in request", "path", p)
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// gateApplies excludes API calls, static assets, the favicon and any path
// containing a dot.
func gateApplies(p string) bool {
	switch {
	case p == "/api" || strings.HasPrefix(p, "/api/"):
		return false
	case strings.HasPrefix(p, "/static/"), strings.HasPrefix(p, "/_next/"):
		return false
	case p == "/favicon.ico":
		return false
	case strings.Contains(p, "."):
		return false
	}
	return true
}

func matchesAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// SafeRedirect returns target when it is a local absolute path, else "/dashboard".
// Used after login so the redirect parameter cannot send users off-site.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/dashboard"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/dashboard"
	}
	return target
}

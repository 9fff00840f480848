// ABOUTME: Declarative route table for API endpoints and pages
// ABOUTME: Defines all routes with their methods, auth requirements and rate limit tier

package handlers

import (
	"net/http"

	"github.com/angga1207/drive-oi-v3-sub000/backend/middleware"
)

// RateTier selects which limiter guards a route
type RateTier int

const (
	TierDefault RateTier = iota
	TierAuth
	TierUpload
	TierNone
)

// Route defines an endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // ServeMux pattern path (e.g., "/api/upload/{destinationId}")
	Handler http.HandlerFunc // Handler function
	Public  bool             // no session required (handler may still read one)
	Role    string           // minimum role; empty means any signed-in user
	Tier    RateTier         // rate limit tier
	Page    bool             // HTML page; session handling is the handler's job
}

// Routes returns all routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health
		{Method: http.MethodGet, Path: "/api/health", Handler: h.Health, Public: true, Tier: TierNone},
		{Method: http.MethodGet, Path: "/api/openapi.yaml", Handler: h.OpenAPISpec, Public: true, Tier: TierNone},

		// Auth
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: h.Login, Public: true, Tier: TierAuth},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: h.Logout, Public: true, Tier: TierAuth},
		{Method: http.MethodGet, Path: "/api/auth/me", Handler: h.Me, Public: true},

		// Uploads
		{Method: http.MethodPost, Path: "/api/upload/{destinationId}", Handler: h.Upload, Tier: TierUpload},
		{Method: http.MethodPost, Path: "/api/upload-in-folder/{destinationId}", Handler: h.UploadInFolder, Tier: TierUpload},

		// Drive read-through
		{Method: http.MethodGet, Path: "/api/folders/{slug}", Handler: h.FolderContents},
		{Method: http.MethodGet, Path: "/api/shared", Handler: h.Shared},
		{Method: http.MethodGet, Path: "/api/trash", Handler: h.Trash},
		{Method: http.MethodGet, Path: "/api/search", Handler: h.Search},
		{Method: http.MethodGet, Path: "/api/admin/users", Handler: h.AdminUsers, Role: middleware.RoleAdmin},

		// Pages
		{Method: http.MethodGet, Path: "/{$}", Handler: h.Root, Page: true, Tier: TierNone},
		{Method: http.MethodGet, Path: "/login", Handler: h.LoginPage, Page: true},
		{Method: http.MethodPost, Path: "/login", Handler: h.LoginSubmit, Page: true, Tier: TierAuth},
		{Method: http.MethodPost, Path: "/logout", Handler: h.LogoutSubmit, Page: true, Tier: TierAuth},
		{Method: http.MethodGet, Path: "/dashboard", Handler: h.DashboardPage, Page: true},
		{Method: http.MethodGet, Path: "/files/{slug}", Handler: h.FilesPage, Page: true},
	}
}

// Limiters holds one limiter per tier; nil entries disable limiting for that tier.
type Limiters struct {
	Auth    *middleware.RateLimiter
	Upload  *middleware.RateLimiter
	Default *middleware.RateLimiter
}

func (l Limiters) forRoute(rt Route) func(http.HandlerFunc) http.HandlerFunc {
	switch rt.Tier {
	case TierAuth:
		return middleware.RateLimit(l.Auth, middleware.ClientIP)
	case TierUpload:
		return middleware.RateLimit(l.Upload, middleware.UserOrIP)
	case TierNone:
		return middleware.RateLimit(nil, nil)
	default:
		return middleware.RateLimit(l.Default, middleware.UserOrIP)
	}
}

// Register mounts every route on mux with its middleware chain:
// logging, CORS, CSRF, session auth, rate limit, role check.
func (h *Handler) Register(mux *http.ServeMux, limiters Limiters) {
	for _, rt := range h.Routes() {
		chain := []func(http.HandlerFunc) http.HandlerFunc{
			middleware.LogRequest,
			middleware.CORSWithConfig(h.cfg.CORSAllowedOrigins),
			middleware.CSRF(),
		}

		if !rt.Page {
			mode := middleware.AuthModeRequired
			if rt.Public {
				mode = middleware.AuthModeOptional
			}
			chain = append(chain, middleware.Auth(h.sessions, mode))
		}

		chain = append(chain, limiters.forRoute(rt))

		if rt.Role != "" {
			chain = append(chain, middleware.RequireRole(rt.Role))
		}

		mux.HandleFunc(rt.Method+" "+rt.Path, middleware.Chain(rt.Handler, chain...))
	}

	// CORS preflight for every API path
	mux.HandleFunc("OPTIONS /api/", middleware.Chain(
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) },
		middleware.CORSWithConfig(h.cfg.CORSAllowedOrigins),
	))
}

// Server builds the complete HTTP handler: routes behind the page gate.
func (h *Handler) Server(limiters Limiters) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux, limiters)
	return middleware.Gate(mux)
}

// ABOUTME: Drive API proxy handlers for the BFF pattern
// ABOUTME: Forwards read-only listing calls with the session token (never exposed to the client)

package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/angga1207/drive-oi-v3-sub000/backend/middleware"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

// forwardedHeaders are the backend response headers passed to the client
var forwardedHeaders = []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified"}

// proxyDriveRequest makes an authenticated GET to the Drive backend and streams the response.
func (h *Handler) proxyDriveRequest(w http.ResponseWriter, r *http.Request, drivePath string, query url.Values) {
	session := middleware.GetSession(r)
	if session == nil {
		h.writeError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	resp, err := h.drive.Forward(r.Context(), http.MethodGet, drivePath, query, session.Token)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	defer resp.Body.Close()

	for _, key := range forwardedHeaders {
		if v := resp.Header.Get(key); v != "" {
			w.Header().Set(key, v)
		}
	}

	// Stream the response
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("Drive proxy: response copy interrupted", "path", drivePath, "error", err)
	}
}

// pick copies the allowed query keys from r
func pick(r *http.Request, keys ...string) url.Values {
	in := r.URL.Query()
	out := url.Values{}
	for _, k := range keys {
		if v := in.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// FolderContents proxies GET /folders/{slug}
func (h *Handler) FolderContents(w http.ResponseWriter, r *http.Request) {
	slug := services.NormalizeDestination(r.PathValue("slug"))
	if err := services.ValidateSlug(slug); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.proxyDriveRequest(w, r, "/folders/"+slug, pick(r, "page", "sort", "order"))
}

// Shared proxies GET /shared
func (h *Handler) Shared(w http.ResponseWriter, r *http.Request) {
	h.proxyDriveRequest(w, r, "/shared", pick(r, "page", "sort", "order"))
}

// Trash proxies GET /trash
func (h *Handler) Trash(w http.ResponseWriter, r *http.Request) {
	h.proxyDriveRequest(w, r, "/trash", pick(r, "page"))
}

// Search proxies GET /search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("q") == "" {
		h.writeError(w, "Missing search query", http.StatusBadRequest)
		return
	}

	h.proxyDriveRequest(w, r, "/search", pick(r, "q", "page", "type"))
}

// AdminUsers proxies GET /admin/users (admin role enforced by the route table)
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	h.proxyDriveRequest(w, r, "/admin/users", pick(r, "page", "search", "role"))
}

// ABOUTME: HTTP handlers for the Drive web tier
// ABOUTME: Holds shared dependencies and the JSON response helpers

package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/angga1207/drive-oi-v3-sub000/backend/cache"
	"github.com/angga1207/drive-oi-v3-sub000/backend/config"
	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

type Handler struct {
	cfg      *config.Config
	drive    *services.DriveClient
	sessions *services.SessionService
	profiles *services.ProfileService
	pages    *template.Template
}

// NewHandler wires the handlers to the Drive backend named in cfg.
// profileCache backs the refresh de-duplication in /api/auth/me.
func NewHandler(cfg *config.Config, sessions *services.SessionService, profileCache *cache.Cache[models.User]) *Handler {
	drive := services.NewDriveClient(cfg.DriveAPIURL, cfg.DriveAPITimeout, cfg.DriveAPIAllProxy)

	return &Handler{
		cfg:      cfg,
		drive:    drive,
		sessions: sessions,
		profiles: services.NewProfileService(drive, profileCache),
		pages:    parsePages(),
	}
}

// Drive exposes the backend client (used by main for startup checks)
func (h *Handler) Drive() *services.DriveClient {
	return h.drive
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeBackendError maps a DriveClient error to a response.
// Backend answers keep their status and message; anything else is a 502.
func (h *Handler) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *services.APIError
	switch {
	case errors.As(err, &apiErr):
		slog.Info("Drive backend rejected request", "path", r.URL.Path, "status", apiErr.Status, "message", apiErr.Message)
		h.writeError(w, apiErr.Message, apiErr.Status)
	case errors.Is(err, services.ErrNotAuthenticated):
		h.writeError(w, "Not authenticated", http.StatusUnauthorized)
	default:
		slog.Error("Drive backend unreachable", "path", r.URL.Path, "error", err)
		h.writeError(w, "Drive backend request failed", http.StatusBadGateway)
	}
}

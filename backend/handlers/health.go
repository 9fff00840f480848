// ABOUTME: HTTP handler for the health endpoint
// ABOUTME: Reports the web tier status and Drive backend reachability

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
)

// Health returns API health status including Drive backend reachability.
// The endpoint itself always answers 200; a dead backend shows as degraded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := models.HealthResponse{
		Status:       "ok",
		DriveAPI:     "ok",
		ProxyEnabled: h.drive.Proxied(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.drive.Ping(ctx); err != nil {
		slog.Warn("Drive backend health check failed", "error", err)
		resp.Status = "degraded"
		resp.DriveAPI = "unreachable"
	}

	h.writeJSON(w, http.StatusOK, resp)
}

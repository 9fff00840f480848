// ABOUTME: Auth handlers implementing the BFF session pattern
// ABOUTME: Handles login, logout and profile refresh; the bearer token never leaves the server

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/angga1207/drive-oi-v3-sub000/backend/middleware"
	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

// maxLoginBody caps JSON login payloads
const maxLoginBody = 64 << 10

// Login authenticates with the Drive backend and stores the session cookie
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := services.ValidateLogin(req); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.startSession(w, r, req)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			slog.Warn("Authentication failed", "identifier", req.Identifier(), "status", apiErr.Status)
			h.writeJSON(w, apiErr.Status, models.LoginResponse{
				Success: false,
				Error:   apiErr.Message,
			})
			return
		}
		h.writeBackendError(w, r, err)
		return
	}

	// Return success response (no token!)
	h.writeJSON(w, http.StatusOK, models.LoginResponse{
		Success: true,
		User:    user,
	})
}

// startSession logs in against the backend and writes the session and CSRF cookies.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, req models.LoginRequest) (*models.User, error) {
	res, err := h.drive.Login(r.Context(), req.Identifier(), req.Password)
	if err != nil {
		return nil, err
	}

	if err := h.sessions.Set(w, res.Token, res.User); err != nil {
		slog.Error("Failed to create session", "error", err)
		return nil, err
	}
	if _, err := middleware.IssueCSRFToken(w, h.cfg.CookieSecure); err != nil {
		slog.Error("Failed to issue CSRF token", "error", err)
		return nil, err
	}

	slog.Info("User logged in", "user_id", res.User.ID, "username", res.User.Username)
	return &res.User, nil
}

// Logout revokes the backend token (best effort) and clears the cookies
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	if session := h.sessions.Get(nil, r); session != nil {
		if err := h.drive.Logout(r.Context(), session.Token); err != nil {
			slog.Warn("Backend logout failed, clearing session anyway", "error", err)
		}
		h.profiles.Forget(session.Token)
	}

	h.sessions.Clear(w)
	middleware.ClearCSRFToken(w, h.cfg.CookieSecure)
}

// Me returns the current user's authentication status.
// With ?refresh=1 the profile is re-fetched and the session renewed.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r)
	if session == nil {
		h.writeJSON(w, http.StatusOK, models.UserInfoResponse{
			Authenticated: false,
		})
		return
	}

	if !wantsRefresh(r) {
		h.writeJSON(w, http.StatusOK, models.UserInfoResponse{
			Authenticated: true,
			User:          &session.User,
			ExpiresAt:     session.ExpiresAt,
		})
		return
	}

	user, err := h.profiles.Refresh(r.Context(), session.Token)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			// Backend revoked the token; the cookie is useless now
			slog.Info("Backend rejected session token, clearing session", "user_id", session.User.ID)
			h.sessions.Clear(w)
			h.writeJSON(w, http.StatusOK, models.UserInfoResponse{
				Authenticated: false,
				Error:         apiErr.Message,
			})
			return
		}
		h.writeBackendError(w, r, err)
		return
	}

	ok, err := h.sessions.UpdateUser(w, r, *user)
	if err != nil || !ok {
		slog.Error("Failed to update session user", "error", err, "updated", ok)
		h.writeError(w, "Failed to update session", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, models.UserInfoResponse{
		Authenticated: true,
		User:          user,
		ExpiresAt:     h.sessions.NextExpiry(),
		Refreshed:     true,
	})
}

func wantsRefresh(r *http.Request) bool {
	switch r.URL.Query().Get("refresh") {
	case "1", "true", "yes":
		return true
	}
	return false
}

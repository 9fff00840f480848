// ABOUTME: Upload route handlers for plain and folder uploads
// ABOUTME: Validate the multipart batch, re-check the extension denylist and forward it with the session token

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/angga1207/drive-oi-v3-sub000/backend/middleware"
	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

const (
	// filesField is the repeated multipart field carrying files
	filesField = "files[]"
	// folderNameField names the folder created by a folder upload
	folderNameField = "folderName"
	// multipartMemory is held in memory per request; larger parts spill to temp files
	multipartMemory = 32 << 20
)

// Upload handles POST /api/upload/{destinationId}
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r)
	if session == nil {
		h.writeError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	form, ok := h.readUploadForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll()

	files := form.File[filesField]
	dest := services.NormalizeDestination(r.PathValue("destinationId"))

	if err := services.ValidateUpload(models.UploadForm{
		DestinationID: dest,
		FileNames:     fileNames(files),
	}); err != nil {
		h.rejectUpload(w, r, err)
		return
	}

	res, err := h.drive.Upload(r.Context(), session.Token, dest, fileParts(files))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}

	slog.Info("Upload forwarded", "user_id", session.User.ID, "destination", dest, "files", len(files))
	h.writeJSON(w, http.StatusOK, uploadResponse(res))
}

// UploadInFolder handles POST /api/upload-in-folder/{destinationId}
func (h *Handler) UploadInFolder(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r)
	if session == nil {
		h.writeError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	form, ok := h.readUploadForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll()

	files := form.File[filesField]
	dest := services.NormalizeDestination(r.PathValue("destinationId"))
	folderName := strings.TrimSpace(firstValue(form.Value[folderNameField]))

	if err := services.ValidateFolderUpload(models.FolderUploadForm{
		DestinationID: dest,
		FolderName:    folderName,
		FileNames:     fileNames(files),
	}); err != nil {
		h.rejectUpload(w, r, err)
		return
	}

	res, err := h.drive.UploadInFolder(r.Context(), session.Token, dest, folderName, fileParts(files))
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}

	slog.Info("Folder upload forwarded", "user_id", session.User.ID, "destination", dest, "folder", folderName, "files", len(files))
	h.writeJSON(w, http.StatusOK, uploadResponse(res))
}

// readUploadForm parses the multipart body under the configured size cap.
// On failure it has already written the response.
func (h *Handler) readUploadForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.UploadMaxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			slog.Warn("Upload exceeds size limit", "path", r.URL.Path, "limit", maxErr.Limit)
			h.writeError(w, "Upload too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, http.ErrNotMultipart):
			h.writeError(w, "Expected multipart/form-data", http.StatusBadRequest)
		default:
			h.writeError(w, "Invalid multipart body", http.StatusBadRequest)
		}
		return nil, false
	}
	return r.MultipartForm, true
}

func (h *Handler) rejectUpload(w http.ResponseWriter, r *http.Request, err error) {
	slog.Info("Upload rejected", "path", r.URL.Path, "reason", err.Error())
	h.writeError(w, err.Error(), http.StatusBadRequest)
}

func uploadResponse(res *services.UploadResult) models.UploadResponse {
	items := res.Items
	if items == nil {
		items = []models.Item{}
	}
	return models.UploadResponse{
		Success: true,
		Message: res.Message,
		Data:    items,
	}
}

func fileNames(files []*multipart.FileHeader) []string {
	names := make([]string, len(files))
	for i, fh := range files {
		names[i] = fh.Filename
	}
	return names
}

func fileParts(files []*multipart.FileHeader) []services.FilePart {
	parts := make([]services.FilePart, len(files))
	for i, fh := range files {
		parts[i] = services.FilePart{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	}
	return parts
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

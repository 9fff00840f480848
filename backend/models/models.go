// ABOUTME: Shared API models for the web tier
// ABOUTME: Error envelope, drive items and health payloads

package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

// Item is a file or folder record as returned by the Drive backend
type Item struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Type      string `json:"type"` // "file" or "folder"
	Extension string `json:"extension,omitempty"`
	Size      int64  `json:"size,omitempty"`
	MimeType  string `json:"mime,omitempty"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"` // backend-formatted, passed through as-is
}

// FolderContents is the listing payload for a folder
type FolderContents struct {
	Folder *Item  `json:"folder,omitempty"`
	Items  []Item `json:"items"`
	Path   []Item `json:"path,omitempty"`
}

// HealthResponse reports the web tier's view of its dependencies
type HealthResponse struct {
	Status       string `json:"status"`
	DriveAPI     string `json:"drive_api"`
	ProxyEnabled bool   `json:"proxy_enabled"`
	Timestamp    string `json:"timestamp"`
}

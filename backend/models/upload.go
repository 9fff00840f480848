// ABOUTME: Upload route models
// ABOUTME: Form contracts for single-file and folder uploads and their responses

package models

// RootDestination is the destination id meaning the user's root folder
const RootDestination = "root"

// UploadForm is the validated shape of POST /api/upload/{destinationId}
type UploadForm struct {
	DestinationID string   `validate:"required,max=255"`
	FileNames     []string `validate:"min=1,dive,required,max=255"`
}

// FolderUploadForm is the validated shape of POST /api/upload-in-folder/{destinationId}
type FolderUploadForm struct {
	DestinationID string   `validate:"required,max=255"`
	FolderName    string   `validate:"required,max=255"`
	FileNames     []string `validate:"min=1,dive,required,max=255"`
}

// UploadResponse is returned to the browser or CLI after a successful upload
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    []Item `json:"data"`
}

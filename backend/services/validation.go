// ABOUTME: Input validation for login and upload requests
// ABOUTME: Struct rules via go-playground/validator plus path-segment and extension checks

package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/internal/filepolicy"
)

// slugPattern matches backend folder slugs and destination ids (alphanumeric, hyphens, underscores)
var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError is a request that failed validation; Message is safe to show the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1 // Remove control characters
		}
		return r
	}, s)
}

// ValidateSlug validates a folder slug or destination id before it is placed
// in a backend URL path.
func ValidateSlug(slug string) error {
	if slug == "" {
		return &ValidationError{Message: "destination cannot be empty"}
	}
	if len(slug) > 255 || !slugPattern.MatchString(slug) {
		return &ValidationError{Message: fmt.Sprintf("invalid destination: %s", sanitizeForLog(slug))}
	}
	return nil
}

// NormalizeDestination maps the "0" alias to the root sentinel.
func NormalizeDestination(id string) string {
	if id == "0" {
		return models.RootDestination
	}
	return id
}

// ValidateLogin checks a login request's shape.
func ValidateLogin(req models.LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return describe(err)
	}
	return nil
}

// ValidateUpload checks a plain upload: destination, at least one file and
// no denylisted extension anywhere in the batch.
func ValidateUpload(form models.UploadForm) error {
	if err := ValidateSlug(form.DestinationID); err != nil {
		return err
	}
	if err := validate.Struct(form); err != nil {
		return describe(err)
	}
	return filepolicy.CheckAll(form.FileNames)
}

// ValidateFolderUpload checks a folder upload. A blank folder name is rejected.
func ValidateFolderUpload(form models.FolderUploadForm) error {
	if err := ValidateSlug(form.DestinationID); err != nil {
		return err
	}
	if strings.TrimSpace(form.FolderName) == "" {
		return &ValidationError{Message: "Folder name is required"}
	}
	if strings.ContainsAny(form.FolderName, "/\\") || strings.TrimSpace(form.FolderName) == ".." {
		return &ValidationError{Message: fmt.Sprintf("invalid folder name: %s", sanitizeForLog(form.FolderName))}
	}
	if err := validate.Struct(form); err != nil {
		return describe(err)
	}
	return filepolicy.CheckAll(form.FileNames)
}

// describe turns validator errors into one caller-facing message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	name, _, _ := strings.Cut(fe.StructField(), "[")
	field := fieldLabel(name)

	var msg string
	switch fe.Tag() {
	case "required", "required_without":
		msg = field + " is required"
	case "min":
		if name == "FileNames" {
			msg = "No files provided"
		} else {
			msg = fmt.Sprintf("%s must have at least %s characters", field, fe.Param())
		}
	case "max":
		msg = fmt.Sprintf("%s is too long", field)
	case "email":
		msg = "email is not a valid address"
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return &ValidationError{Message: msg}
}

func fieldLabel(structField string) string {
	switch structField {
	case "FileNames":
		return "file name"
	case "FolderName":
		return "folderName"
	case "DestinationID":
		return "destination"
	default:
		return strings.ToLower(structField)
	}
}

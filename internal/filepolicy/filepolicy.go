// ABOUTME: Upload filename policy shared by the CLI pre-flight check and the server
// ABOUTME: Rejects executable and script extensions before any bytes are sent

package filepolicy

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrBlockedExtension is wrapped by every policy rejection.
var ErrBlockedExtension = errors.New("file type not allowed")

// BlockedExtensions lists the extensions that may never be uploaded.
var BlockedExtensions = []string{
	".php", ".js", ".exe", ".bat", ".sh", ".cmd", ".com", ".pif", ".scr", ".vbs", ".jar",
}

var blocked = func() map[string]struct{} {
	m := make(map[string]struct{}, len(BlockedExtensions))
	for _, ext := range BlockedExtensions {
		m[ext] = struct{}{}
	}
	return m
}()

// IsBlocked reports whether name ends in a denylisted extension (case-insensitive).
func IsBlocked(name string) bool {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/")))
	if ext == "" {
		return false
	}
	_, ok := blocked[ext]
	return ok
}

// BlockedError names the offending file.
type BlockedError struct {
	Name string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("File type not allowed: %s", e.Name)
}

func (e *BlockedError) Unwrap() error {
	return ErrBlockedExtension
}

// CheckAll returns a *BlockedError for the first denylisted name, or nil.
// A batch is all-or-nothing: callers must reject the whole set on error.
func CheckAll(names []string) error {
	for _, name := range names {
		if IsBlocked(name) {
			return &BlockedError{Name: name}
		}
	}
	return nil
}

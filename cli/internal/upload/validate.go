// ABOUTME: Client-side batch validation against the shared extension denylist
// ABOUTME: Rejects a whole selection before any entry is queued

package upload

import (
	"github.com/angga1207/drive-oi-v3-sub000/internal/filepolicy"
)

// Validate rejects the whole batch when any name is on the extension
// denylist. Callers run it before handing files to the orchestrator.
func Validate(files []File) error {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return filepolicy.CheckAll(names)
}

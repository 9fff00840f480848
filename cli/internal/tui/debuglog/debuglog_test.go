// ABOUTME: Tests for the debug log sink
// ABOUTME: Verifies file creation, permissions and the disabled mode

package debuglog

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drive-ogan-ilir")
	path, err := Init(dir, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slog.Debug("Upload batch queued", "files", 2)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "Upload batch queued") || !strings.Contains(string(data), "files=2") {
		t.Errorf("unexpected log contents: %s", data)
	}

	info, _ := os.Stat(path)
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}
}

func TestInit_Disabled(t *testing.T) {
	dir := t.TempDir()
	path, err := Init(dir, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer Close()

	if path != "" {
		t.Errorf("expected no log path, got %s", path)
	}
	slog.Info("discarded")
	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Error("disabled logger must not create a file")
	}
}

func TestEnabled(t *testing.T) {
	t.Setenv("DRIVE_DEBUG", "true")
	if !Enabled() {
		t.Error("expected enabled for true")
	}
	t.Setenv("DRIVE_DEBUG", "")
	if Enabled() {
		t.Error("expected disabled when unset")
	}
}

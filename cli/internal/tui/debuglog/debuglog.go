// ABOUTME: Routes the CLI's slog output to a debug file instead of the terminal
// ABOUTME: Enabled by DRIVE_DEBUG; otherwise all log records are discarded

package debuglog

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logFile *os.File
	mu      sync.Mutex
)

// Enabled reports whether DRIVE_DEBUG asks for a debug log
func Enabled() bool {
	v := strings.ToLower(os.Getenv("DRIVE_DEBUG"))
	return v == "1" || v == "true" || v == "yes"
}

// Init installs the default slog logger. When enabled it appends debug-level
// text records to configDir/debug.log; otherwise it discards everything so
// nothing reaches the terminal while the panel is drawn.
func Init(configDir string, enabled bool) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || configDir == "" {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return "", nil
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return "", err
	}

	logPath := filepath.Join(configDir, "debug.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return "", err
	}

	logFile = f
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return logPath, nil
}

// Close closes the log file and discards further records
func Close() {
	mu.Lock()
	defer mu.Unlock()

	slog.SetDefault(slog.New(slog.DiscardHandler))
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

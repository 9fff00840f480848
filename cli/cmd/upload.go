// ABOUTME: Upload command for the drive CLI
// ABOUTME: Queues files or a folder through the orchestrator with a live panel or a final report

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/client"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/widgets"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/upload"
)

var (
	uploadTo           string
	uploadFolder       bool
	uploadStallTimeout time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload [flags] PATH...",
	Short: "Upload files or a folder",
	Long: `Upload files to a Drive folder. Files are sent one at a time in the order
given. With --folder, PATH is a directory: a folder of the same name is created
under the destination and every file beneath it is sent in a single request.

Interactive terminals get a live panel (x cancel selected, c clear all, q quit).
With --json or when output is not a terminal a per-file report is printed.

Exit codes:
  0 - Every file uploaded
  1 - One or more files failed
  2 - Rejected before upload (blocked file type, bad path, not signed in)`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runUpload(ctx, os.Stdout, args, isInteractive())
		if exitCode != exitOK {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadTo, "to", models.RootDestination, "Destination folder slug (root for your root folder)")
	uploadCmd.Flags().BoolVar(&uploadFolder, "folder", false, "Upload one directory as a new folder")
	uploadCmd.Flags().DurationVar(&uploadStallTimeout, "stall-timeout", upload.DefaultStallTimeout, "Abort a transfer after this long without progress")
}

// collectFiles turns the arguments into upload entries. With folder set the
// single argument is walked recursively and its base name is returned.
func collectFiles(paths []string, folder bool) ([]upload.File, string, error) {
	if !folder {
		files := make([]upload.File, 0, len(paths))
		for _, p := range paths {
			f, err := upload.FromPath(p, filepath.Base(p))
			if err != nil {
				return nil, "", err
			}
			files = append(files, f)
		}
		return files, "", nil
	}

	if len(paths) != 1 {
		return nil, "", errors.New("--folder takes exactly one directory")
	}
	root := filepath.Clean(paths[0])
	info, err := os.Stat(root)
	if err != nil {
		return nil, "", err
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("%s is not a directory", root)
	}

	var files []upload.File
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		f, err := upload.FromPath(p, d.Name())
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("%s contains no files", root)
	}
	return files, filepath.Base(root), nil
}

// folderRefresher reloads the destination listing after a batch
type folderRefresher struct {
	client *client.Client
}

func (r folderRefresher) Refresh(ctx context.Context, destinationID string) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	contents, err := r.client.FolderContents(ctx, destinationID)
	if err != nil {
		slog.Warn("Folder refresh failed", "destination", destinationID, "error", err)
		return
	}
	slog.Debug("Folder refreshed", "destination", destinationID, "items", len(contents.Items))
}

// logNotifier records the batch notification in the debug log; the plain
// report prints the outcome itself.
type logNotifier struct{}

func (logNotifier) Notify(o upload.Outcome) {
	slog.Info("Upload batch finished", "kind", o.Kind, "succeeded", o.Succeeded, "failed", o.Failed)
}

// sessionNotifier forwards the notification into the panel once it exists
type sessionNotifier struct {
	session *tui.Session
}

func (n *sessionNotifier) Notify(o upload.Outcome) {
	slog.Info("Upload batch finished", "kind", o.Kind, "succeeded", o.Succeeded, "failed", o.Failed)
	n.session.Notify(o)
}

// runUpload validates, uploads and reports, returning the exit code
func runUpload(ctx context.Context, w io.Writer, paths []string, interactive bool) int {
	files, folderName, err := collectFiles(paths, uploadFolder)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}

	if err := upload.Validate(files); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}

	c, _, saved, err := sessionClient()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitRejected
	}
	if saved == nil || !c.HasSession() {
		fmt.Fprintf(w, "Error: %v\n", client.ErrNotLoggedIn)
		return exitRejected
	}

	destination := strings.TrimSpace(uploadTo)
	if destination == "" {
		destination = models.RootDestination
	}

	batch := func(orch *upload.Orchestrator) func(context.Context) upload.BatchResult {
		return func(ctx context.Context) upload.BatchResult {
			if uploadFolder {
				return orch.AddFolderAndUpload(ctx, files, folderName, destination)
			}
			return orch.AddFilesAndUpload(ctx, files, destination)
		}
	}

	cfg := upload.Config{
		Uploader:     c,
		Refresher:    folderRefresher{client: c},
		StallTimeout: uploadStallTimeout,
	}

	var result upload.BatchResult
	if interactive {
		notifier := &sessionNotifier{}
		cfg.Notifier = notifier
		orch := upload.New(cfg)
		notifier.session = tui.NewSession(orch, destination, "Drive Ogan Ilir", nil, nil)

		result, err = notifier.session.Run(ctx, orch.Store(), batch(orch))
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	} else {
		cfg.Notifier = logNotifier{}
		orch := upload.New(cfg)
		result = batch(orch)(ctx)
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, formatUploadReport(result))
	}

	if result.Outcome.Kind == upload.OutcomeAllSuccess && result.Outcome.Failed == 0 {
		return exitOK
	}
	return exitFailed
}

// formatUploadReport renders one line per file followed by the outcome
func formatUploadReport(result upload.BatchResult) string {
	var sb strings.Builder
	for _, f := range result.Files {
		fmt.Fprintf(&sb, "%s %-8s %s (%s)", widgets.StatusIcon(f.Status), widgets.StatusLabel(f.Status), f.Name, humanize.Bytes(uint64(f.Size)))
		if f.Error != "" {
			fmt.Fprintf(&sb, ": %s", f.Error)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(widgets.OutcomeText(result.Outcome))
	return sb.String()
}

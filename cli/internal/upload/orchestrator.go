// ABOUTME: Upload orchestrator: sequential file batches and single-request folder batches
// ABOUTME: Tracks per-file progress, cancellation and stalls, then notifies once and refreshes once per batch

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// DefaultStallTimeout aborts a transfer that reports no progress for this long.
const DefaultStallTimeout = 60 * time.Second

// ErrCancelled is the reason recorded when the user aborts a transfer.
var ErrCancelled = errors.New("upload cancelled")

// StallError is the reason recorded when a transfer stops making progress.
type StallError struct {
	After time.Duration
}

func (e *StallError) Error() string {
	return fmt.Sprintf("upload stalled: no progress for %s", e.After)
}

// File is one local file selected for upload.
type File struct {
	Path string
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromPath describes a local file; name is the display and upload name.
func FromPath(path, name string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Path: path,
		Name: name,
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// ProgressFunc receives the percentage of bytes sent so far (0..100).
// Every call counts as activity for stall detection.
type ProgressFunc func(percent int)

// Uploader performs the HTTP transfers.
type Uploader interface {
	UploadFiles(ctx context.Context, destinationID string, files []File, progress ProgressFunc) error
	UploadFolder(ctx context.Context, destinationID, folderName string, files []File, progress ProgressFunc) error
}

// OutcomeKind summarises a settled batch.
type OutcomeKind string

const (
	OutcomeAllSuccess OutcomeKind = "success"
	OutcomePartial    OutcomeKind = "partial"
	OutcomeAllFailure OutcomeKind = "failure"
)

// Outcome is the single notification emitted per batch.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Folder    string      `json:"folder,omitempty"`
}

// Message renders the outcome for a toast or a log line.
func (o Outcome) Message() string {
	subject := "files"
	if o.Folder != "" {
		subject = fmt.Sprintf("folder %q", o.Folder)
	}
	switch o.Kind {
	case OutcomeAllSuccess:
		if o.Folder != "" {
			return fmt.Sprintf("Uploaded %s (%d files)", subject, o.Succeeded)
		}
		return fmt.Sprintf("Uploaded %d %s", o.Succeeded, subject)
	case OutcomePartial:
		return fmt.Sprintf("Uploaded %d of %d files, %d failed", o.Succeeded, o.Succeeded+o.Failed, o.Failed)
	default:
		if o.Folder != "" {
			return fmt.Sprintf("Failed to upload %s", subject)
		}
		return fmt.Sprintf("Failed to upload %d %s", o.Failed, subject)
	}
}

func outcomeFor(succeeded, failed int) OutcomeKind {
	switch {
	case failed == 0:
		return OutcomeAllSuccess
	case succeeded == 0:
		return OutcomeAllFailure
	default:
		return OutcomePartial
	}
}

// Notifier receives the batch outcome.
type Notifier interface {
	Notify(Outcome)
}

// Refresher reloads whatever listing shows the destination folder.
type Refresher interface {
	Refresh(ctx context.Context, destinationID string)
}

// BatchResult is returned by the batch calls once every entry has settled.
type BatchResult struct {
	Outcome Outcome      `json:"outcome"`
	Files   []UploadFile `json:"files"`
}

// Config wires an Orchestrator.
type Config struct {
	Uploader     Uploader
	Notifier     Notifier  // optional
	Refresher    Refresher // optional
	StallTimeout time.Duration
	Store        *Store // optional; a new store is created when nil
}

// Orchestrator runs upload batches against a Store.
type Orchestrator struct {
	store        *Store
	uploader     Uploader
	notifier     Notifier
	refresher    Refresher
	stallTimeout time.Duration
	newID        func() string
}

// New creates an orchestrator. A zero StallTimeout uses DefaultStallTimeout.
func New(cfg Config) *Orchestrator {
	store := cfg.Store
	if store == nil {
		store = NewStore()
	}
	stall := cfg.StallTimeout
	if stall <= 0 {
		stall = DefaultStallTimeout
	}
	return &Orchestrator{
		store:        store,
		uploader:     cfg.Uploader,
		notifier:     cfg.Notifier,
		refresher:    cfg.Refresher,
		stallTimeout: stall,
		newID:        uuid.NewString,
	}
}

// Store exposes the queue for rendering.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// AddFilesAndUpload queues every file as pending, then uploads them one at a
// time in order, one request per file. Per-file failures are recorded on the
// entries; the call itself does not fail.
func (o *Orchestrator) AddFilesAndUpload(ctx context.Context, files []File, destinationID string) BatchResult {
	entries := make([]UploadFile, len(files))
	for i, f := range files {
		entries[i] = UploadFile{ID: o.newID(), Path: f.Path, Name: f.Name, Size: f.Size, Status: StatusPending}
	}
	o.store.append(entries)
	slog.Debug("Upload batch queued", "files", len(entries), "destination", destinationID)

	var succeeded, failed int
	for i, f := range files {
		id := entries[i].ID
		if _, ok := o.store.Get(id); !ok {
			// removed before its turn
			failed++
			continue
		}

		err := o.transfer(ctx, id, []string{id}, func(tctx context.Context, progress ProgressFunc) error {
			return o.uploader.UploadFiles(tctx, destinationID, []File{f}, progress)
		})
		if err != nil {
			failed++
		} else {
			succeeded++
		}
	}

	return o.finish(ctx, entries, Outcome{Kind: outcomeFor(succeeded, failed), Succeeded: succeeded, Failed: failed}, destinationID)
}

// AddFolderAndUpload queues the folder's files as "folderName/name" entries
// and sends them in a single request. All entries share one progress value
// and settle together.
func (o *Orchestrator) AddFolderAndUpload(ctx context.Context, files []File, folderName, destinationID string) BatchResult {
	entries := make([]UploadFile, len(files))
	ids := make([]string, len(files))
	for i, f := range files {
		entries[i] = UploadFile{ID: o.newID(), Path: f.Path, Name: folderName + "/" + f.Name, Size: f.Size, Status: StatusPending}
		ids[i] = entries[i].ID
	}
	o.store.append(entries)
	slog.Debug("Folder batch queued", "folder", folderName, "files", len(entries), "destination", destinationID)

	batchID := "batch-" + o.newID()
	err := o.transfer(ctx, batchID, ids, func(tctx context.Context, progress ProgressFunc) error {
		return o.uploader.UploadFolder(tctx, destinationID, folderName, files, progress)
	})

	outcome := Outcome{Folder: folderName}
	if err != nil {
		outcome.Kind, outcome.Failed = OutcomeAllFailure, len(files)
	} else {
		outcome.Kind, outcome.Succeeded = OutcomeAllSuccess, len(files)
	}
	return o.finish(ctx, entries, outcome, destinationID)
}

// RemoveFile aborts the transfer carrying id, if any, and drops the entry.
// For a folder batch this aborts the whole batch.
func (o *Orchestrator) RemoveFile(id string) {
	o.store.remove(id, ErrCancelled)
}

// ClearAll aborts every transfer and empties the queue.
func (o *Orchestrator) ClearAll() {
	o.store.clear(ErrCancelled)
}

// transfer runs one outgoing request for members under handleID. The handle
// is acquired before the request opens and released on every exit path.
func (o *Orchestrator) transfer(parent context.Context, handleID string, members []string, run func(context.Context, ProgressFunc) error) error {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	o.store.acquire(handleID, cancel, members...)
	defer o.store.release(handleID)

	stall := &StallError{After: o.stallTimeout}
	watchdog := time.AfterFunc(o.stallTimeout, func() { cancel(stall) })
	defer watchdog.Stop()

	for _, id := range members {
		o.store.update(id, func(f *UploadFile) { f.Status = StatusUploading })
	}

	progress := func(percent int) {
		if percent >= 100 {
			// body fully sent; waiting for the response is not a stall
			watchdog.Stop()
		} else {
			watchdog.Reset(o.stallTimeout)
		}
		for _, id := range members {
			o.store.update(id, func(f *UploadFile) { f.Progress = percent })
		}
	}

	err := run(ctx, progress)
	if err == nil && ctx.Err() != nil {
		// finished racing an abort; the abort wins
		err = ctx.Err()
	}

	if err != nil {
		reason := err.Error()
		if cause := context.Cause(ctx); cause != nil && ctx.Err() != nil {
			reason = cause.Error()
			if errors.Is(cause, context.Canceled) {
				reason = ErrCancelled.Error()
			}
		}
		slog.Debug("Upload failed", "handle", handleID, "reason", reason)
		for _, id := range members {
			o.store.update(id, func(f *UploadFile) { f.Status, f.Error = StatusError, reason })
		}
		return errors.New(reason)
	}

	for _, id := range members {
		o.store.update(id, func(f *UploadFile) { f.Status, f.Progress = StatusSuccess, 100 })
	}
	return nil
}

// finish emits the single notification, triggers the single refresh and
// collects the final state of the batch entries still in the queue.
func (o *Orchestrator) finish(ctx context.Context, entries []UploadFile, outcome Outcome, destinationID string) BatchResult {
	if o.notifier != nil {
		o.notifier.Notify(outcome)
	}
	if o.refresher != nil {
		o.refresher.Refresh(context.WithoutCancel(ctx), destinationID)
	}

	final := make([]UploadFile, 0, len(entries))
	for _, e := range entries {
		if cur, ok := o.store.Get(e.ID); ok {
			final = append(final, cur)
		}
	}
	slog.Debug("Upload batch settled", "kind", outcome.Kind, "succeeded", outcome.Succeeded, "failed", outcome.Failed)
	return BatchResult{Outcome: outcome, Files: final}
}

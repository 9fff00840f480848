// ABOUTME: Runs the upload panel for one batch
// ABOUTME: Bridges store snapshots and the batch notification into the bubbletea program

package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/upload"
)

// Session owns the bubbletea program for one upload batch. It implements
// upload.Notifier so the batch outcome lands in the panel.
type Session struct {
	app     *App
	program *tea.Program
}

// NewSession builds the panel. Output goes to out; pass nil for stdout.
func NewSession(controls Controls, destination, title string, in io.Reader, out io.Writer) *Session {
	app := New(controls, destination, title)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return &Session{app: app, program: tea.NewProgram(app, opts...)}
}

// Notify implements upload.Notifier
func (s *Session) Notify(o upload.Outcome) {
	s.program.Send(outcomeMsg(o))
}

// Run subscribes to store, starts batch in the background and blocks until
// the user quits. Quitting while transfers are outgoing clears the queue
// through controls and waits for the batch to settle.
func (s *Session) Run(ctx context.Context, store *upload.Store, batch func(context.Context) upload.BatchResult) (upload.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := store.Subscribe(func(snap upload.Snapshot) {
		s.program.Send(snapshotMsg(snap))
	})
	defer unsubscribe()

	done := make(chan upload.BatchResult, 1)
	go func() {
		result := batch(ctx)
		done <- result
		s.program.Send(batchDoneMsg{})
	}()

	go func() {
		<-ctx.Done()
		s.program.Quit()
	}()

	_, err := s.program.Run()

	select {
	case result := <-done:
		return result, err
	default:
	}

	s.app.controls.ClearAll()
	cancel()
	return <-done, err
}

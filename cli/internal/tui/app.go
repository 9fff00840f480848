// ABOUTME: Root bubbletea model for the upload panel
// ABOUTME: Renders queue snapshots and routes cancel, clear and quit keys to the orchestrator

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/icons"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/styles"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/widgets"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/upload"
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum frame width
	rowBarWidth      = 20
	nameColumnMin    = 24
)

// Controls are the orchestrator operations the panel can trigger.
type Controls interface {
	RemoveFile(id string)
	ClearAll()
}

// snapshotMsg carries a queue snapshot published by the store
type snapshotMsg upload.Snapshot

// outcomeMsg carries the batch notification
type outcomeMsg upload.Outcome

// batchDoneMsg is sent when the batch call returns
type batchDoneMsg struct{}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Cancel key.Binding
	Clear  key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑↓", "Select"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "Cancel"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "Clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "Quit"),
	),
}

// App is the root model for the upload panel
type App struct {
	controls    Controls
	destination string
	title       string
	width       int
	height      int

	files    []upload.UploadFile
	version  uint64
	selected int

	outcome  *upload.Outcome
	done     bool
	started  time.Time
	finished time.Time

	overall progress.Model
}

// New creates the panel for a batch targeting destination
func New(controls Controls, destination, title string) *App {
	return &App{
		controls:    controls,
		destination: destination,
		title:       title,
		started:     time.Now(),
		overall:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.overall.Width = max(a.frameWidth()-4, 10)
		return a, nil

	case snapshotMsg:
		// deliveries may race; keep the newest
		if msg.Version < a.version {
			return a, nil
		}
		a.version = msg.Version
		a.files = msg.Files
		a.selected = min(a.selected, max(len(a.files)-1, 0))
		return a, nil

	case outcomeMsg:
		o := upload.Outcome(msg)
		a.outcome = &o
		return a, nil

	case batchDoneMsg:
		a.done = true
		a.finished = time.Now()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

// handleKey maps keys to orchestrator calls. The calls run as commands so
// the store can publish back into the program without blocking the loop.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Up):
		if a.selected > 0 {
			a.selected--
		}

	case key.Matches(msg, keys.Down):
		if a.selected < len(a.files)-1 {
			a.selected++
		}

	case key.Matches(msg, keys.Cancel):
		if a.selected < len(a.files) {
			id := a.files[a.selected].ID
			return a, func() tea.Msg {
				a.controls.RemoveFile(id)
				return nil
			}
		}

	case key.Matches(msg, keys.Clear):
		if len(a.files) > 0 {
			return a, func() tea.Msg {
				a.controls.ClearAll()
				return nil
			}
		}
	}
	return a, nil
}

// Selected returns the id of the highlighted entry, if any
func (a *App) Selected() (string, bool) {
	if a.selected < len(a.files) {
		return a.files[a.selected].ID, true
	}
	return "", false
}

// View implements tea.Model
func (a *App) View() string {
	var content strings.Builder

	content.WriteString(a.viewSummary())
	content.WriteString("\n\n")
	content.WriteString(a.viewQueue())
	if a.outcome != nil {
		content.WriteString("\n\n")
		content.WriteString(widgets.OutcomeText(*a.outcome))
	}

	return a.wrapWithFrame(content.String())
}

// viewSummary renders counts and the overall bar weighted by size
func (a *App) viewSummary() string {
	var done, failed int
	var totalBytes, sentBytes int64
	for _, f := range a.files {
		switch f.Status {
		case upload.StatusSuccess:
			done++
		case upload.StatusError:
			failed++
		}
		totalBytes += f.Size
		sentBytes += f.Size * int64(f.Progress) / 100
	}

	ratio := 0.0
	if totalBytes > 0 {
		ratio = float64(sentBytes) / float64(totalBytes)
	} else if len(a.files) > 0 && done+failed == len(a.files) {
		ratio = 1
	}

	line := fmt.Sprintf("%s %s  %s %s  %s",
		styles.ValueStyle.Render(fmt.Sprintf("%d/%d", done, len(a.files))),
		styles.LabelStyle.Render("uploaded"),
		styles.StatusCritical.Render(fmt.Sprintf("%d", failed)),
		styles.LabelStyle.Render("failed"),
		styles.LabelStyle.Render(humanize.Bytes(uint64(sentBytes))+" of "+humanize.Bytes(uint64(totalBytes))),
	)
	return line + "\n" + a.overall.ViewAs(ratio)
}

// viewQueue renders one row per entry plus an error line for failures
func (a *App) viewQueue() string {
	if len(a.files) == 0 {
		return styles.Subtitle.Render("Queue is empty")
	}

	nameWidth := max(a.frameWidth()-rowBarWidth-30, nameColumnMin)

	var rows []string
	for i, f := range a.files {
		cursor := "  "
		name := truncate(f.Name, nameWidth)
		if i == a.selected {
			cursor = styles.Selected.Render(icons.Select.String() + " ")
			name = styles.Selected.Render(name)
		}

		row := fmt.Sprintf("%s%s %s %s %s",
			cursor,
			widgets.StatusIcon(f.Status),
			lipgloss.NewStyle().Width(nameWidth).Render(name),
			widgets.UploadBarWithLabel(f.Progress, f.Status, rowBarWidth),
			styles.LabelStyle.Render(humanize.Bytes(uint64(f.Size))),
		)
		rows = append(rows, row)

		if f.Status == upload.StatusError && f.Error != "" {
			rows = append(rows, "     "+styles.ErrorText.Render(f.Error))
		}
	}
	return strings.Join(rows, "\n")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// frameWidth guards against zero/small width before WindowSizeMsg is received
func (a *App) frameWidth() int {
	width := a.width - 1
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width
}

// renderHeader creates the header bar with app branding and the destination
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render(a.title))
	rightText := " " + contextStyle.Render(icons.Cloud.String()+" "+a.destination) + " "

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText) // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮")
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	for _, b := range []key.Binding{keys.Up, keys.Cancel, keys.Clear, keys.Quit} {
		h := b.Help()
		shortcuts = append(shortcuts, styles.KeyStyle.Render(h.Key)+" "+styles.LabelStyle.Render(h.Desc))
	}
	leftText := " " + strings.Join(shortcuts, "  ") + " "

	status := "Started " + formatTimeSince(a.started)
	if a.done {
		status = "Finished in " + a.finished.Sub(a.started).Round(time.Second).String()
	}
	rightText := " " + statusStyle.Render(status) + " "

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯")
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

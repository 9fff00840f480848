// ABOUTME: Shared lipgloss styles for the upload panel and CLI reports
// ABOUTME: Defines the palette and the text styles used by the frame, rows and toasts

package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#0EA5E9") // Sky
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Text      = lipgloss.Color("#F9FAFB") // Light
	Surface   = lipgloss.Color("#374151") // Empty bar segments
	Accent    = lipgloss.Color("#38BDF8") // Selection highlight

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted)

	// Status indicators
	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)

	// Selected queue row
	Selected = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	// Inline error under a failed row
	ErrorText = lipgloss.NewStyle().
			Foreground(Danger).
			Italic(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Primary)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)
)

// ABOUTME: Status badges for upload queue entries
// ABOUTME: Maps each upload status to a colored badge, icon and label

package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/icons"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/styles"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/upload"
)

// StatusColor returns the palette color for an upload status
func StatusColor(status upload.Status) lipgloss.Color {
	switch status {
	case upload.StatusSuccess:
		return styles.Secondary
	case upload.StatusError:
		return styles.Danger
	case upload.StatusUploading:
		return styles.Primary
	default:
		return styles.Muted
	}
}

// StatusIcon returns the colored icon for an upload status
func StatusIcon(status upload.Status) string {
	var icon icons.Icon
	switch status {
	case upload.StatusSuccess:
		icon = icons.CheckOK
	case upload.StatusError:
		icon = icons.Critical
	case upload.StatusUploading:
		icon = icons.Uploading
	default:
		icon = icons.Pending
	}
	return lipgloss.NewStyle().Foreground(StatusColor(status)).Render(icon.String())
}

// Badge renders a colored status badge
func Badge(status upload.Status) string {
	fg := lipgloss.Color("#FFFFFF")
	if status == upload.StatusPending {
		fg = styles.Text
	}

	return lipgloss.NewStyle().
		Background(StatusColor(status)).
		Foreground(fg).
		Padding(0, 1).
		Bold(true).
		Render(StatusLabel(status))
}

// StatusLabel is the short label shown in badges and plain reports
func StatusLabel(status upload.Status) string {
	switch status {
	case upload.StatusSuccess:
		return "DONE"
	case upload.StatusError:
		return "FAILED"
	case upload.StatusUploading:
		return "SENDING"
	default:
		return "QUEUED"
	}
}

// OutcomeText renders a batch outcome as a colored one-liner
func OutcomeText(o upload.Outcome) string {
	var style lipgloss.Style
	var icon icons.Icon
	switch o.Kind {
	case upload.OutcomeAllSuccess:
		style, icon = styles.StatusOK, icons.CheckOK
	case upload.OutcomePartial:
		style, icon = styles.StatusWarning, icons.Warning
	default:
		style, icon = styles.StatusCritical, icons.Critical
	}
	return fmt.Sprintf("%s %s", style.Render(icon.String()), style.Render(o.Message()))
}

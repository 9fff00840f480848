// ABOUTME: Per-file upload bar colored by upload status
// ABOUTME: Renders a fixed-width bar with the percentage label used in queue rows

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/tui/styles"
	"github.com/angga1207/drive-oi-v3-sub000/cli/internal/upload"
)

// DefaultBarWidth is used when the caller passes a non-positive width
const DefaultBarWidth = 20

// UploadBar renders progress for one entry. Failed entries keep the
// progress they reached, drawn in the error color.
func UploadBar(percent int, status upload.Status, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	percent = max(0, min(percent, 100))

	filled := percent * width / 100
	filledStyle := lipgloss.NewStyle().Foreground(StatusColor(status))
	emptyStyle := lipgloss.NewStyle().Foreground(styles.Surface)

	var bar strings.Builder
	bar.WriteString("[")
	bar.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	bar.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))
	bar.WriteString("]")
	return bar.String()
}

// UploadBarWithLabel appends the right-aligned percentage
func UploadBarWithLabel(percent int, status upload.Status, width int) string {
	label := lipgloss.NewStyle().Foreground(StatusColor(status)).Render(fmt.Sprintf("%3d%%", max(0, min(percent, 100))))
	return UploadBar(percent, status, width) + " " + label
}

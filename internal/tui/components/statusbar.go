package components

import (
	"strings"

	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left and
// where the data came from on the right. A non-empty notice replaces the
// hints.
func RenderStatusBar(width int, notice, dataInfo string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	left := " [?]help  [r]eload  [q]uit"
	if notice != "" {
		left = " " + notice
	}
	right := ""
	if dataInfo != "" {
		right = dataInfo + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return style.Render(left + strings.Repeat(" ", padding) + right)
}

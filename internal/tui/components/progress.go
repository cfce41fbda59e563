package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a loading bar with a trailing percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	filled := int(pct * float64(width))
	filled = min(max(filled, 0), width)

	barColor := t.Accent
	if pct >= 0.8 {
		barColor = t.AccentBright
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))
	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

func solidBar(color lipgloss.Color, width int) progress.Model {
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(theme.Active.TextDim)
	return bar
}

// UtilizationBar shows actual spend against anticipated. The bar fills at
// 100% and turns the over-budget color beyond it; the label shows the true
// ratio.
func UtilizationBar(label string, actual, anticipated float64, labelW, barW int) string {
	t := theme.Active

	ratio := 0.0
	if anticipated > 0 {
		ratio = actual / anticipated
	}
	color := t.Under
	if ratio > 1 {
		color = t.Over
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	pctStr := "  n/a"
	if anticipated > 0 {
		pctStr = fmt.Sprintf("%4.0f%%", ratio*100)
	}
	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		spaceStyle.Render(" ") +
		solidBar(color, barW).ViewAs(min(ratio, 1)) +
		spaceStyle.Render(" ") +
		pctStyle.Render(pctStr)
}

// ShareBar renders one spend line: its name, a bar for its share of the
// group total and the formatted amount.
func ShareBar(label string, share float64, amount string, color lipgloss.Color, labelW, barW int) string {
	t := theme.Active
	share = min(max(share, 0), 1)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		spaceStyle.Render(" ") +
		solidBar(color, barW).ViewAs(share) +
		spaceStyle.Render(" ") +
		amountStyle.Render(fmt.Sprintf("%5.1f%%  %s", share*100, amount))
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

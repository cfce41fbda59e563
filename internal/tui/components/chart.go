package components

import (
	"math"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		buf.WriteRune(blocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// Column is one month in a MonthColumns chart.
type Column struct {
	Label       string
	Actual      float64
	Anticipated float64
}

// MonthColumns renders actual spend per month as vertical bars, colored by
// whether the month came in over or under its anticipated spend. The
// anticipated level is marked with a thin rule where it sits above the bar.
func MonthColumns(cols []Column, width, height int) string {
	if len(cols) == 0 {
		return ""
	}
	t := theme.Active
	if height < 3 || width < 15 {
		values := make([]float64, len(cols))
		for i, c := range cols {
			values[i] = c.Actual
		}
		return Sparkline(values, t.Accent)
	}

	peak := 0.0
	for _, c := range cols {
		peak = math.Max(peak, math.Max(c.Actual, c.Anticipated))
	}
	if peak == 0 {
		peak = 1
	}

	top := cli.FormatCompact(peak)
	axisW := len(top) + 1
	colW := (width - axisW) / len(cols)
	colW = min(max(colW, 3), 9)
	barW := colW - 1

	surface := lipgloss.NewStyle().Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	markStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		axis := ""
		switch row {
		case height:
			axis = top
		case 1:
			axis = "0"
		}
		b.WriteString(axisStyle.Render(padLeft(axis, axisW-1) + "│"))

		for _, c := range cols {
			barStyle := lipgloss.NewStyle().Foreground(t.VarianceColor(c.Actual - c.Anticipated)).Background(t.Surface)
			level := c.Actual / peak * float64(height)
			mark := int(math.Ceil(c.Anticipated / peak * float64(height)))

			var cell string
			switch {
			case level >= float64(row):
				cell = barStyle.Render(strings.Repeat("█", barW))
			case level > float64(row-1):
				frac := level - float64(row-1)
				idx := min(int(frac*float64(len(blocks))), len(blocks)-1)
				cell = barStyle.Render(strings.Repeat(string(blocks[idx]), barW))
			case c.Anticipated > 0 && mark == row:
				cell = markStyle.Render(strings.Repeat("─", barW))
			default:
				cell = surface.Render(strings.Repeat(" ", barW))
			}
			b.WriteString(cell + surface.Render(" "))
		}
		b.WriteByte('\n')
	}

	b.WriteString(surface.Render(strings.Repeat(" ", axisW)))
	for _, c := range cols {
		label := c.Label
		if len(label) > barW {
			label = label[:barW]
		}
		b.WriteString(labelStyle.Render(padRight(label, colW)))
	}
	return b.String()
}

func padLeft(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}

func padRight(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

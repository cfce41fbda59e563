package components

import (
	"strings"

	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// TableColumn describes one column of a Table.
type TableColumn struct {
	Title string
	Width int
	Left  bool
}

// Table renders rows under a header line inside a card body. Cells are
// truncated to their column width. selected highlights one row; pass -1
// for none. Each cell may carry its own color through colors, which is
// indexed like rows and may be nil.
func Table(cols []TableColumn, rows [][]string, colors [][]lipgloss.Color, selected int) string {
	t := theme.Active
	base := lipgloss.NewStyle().Background(t.Surface)
	header := base.Foreground(t.Accent).Bold(true)
	cell := base.Foreground(t.TextPrimary)
	rule := base.Foreground(t.Border)

	var b strings.Builder
	total := 0
	for i, c := range cols {
		if i > 0 {
			b.WriteString(base.Render(" "))
			total++
		}
		b.WriteString(header.Render(align(c.Title, c.Width, c.Left)))
		total += c.Width
	}
	b.WriteString("\n")
	b.WriteString(rule.Render(strings.Repeat("─", total)))

	for r, row := range rows {
		b.WriteString("\n")
		rowBase := base
		if r == selected {
			rowBase = base.Background(t.SurfaceHover)
		}
		for i, c := range cols {
			if i > 0 {
				b.WriteString(rowBase.Render(" "))
			}
			text := ""
			if i < len(row) {
				text = row[i]
			}
			style := rowBase.Foreground(cell.GetForeground())
			if r < len(colors) && i < len(colors[r]) && colors[r][i] != "" {
				style = rowBase.Foreground(colors[r][i])
			}
			if r == selected {
				style = style.Bold(true)
			}
			b.WriteString(style.Render(align(text, c.Width, c.Left)))
		}
	}
	return b.String()
}

func align(s string, w int, left bool) string {
	s = truncate(s, w)
	if left {
		return padRight(s, w)
	}
	return padLeft(s, w)
}

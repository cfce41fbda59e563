package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/tui/components"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const ledgerChartH = 6

func (a App) renderLedgerTab(cw, h int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	id, u, ok := a.selectedUnit()
	if !ok {
		return components.ContentCard("Ledger", dim.Render("No units in the model."), cw)
	}

	var b strings.Builder
	title := fmt.Sprintf("%s · %s", id, u.TeamName)

	months := pipeline.ByMonth(u)
	if len(months) == 0 {
		b.WriteString(components.ContentCard(title, dim.Render("No month records yet. Upload actuals from the Uploads tab."), cw))
		return b.String()
	}

	chartCols := make([]components.Column, len(months))
	for i, m := range months {
		chartCols[i] = components.Column{Label: m.Month, Actual: m.Actual, Anticipated: m.Anticipated}
	}
	chart := components.MonthColumns(chartCols, components.CardInnerWidth(cw), ledgerChartH)
	b.WriteString(components.ContentCard(title+" · actual by month", chart, cw))
	b.WriteString("\n")

	// Ledger rows around the cursor
	ledger := pipeline.Ledger(u)
	used := lipgloss.Height(b.String()) - 1
	visible := max(h-used-5, 3)
	start := 0
	if a.ledgerCursor >= visible {
		start = a.ledgerCursor - visible + 1
	}
	end := min(start+visible, len(ledger))

	inner := components.CardInnerWidth(cw)
	catW := max((inner-10-7-4*(moneyColW+1)-8-3-2)/2, 8)
	cols := []components.TableColumn{
		{Title: "Date", Width: 10, Left: true},
		{Title: "Month", Width: 6, Left: true},
		{Title: "Category", Width: catW, Left: true},
		{Title: "Actual", Width: moneyColW},
		{Title: "Anticipated", Width: moneyColW},
		{Title: "Variance", Width: moneyColW},
		{Title: "% Var", Width: 7},
		{Title: "Dominant", Width: catW, Left: true},
	}

	rows := make([][]string, 0, end-start)
	colors := make([][]lipgloss.Color, 0, end-start)
	for _, r := range ledger[start:end] {
		category := r.Category
		if category == "" {
			category = "-"
		}
		varColor := t.VarianceColor(r.Variance)
		rows = append(rows, []string{
			r.Date,
			r.Month,
			category,
			cli.FormatMoney(r.Actual),
			cli.FormatMoney(r.Anticipated),
			cli.FormatVariance(r.Variance),
			cli.FormatPercent(r.VariancePercent),
			r.Dominant,
		})
		colors = append(colors, []lipgloss.Color{5: varColor, 6: varColor})
	}

	ledgerTitle := fmt.Sprintf("Records %d-%d of %d", start+1, end, len(ledger))
	b.WriteString(components.ContentCard(ledgerTitle, components.Table(cols, rows, colors, a.ledgerCursor-start), cw))
	return b.String()
}

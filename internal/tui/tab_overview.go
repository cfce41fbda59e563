package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/tui/components"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const moneyColW = 11

func varianceWord(v float64) string {
	switch {
	case v > 0:
		return "over anticipated"
	case v < 0:
		return "under anticipated"
	default:
		return "on plan"
	}
}

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	ov := a.overview

	spendLabel := "Total spend"
	if a.filter.Active() {
		spendLabel = "Filtered spend"
	}
	metrics := []components.Metric{
		{Label: spendLabel, Value: cli.FormatCompact(ov.Spend), Delta: fmt.Sprintf("%d units", len(ov.Units))},
		{Label: "Actual", Value: cli.FormatCompact(ov.Actual), Delta: cli.FormatCompact(ov.AverageMonthly) + " / month"},
		{Label: "Anticipated", Value: cli.FormatCompact(ov.Anticipated)},
		{Label: "Variance", Value: cli.FormatVariance(ov.Variance), Delta: varianceWord(ov.Variance), DeltaColor: t.VarianceColor(ov.Variance)},
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Units table
	inner := components.CardInnerWidth(cw)
	numeric := []string{"People", "Programs", "Actual", "Anticipated", "Variance"}
	if a.filter.Active() {
		numeric = append([]string{"Weight"}, numeric...)
	}
	teamW := max(inner-6-len(numeric)*(moneyColW+1)-2, 8)

	cols := []components.TableColumn{
		{Title: "Unit", Width: 6, Left: true},
		{Title: "Team", Width: teamW, Left: true},
	}
	for _, name := range numeric {
		cols = append(cols, components.TableColumn{Title: name, Width: moneyColW})
	}

	rows := make([][]string, 0, len(ov.Units))
	colors := make([][]lipgloss.Color, 0, len(ov.Units))
	for _, u := range ov.Units {
		row := []string{u.ID, u.TeamName}
		if a.filter.Active() {
			row = append(row, cli.FormatShare(u.Weight))
		}
		row = append(row,
			cli.FormatCompact(u.PeopleSpend),
			cli.FormatCompact(u.ProgramSpend),
			cli.FormatCompact(u.Actual*u.Weight),
			cli.FormatCompact(u.Anticipated*u.Weight),
			cli.FormatVariance(u.Variance*u.Weight),
		)
		rowColors := make([]lipgloss.Color, len(row))
		rowColors[len(row)-1] = t.VarianceColor(u.Variance)
		rows = append(rows, row)
		colors = append(colors, rowColors)
	}

	selected := -1
	if id, _, ok := a.selectedUnit(); ok {
		for i, u := range ov.Units {
			if u.ID == id {
				selected = i
			}
		}
	}

	title := "Units"
	if a.filter.Active() {
		title = "Units · actuals weighted by " + a.filter.Label()
	}
	b.WriteString(components.ContentCard(title, components.Table(cols, rows, colors, selected), cw))
	b.WriteString("\n")

	// Utilization
	var util strings.Builder
	barW := max(inner-6-1-6-2, 10)
	for i, u := range ov.Units {
		if i > 0 {
			util.WriteString("\n")
		}
		util.WriteString(components.UtilizationBar(u.ID, u.Actual, u.Anticipated, 6, barW))
	}
	if len(ov.Units) == 0 {
		util.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No units in the model."))
	}
	b.WriteString(components.ContentCard("Actual vs anticipated", util.String(), cw))

	return b.String()
}

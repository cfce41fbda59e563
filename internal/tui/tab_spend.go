package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/tui/components"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderSpendTab(cw int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	id, u, ok := a.selectedUnit()
	if !ok {
		return components.ContentCard("Spend", dim.Render("No units in the model."), cw)
	}

	var b strings.Builder
	people := spendTotal(u.People)
	programs := spendTotal(u.Programs)
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: id + " people", Value: cli.FormatCompact(people), Delta: shareOf(people, people+programs)},
		{Label: id + " programs", Value: cli.FormatCompact(programs), Delta: shareOf(programs, people+programs)},
		{Label: "Total", Value: cli.FormatCompact(people + programs), Delta: u.TeamName},
	}, cw))
	b.WriteString("\n")

	// Group cards side by side unless the terminal is narrow
	widths := []int{cw, cw}
	if !a.isCompactLayout() {
		widths = components.LayoutRow(cw, 2)
	}
	groupCard := func(g model.Group, entries []model.SpendEntry, total float64, color lipgloss.Color, w int) string {
		title := fmt.Sprintf("%s · %s", strings.ToUpper(string(g[:1]))+string(g[1:]), cli.FormatMoney(total))
		if len(entries) == 0 {
			return components.ContentCard(title, dim.Render("No spend entries."), w)
		}
		inner := components.CardInnerWidth(w)
		labelW := min(18, inner/3)
		barW := max(inner-labelW-1-1-18, 6)
		lines := make([]string, len(entries))
		for i, e := range entries {
			share := 0.0
			if total > 0 {
				share = e.Amount / total
			}
			lines[i] = components.ShareBar(e.Name, share, cli.FormatCompact(e.Amount), color, labelW, barW)
		}
		return components.ContentCard(title, strings.Join(lines, "\n"), w)
	}
	peopleCard := groupCard(model.GroupPeople, u.People, people, t.People, widths[0])
	programsCard := groupCard(model.GroupPrograms, u.Programs, programs, t.Programs, widths[1])
	if a.isCompactLayout() {
		b.WriteString(peopleCard + "\n" + programsCard)
	} else {
		b.WriteString(components.CardRow([]string{peopleCard, programsCard}))
	}
	b.WriteString("\n")

	// Latest month split across the filtered group's spend types
	split := pipeline.GroupMonthly(u, a.filter.Group)
	if len(split) == 0 {
		return b.String()
	}
	latest := split[len(split)-1]
	title := fmt.Sprintf("%s actual %s split across %s", latest.Month, cli.FormatMoney(latest.Actual), a.filter.Label())
	cols := []components.TableColumn{
		{Title: "Spend type", Width: 24, Left: true},
		{Title: "Category", Width: 14, Left: true},
		{Title: "Share", Width: moneyColW},
	}
	rows := make([][]string, 0, len(latest.Shares))
	for _, s := range latest.Shares {
		rows = append(rows, []string{s.Name, model.CategoryFor(s.Name), cli.FormatMoney(s.Amount)})
	}
	b.WriteString(components.ContentCard(title, components.Table(cols, rows, nil, -1), cw))
	return b.String()
}

func spendTotal(entries []model.SpendEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Amount
	}
	return total
}

func shareOf(part, whole float64) string {
	if whole == 0 {
		return "no spend"
	}
	return cli.FormatShare(part/whole) + " of total"
}

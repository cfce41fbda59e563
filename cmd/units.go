package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List units with spend and month totals",
	Args:  cobra.NoArgs,
	RunE:  runUnits,
}

var unitCmd = &cobra.Command{
	Use:   "unit <id>",
	Short: "Show one unit's month ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnit,
}

var spendCmd = &cobra.Command{
	Use:   "spend <id>",
	Short: "Show one unit's people and programs spend",
	Long: "Show one unit's people and programs spend. With --group, also split\n" +
		"each month's actual across that group's spend types.",
	Args: cobra.ExactArgs(1),
	RunE: runSpend,
}

func init() {
	rootCmd.AddCommand(unitsCmd)
	rootCmd.AddCommand(unitCmd)
	rootCmd.AddCommand(spendCmd)
}

func runUnits(_ *cobra.Command, _ []string) error {
	res, st, err := loadBudget()
	if err != nil {
		return err
	}
	defer closeStore(st)

	b := res.Budget
	var rows [][]string
	for _, id := range b.UnitIDs() {
		s := pipeline.SummarizeUnit(id, b.Units[id], pipeline.Filter{})
		rows = append(rows, []string{
			s.ID,
			s.TeamName,
			cli.FormatMoney(s.TotalSpend),
			strconv.Itoa(s.Records),
			cli.FormatMoney(s.Actual),
			cli.FormatMoney(s.Anticipated),
			cli.RenderVariance(s.Variance),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Units  %s", b.FinancialYear),
		Headers:  []string{"Unit", "Team", "Spend", "Records", "Actual", "Anticipated", "Variance"},
		Rows:     rows,
		LeftCols: 2,
	}))
	return nil
}

// lookupUnit loads the model and finds unit id in it.
func lookupUnit(id string) (model.UnitBudget, *pipeline.LoadResult, error) {
	res, st, err := loadBudget()
	if err != nil {
		return model.UnitBudget{}, nil, err
	}
	closeStore(st)

	u, ok := res.Budget.Unit(id)
	if !ok {
		return model.UnitBudget{}, nil, fmt.Errorf("unknown unit %q (see `budgetdash units`)", id)
	}
	return u, res, nil
}

func runUnit(_ *cobra.Command, args []string) error {
	id := args[0]
	u, _, err := lookupUnit(id)
	if err != nil {
		return err
	}
	s := pipeline.SummarizeUnit(id, u, pipeline.Filter{})

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", id, u.TeamName)))
	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Spend", fmt.Sprintf("%s (people %s, programs %s)",
			cli.FormatMoney(s.TotalSpend), cli.FormatMoney(s.PeopleSpend), cli.FormatMoney(s.ProgramSpend))},
		{"Actual", cli.FormatMoney(s.Actual)},
		{"Anticipated", cli.FormatMoney(s.Anticipated)},
		{"Variance", cli.RenderVariance(s.Variance)},
	}))

	if len(u.Months) == 0 {
		fmt.Println("\n  No month records yet. Add one with `budgetdash record add` or upload actuals.")
		return nil
	}

	var rows [][]string
	for _, r := range pipeline.Ledger(u) {
		rows = append(rows, []string{
			strconv.Itoa(r.Index + 1),
			r.Date,
			r.Month,
			r.Category,
			cli.FormatMoney(r.Actual),
			cli.FormatMoney(r.Anticipated),
			cli.RenderVariance(r.Variance),
			cli.FormatPercent(r.VariancePercent),
			r.Dominant,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Ledger",
		Headers:  []string{"#", "Date", "Month", "Category", "Actual", "Anticipated", "Variance", "% Var", "Dominant"},
		Rows:     rows,
		LeftCols: 4,
	}))

	months := pipeline.ByMonth(u)
	peak := 0.0
	actuals := make([]float64, len(months))
	for i, m := range months {
		actuals[i] = m.Actual
		peak = math.Max(peak, math.Max(m.Actual, m.Anticipated))
	}
	fmt.Println()
	fmt.Printf("  Actual by month  %s\n\n", cli.RenderSparkline(actuals))
	for _, m := range months {
		fmt.Println(cli.RenderHorizontalBar(m.Month, 7, m.Actual, peak, 40,
			fmt.Sprintf("%s of %s", cli.FormatCompact(m.Actual), cli.FormatCompact(m.Anticipated))))
	}
	return nil
}

func runSpend(_ *cobra.Command, args []string) error {
	f, err := currentFilter()
	if err != nil {
		return err
	}
	id := args[0]
	u, _, err := lookupUnit(id)
	if err != nil {
		return err
	}

	lines := pipeline.SpendBreakdown(u)
	if len(lines) == 0 {
		fmt.Printf("\n  Unit %s has no spend entries.\n", id)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SPEND  %s  %s", id, u.TeamName)))

	for _, g := range []model.Group{model.GroupPeople, model.GroupPrograms} {
		var total, peak float64
		for _, l := range lines {
			if l.Group == g {
				total += l.Amount
				peak = math.Max(peak, l.Amount)
			}
		}
		fmt.Printf("\n  %s  %s\n\n", g, cli.FormatMoney(total))
		for _, l := range lines {
			if l.Group != g {
				continue
			}
			fmt.Println(cli.RenderHorizontalBar(l.Name, 24, l.Amount, peak, 30,
				fmt.Sprintf("%s  %d%%  %s", cli.FormatMoney(l.Amount), l.Value, l.Category)))
		}
	}

	if f.Group == "" {
		return nil
	}
	split := pipeline.GroupMonthly(u, f.Group)
	if len(split) == 0 {
		return nil
	}
	headers := []string{"Month", "Actual"}
	for _, s := range split[0].Shares {
		headers = append(headers, s.Name)
	}
	var rows [][]string
	for _, mb := range split {
		row := []string{mb.Month, cli.FormatMoney(mb.Actual)}
		for _, s := range mb.Shares {
			row = append(row, cli.FormatCompact(s.Amount))
		}
		rows = append(rows, row)
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Monthly actual split across %s", f.Group),
		Headers: headers,
		Rows:    rows,
	}))
	return nil
}

package cmd

import (
	"fmt"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Budget overview across all units",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	f, err := currentFilter()
	if err != nil {
		return err
	}
	res, st, err := loadBudget()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ov := pipeline.BuildOverview(res.Budget, f)
	if len(ov.Units) == 0 {
		fmt.Println("\n  The model has no units.")
		fmt.Println("  Run `budgetdash seed init` to write a starter seed file.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BUDGET OVERVIEW  %s", ov.FinancialYear)))
	fmt.Println()

	spendLabel := "Total spend"
	if f.Active() {
		spendLabel = "Spend (" + f.Label() + ")"
	}
	fmt.Print(cli.RenderKV([][2]string{
		{spendLabel, cli.FormatMoney(ov.Spend)},
		{"Actual", cli.FormatMoney(ov.Actual)},
		{"Anticipated", cli.FormatMoney(ov.Anticipated)},
		{"Variance", cli.RenderVariance(ov.Variance)},
		{"Average monthly", cli.FormatMoney(ov.AverageMonthly)},
	}))
	fmt.Println()

	headers := []string{"Unit", "Team", "People", "Programs", "Actual", "Anticipated", "Variance"}
	if f.Active() {
		headers = []string{"Unit", "Team", "Filtered", "Weight", "Actual", "Anticipated", "Variance"}
	}
	var rows [][]string
	for _, u := range ov.Units {
		row := []string{u.ID, u.TeamName}
		if f.Active() {
			row = append(row, cli.FormatMoney(u.FilteredSpend), cli.FormatShare(u.Weight))
		} else {
			row = append(row, cli.FormatMoney(u.PeopleSpend), cli.FormatMoney(u.ProgramSpend))
		}
		row = append(row,
			cli.FormatMoney(u.Actual*u.Weight),
			cli.FormatMoney(u.Anticipated*u.Weight),
			cli.RenderVariance(u.Variance*u.Weight),
		)
		rows = append(rows, row)
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"", "Total", "", "",
		cli.FormatMoney(ov.Actual), cli.FormatMoney(ov.Anticipated), cli.RenderVariance(ov.Variance)})
	if !f.Active() {
		var people, programs float64
		for _, u := range ov.Units {
			people += u.PeopleSpend
			programs += u.ProgramSpend
		}
		rows[len(rows)-1][2] = cli.FormatMoney(people)
		rows[len(rows)-1][3] = cli.FormatMoney(programs)
	} else {
		rows[len(rows)-1][2] = cli.FormatMoney(ov.Spend)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Units",
		Headers:  headers,
		Rows:     rows,
		LeftCols: 2,
	}))
	return nil
}

package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/reconcile"
	"github.com/theirongolddev/budgetdash/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagRecDate        string
	flagRecMonth       string
	flagRecCategory    string
	flagRecActual      float64
	flagRecAnticipated float64
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Add, edit or delete a unit's month records by hand",
}

var recordAddCmd = &cobra.Command{
	Use:   "add <unit>",
	Short: "Add a month record, merging into a matching month and category",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordAdd,
}

var recordEditCmd = &cobra.Command{
	Use:   "edit <unit> <n>",
	Short: "Replace record n (as numbered by `budgetdash unit`)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordEdit,
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <unit> <n>",
	Short: "Delete record n (as numbered by `budgetdash unit`)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordDelete,
}

func init() {
	for _, c := range []*cobra.Command{recordAddCmd, recordEditCmd} {
		c.Flags().StringVar(&flagRecDate, "date", "", "Date, YYYY-MM-DD (required)")
		c.Flags().StringVar(&flagRecMonth, "month", "", "Year month, MMM-YY (default: month of --date)")
		c.Flags().StringVar(&flagRecCategory, "category", "", "Category (required)")
		c.Flags().Float64Var(&flagRecActual, "actual", 0, "Actual amount")
		c.Flags().Float64Var(&flagRecAnticipated, "anticipated", 0, "Anticipated amount")
	}
	recordCmd.AddCommand(recordAddCmd, recordEditCmd, recordDeleteCmd)
	rootCmd.AddCommand(recordCmd)
}

func recordInput() reconcile.RecordInput {
	return reconcile.RecordInput{
		Date:        flagRecDate,
		Month:       flagRecMonth,
		Category:    flagRecCategory,
		Actual:      flagRecActual,
		Anticipated: flagRecAnticipated,
	}
}

// recordIndex turns a 1-based record number into a slice index.
func recordIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("record number must be a positive integer, got %q", arg)
	}
	return n - 1, nil
}

// editRecords loads the model, applies fn and stores the result.
func editRecords(note string, fn func(model.Budget) (model.Budget, error)) error {
	res, st, err := loadBudget()
	if err != nil {
		return err
	}
	defer closeStore(st)

	b, err := fn(res.Budget)
	if err != nil {
		return err
	}
	return saveBudget(st, b, note)
}

func saveBudget(st *store.Store, b model.Budget, note string) error {
	if st == nil {
		fmt.Println("  --no-store: change applied in memory only.")
		return nil
	}
	snap, err := st.SaveSnapshot(b, note)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	fmt.Printf("  Saved snapshot %s (%s)\n", shortID(snap.ID), note)
	return nil
}

func runRecordAdd(_ *cobra.Command, args []string) error {
	unit := args[0]
	return editRecords("record add "+unit, func(b model.Budget) (model.Budget, error) {
		return reconcile.AddRecord(b, unit, recordInput())
	})
}

func runRecordEdit(_ *cobra.Command, args []string) error {
	unit := args[0]
	idx, err := recordIndex(args[1])
	if err != nil {
		return err
	}
	return editRecords(fmt.Sprintf("record edit %s #%d", unit, idx+1), func(b model.Budget) (model.Budget, error) {
		return reconcile.UpdateRecord(b, unit, idx, recordInput())
	})
}

func runRecordDelete(_ *cobra.Command, args []string) error {
	unit := args[0]
	idx, err := recordIndex(args[1])
	if err != nil {
		return err
	}
	return editRecords(fmt.Sprintf("record delete %s #%d", unit, idx+1), func(b model.Budget) (model.Budget, error) {
		return reconcile.DeleteRecord(b, unit, idx)
	})
}

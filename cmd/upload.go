package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/source"

	"github.com/spf13/cobra"
)

var (
	flagUploadUnit   string
	flagUploadForce  bool
	flagUploadDryRun bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file|dir>...",
	Short: "Reconcile actuals or spend files into the model",
	Long: "Reconcile CSV, XLSX or JSON upload files into the model and store the\n" +
		"result as a new snapshot. Directories are scanned for supported files.\n" +
		"Files whose content was ingested before are skipped unless --force.",
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&flagUploadUnit, "unit", "u", "", "Unit receiving rows without a costcenter column (default: config default_unit)")
	uploadCmd.Flags().BoolVar(&flagUploadForce, "force", false, "Re-apply files that were ingested before")
	uploadCmd.Flags().BoolVar(&flagUploadDryRun, "dry-run", false, "Reconcile and report without saving")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(_ *cobra.Command, args []string) error {
	files, err := source.DiscoverPaths(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("\n  No upload files found.")
		return nil
	}

	res, st, err := loadBudget()
	if err != nil {
		return err
	}
	defer closeStore(st)

	unit := flagUploadUnit
	if unit == "" {
		unit = cfg.General.DefaultUnit
	}
	if unit != "" && !res.Budget.HasUnit(unit) {
		return fmt.Errorf("unknown unit %q (see `budgetdash units`)", unit)
	}

	r, err := newReconciler()
	if err != nil {
		return err
	}

	progressf("  Reconciling %d file(s)...\n", len(files))
	out, err := pipeline.IngestFiles(res.Budget, files, st, pipeline.IngestOptions{
		DefaultUnit: unit,
		Force:       flagUploadForce,
		DryRun:      flagUploadDryRun,
		Origin:      "cli",
		Reconciler:  r,
	}, func(current, total int) {
		progressf("\r  %s", cli.RenderProgressBar(current, total, 30))
		if current == total {
			progressf("\n")
		}
	})
	if err != nil {
		return err
	}

	var rows [][]string
	for _, f := range out.Files {
		status := fmt.Sprintf("%d applied", f.Report.Applied)
		switch {
		case f.Err != nil:
			status = "error: " + f.Err.Error()
		case f.Duplicate:
			status = "duplicate, skipped"
		case f.Report.Dropped() > 0:
			status += fmt.Sprintf(", %d dropped", f.Report.Dropped())
		}
		rows = append(rows, []string{
			f.Name,
			string(f.Format),
			cli.FormatNumber(int64(f.Report.Rows)),
			status,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Uploads",
		Headers:  []string{"File", "Format", "Rows", "Outcome"},
		Rows:     rows,
		LeftCols: 2,
	}))

	rep := out.Report
	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Rows", cli.FormatNumber(int64(rep.Rows))},
		{"Applied", fmt.Sprintf("%d (detail %d, actuals %d, spend %d)", rep.Applied, rep.DetailRows, rep.ActualsRows, rep.SpendRows)},
		{"Unknown unit", cli.FormatNumber(int64(rep.UnknownUnit))},
		{"No unit", cli.FormatNumber(int64(rep.NoUnit))},
		{"Unusable", cli.FormatNumber(int64(rep.Unusable))},
		{"Units touched", strings.Join(rep.Units, ", ")},
	}))

	switch {
	case flagUploadDryRun:
		fmt.Println("\n  Dry run: nothing was saved.")
	case out.Snapshot != nil:
		fmt.Printf("\n  Saved snapshot %s\n", shortID(out.Snapshot.ID))
	case st == nil && out.Changed():
		fmt.Println("\n  --no-store: changes were not saved.")
	}
	if out.FileErrors > 0 {
		return fmt.Errorf("%d file(s) failed", out.FileErrors)
	}
	return nil
}

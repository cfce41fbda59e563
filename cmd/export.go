package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/source"

	"github.com/spf13/cobra"
)

var (
	flagExportFormat string
	flagExportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a unit's monthly budget as XLSX or CSV",
	Long: "Export a unit's month records with variance columns. The file is named\n" +
		"after the team, e.g. Brand-Marketing-monthly-budget.xlsx. Use --out - to\n" +
		"write to stdout.",
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "", "xlsx or csv (default: config export.format)")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output directory, file path, or - for stdout (default: config export.dir or .)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	u, _, err := lookupUnit(args[0])
	if err != nil {
		return err
	}

	format := source.Format(strings.ToLower(flagExportFormat))
	if format == "" {
		format = source.Format(strings.ToLower(cfg.Export.Format))
	}
	if format != source.FormatXLSX && format != source.FormatCSV {
		return fmt.Errorf("unsupported export format %q (want xlsx or csv)", format)
	}

	out := flagExportOut
	if out == "" {
		out = cfg.Export.Dir
	}
	if out == "" {
		out = "."
	}
	if out == "-" {
		return source.WriteMonthly(os.Stdout, u, format)
	}

	path := out
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		path = filepath.Join(out, source.MonthlyExportName(u.TeamName, format))
	}

	f, err := os.Create(path) //nolint:gosec // user-chosen output path
	if err != nil {
		return fmt.Errorf("creating export: %w", err)
	}
	if err := source.WriteMonthly(f, u, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("  Exported %d record(s) to %s\n", len(u.Months), path)
	return nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/config"
	"github.com/theirongolddev/budgetdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = pipeline.DataDir()
	}
	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", dataDir)
	fmt.Printf("    Store:          %s\n", pipeline.StorePath(flagDataDir))
	fmt.Printf("    Seed file:      %s\n", orDefault(flagSeed, "built-in"))
	fmt.Printf("    Default unit:   %s\n", orDefault(cfg.General.DefaultUnit, "none"))
	fmt.Printf("    Currency:       %s\n", cfg.General.Currency)
	fmt.Println()

	c := cfg.Classifier
	fmt.Println("  [Classifier]")
	fmt.Printf("    People names:    %s\n", orDefault(strings.Join(c.PeopleNames, ", "), "built-in only"))
	fmt.Printf("    Program names:   %s\n", orDefault(strings.Join(c.ProgramNames, ", "), "built-in only"))
	fmt.Printf("    People keywords: %s\n", orDefault(strings.Join(c.PeopleKeywords, ", "), "built-in only"))
	fmt.Printf("    Rules file:      %s\n", orDefault(c.RulesFile, "none"))
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Inbox:         %s\n", orDefault(cfg.Daemon.InboxDir, "disabled"))
	fmt.Printf("    Scan interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Export]")
	fmt.Printf("    Format:    %s\n", cfg.Export.Format)
	fmt.Printf("    Directory: %s\n", orDefault(cfg.Export.Dir, "."))
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `budgetdash setup` to reconfigure.")
	return nil
}

// Package cmd implements the budgetdash CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/config"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/reconcile"
	"github.com/theirongolddev/budgetdash/internal/store"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	flagDataDir    string
	flagSeed       string
	flagQuiet      bool
	flagNoStore    bool
	flagGroup      string
	flagSpendTypes []string

	// cfg is the effective configuration, loaded before every command.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "budgetdash",
	Short: "Team budget reconciliation dashboard",
	Long: "Reconcile uploaded actuals and spend files into per-team budgets,\n" +
		"and explore them from the terminal, a TUI, or a local HTTP daemon.",
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory holding the snapshot store (default "+pipeline.DataDir()+")")
	rootCmd.PersistentFlags().StringVar(&flagSeed, "seed", "", "Seed model JSON used when the store is empty")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagNoStore, "no-store", false, "Work on the seed in memory; nothing is saved")
	rootCmd.PersistentFlags().StringVarP(&flagGroup, "group", "g", "", "Overview filter: all, people or programs")
	rootCmd.PersistentFlags().StringSliceVar(&flagSpendTypes, "spend-type", nil, "Overview filter: spend types to keep (repeatable)")
}

// initRuntime loads the config and lets it fill flags the user did not set.
func initRuntime(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if !flags.Changed("data-dir") && cfg.General.DataDir != "" {
		flagDataDir = cfg.General.DataDir
	}
	if !flags.Changed("seed") && cfg.General.SeedFile != "" {
		flagSeed = cfg.General.SeedFile
	}
	if cfg.General.Currency != "" {
		cli.Currency = cfg.General.Currency
	}

	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		flagQuiet = true
	}
	return nil
}

// progressf prints a progress line to stderr unless --quiet.
func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// openStore opens the snapshot store, or returns nil with --no-store.
func openStore() (*store.Store, error) {
	if flagNoStore {
		return nil, nil
	}
	st, err := store.Open(pipeline.StorePath(flagDataDir))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if st != nil {
		_ = st.Close()
	}
}

// loadBudget is the shared load path: newest snapshot, then the seed file,
// then the built-in seed. The caller closes the returned store.
func loadBudget() (*pipeline.LoadResult, *store.Store, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	res, err := pipeline.LoadBudget(st, flagSeed)
	if err != nil {
		closeStore(st)
		return nil, nil, err
	}

	switch res.Origin {
	case pipeline.OriginStore:
		progressf("  Loaded snapshot %s (%s)\n", shortID(res.Snapshot.ID), cli.FormatAge(res.Snapshot.CreatedAt))
	case pipeline.OriginSeedFile:
		progressf("  Loaded seed %s\n", flagSeed)
	default:
		progressf("  Using built-in seed\n")
	}
	return res, st, nil
}

// newReconciler builds a reconciler with the configured classifier.
func newReconciler() (*reconcile.Reconciler, error) {
	c, err := config.BuildClassifier(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	return reconcile.New(reconcile.WithClassifier(c)), nil
}

func currentFilter() (pipeline.Filter, error) {
	return pipeline.ParseFilter(flagGroup, flagSpendTypes)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

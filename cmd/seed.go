package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/budgetdash/internal/source"

	"github.com/spf13/cobra"
)

var flagSeedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Work with seed model files",
}

var seedInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the built-in seed model to a JSON file for editing",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeedInit,
}

func init() {
	seedInitCmd.Flags().BoolVar(&flagSeedForce, "force", false, "Overwrite an existing file")
	seedCmd.AddCommand(seedInitCmd)
	rootCmd.AddCommand(seedCmd)
}

func runSeedInit(_ *cobra.Command, args []string) error {
	path := "seed.json"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !flagSeedForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, source.DefaultSeedJSON(), 0o644); err != nil { //nolint:gosec // seed files are not secret
		return fmt.Errorf("writing seed: %w", err)
	}
	fmt.Printf("  Wrote %s\n", path)
	fmt.Printf("  Use it with --seed %s or set general.seed_file in %s\n", path, "config.toml")
	return nil
}

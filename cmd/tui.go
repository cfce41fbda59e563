package cmd

import (
	"fmt"

	"github.com/theirongolddev/budgetdash/internal/config"
	"github.com/theirongolddev/budgetdash/internal/tui"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive budget dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(cfg.Appearance.Theme)

	// Background fills rely on ANSI output even when stdout detection says otherwise.
	lipgloss.SetColorProfile(termenv.TrueColor)

	f, err := currentFilter()
	if err != nil {
		return err
	}
	r, err := newReconciler()
	if err != nil {
		return err
	}

	app := tui.NewApp(tui.Options{
		DataDir:     flagDataDir,
		SeedPath:    flagSeed,
		NoStore:     flagNoStore,
		DefaultUnit: cfg.General.DefaultUnit,
		Filter:      f,
		Reconciler:  r,
		SkipSetup:   config.Exists(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/config"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	res, st, err := loadBudget()
	if err != nil {
		return err
	}
	closeStore(st)

	next := cfg
	interval := strconv.Itoa(next.Daemon.IntervalSec)

	unitOpts := []huh.Option[string]{huh.NewOption("none (uploads must carry a costcenter)", "")}
	for _, id := range res.Budget.UnitIDs() {
		label := id
		if team := res.Budget.Units[id].TeamName; team != "" {
			label += "  " + team
		}
		unitOpts = append(unitOpts, huh.NewOption(label, id))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default unit").
				Description("Receives upload rows that have no costcenter column.").
				Options(unitOpts...).
				Value(&next.General.DefaultUnit),
			huh.NewInput().
				Title("Currency symbol").
				Value(&next.General.Currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("currency symbol is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Seed file").
				Description("Model JSON used while the store is empty. Leave blank for the built-in seed.").
				Value(&next.General.SeedFile),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Daemon address").
				Value(&next.Daemon.Addr),
			huh.NewInput().
				Title("Inbox directory").
				Description("The daemon reconciles files dropped here. Leave blank to disable.").
				Value(&next.Daemon.InboxDir),
			huh.NewInput().
				Title("Inbox scan interval (seconds)").
				Value(&interval).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n <= 0 {
						return errors.New("enter a positive whole number")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&next.Appearance.Theme),
			huh.NewSelect[string]().
				Title("Export format").
				Options(huh.NewOption("Excel workbook (.xlsx)", "xlsx"), huh.NewOption("CSV", "csv")).
				Value(&next.Export.Format),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; config unchanged.")
			return nil
		}
		return err
	}

	next.General.Currency = strings.TrimSpace(next.General.Currency)
	next.Daemon.IntervalSec, _ = strconv.Atoi(strings.TrimSpace(interval))

	if err := config.Save(next); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `budgetdash setup` anytime to reconfigure.")
	return nil
}

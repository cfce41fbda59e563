package tui

import (
	"errors"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/config"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run form answers. The form binds to these
// fields by pointer, so App keeps them behind a pointer too.
type setupValues struct {
	defaultUnit  string
	currency     string
	themeName    string
	exportFormat string
}

// newSetupForm builds the first-run wizard. units lists the budget's unit
// IDs for the default-unit choice.
func newSetupForm(units []string, vals *setupValues) *huh.Form {
	cfg := loadConfigOrDefault()
	vals.defaultUnit = cfg.General.DefaultUnit
	vals.currency = cfg.General.Currency
	vals.themeName = cfg.Appearance.Theme
	vals.exportFormat = cfg.Export.Format

	unitOpts := []huh.Option[string]{huh.NewOption("none (uploads must carry a costcenter)", "")}
	for _, id := range units {
		unitOpts = append(unitOpts, huh.NewOption(id, id))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to budgetdash").
				Description("Answer a few questions to write your config file.\nYou can change these later with budgetdash config."),
			huh.NewSelect[string]().
				Title("Default unit").
				Description("Receives upload rows that have no costcenter column.").
				Options(unitOpts...).
				Value(&vals.defaultUnit),
			huh.NewInput().
				Title("Currency symbol").
				Placeholder("R").
				Validate(validateCurrency).
				Value(&vals.currency),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&vals.themeName),
			huh.NewSelect[string]().
				Title("Export format").
				Options(huh.NewOption("Excel workbook (.xlsx)", "xlsx"), huh.NewOption("CSV", "csv")).
				Value(&vals.exportFormat),
		),
	)
}

func validateCurrency(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("currency symbol is required")
	}
	if len([]rune(s)) > 4 {
		return errors.New("keep the symbol to 4 characters or fewer")
	}
	return nil
}

// saveSetupConfig writes the wizard answers to the config file and applies
// them to the running dashboard.
func (a *App) saveSetupConfig() error {
	cfg := loadConfigOrDefault()
	cfg.General.DefaultUnit = a.setupVals.defaultUnit
	cfg.General.Currency = strings.TrimSpace(a.setupVals.currency)
	cfg.Appearance.Theme = a.setupVals.themeName
	cfg.Export.Format = a.setupVals.exportFormat

	theme.SetActive(cfg.Appearance.Theme)
	cli.Currency = cfg.General.Currency
	a.opts.DefaultUnit = cfg.General.DefaultUnit
	a.unitPicked = false

	return config.Save(cfg)
}

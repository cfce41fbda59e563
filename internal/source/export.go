package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/model"

	"github.com/xuri/excelize/v2"
)

// MonthlyHeaders are the column titles of a monthly budget export.
var MonthlyHeaders = []string{"Date", "Year Month", "Category", "Actual", "Anticipated", "Variance", "% Variance"}

// ExportRow is one month record laid out for export.
type ExportRow struct {
	Date        string
	Month       string
	Category    string
	Actual      float64
	Anticipated float64
	Variance    float64
	VariancePct string // one decimal and a percent sign, "0.0%" without an anticipated value
}

// MonthlyRows lays out a unit's month records in stored order. Records
// without a date are dated the first of their month.
func MonthlyRows(u model.UnitBudget) []ExportRow {
	rows := make([]ExportRow, 0, len(u.Months))
	for _, m := range u.Months {
		date := m.Date
		if date == "" {
			date = model.FullDate(m.Month)
		}
		rows = append(rows, ExportRow{
			Date:        date,
			Month:       m.Month,
			Category:    m.Category,
			Actual:      m.Actual,
			Anticipated: m.Anticipated,
			Variance:    m.Variance(),
			VariancePct: strconv.FormatFloat(m.VariancePercent(), 'f', 1, 64) + "%",
		})
	}
	return rows
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// MonthlyExportName returns the download file name for a team's export,
// e.g. "Brand-Marketing-monthly-budget.xlsx".
func MonthlyExportName(team string, format Format) string {
	base := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(team), "-"), "-")
	if base == "" {
		base = "team"
	}
	if format == "" {
		format = FormatXLSX
	}
	return fmt.Sprintf("%s-monthly-budget.%s", base, format)
}

// WriteMonthly writes the export in the requested format.
func WriteMonthly(w io.Writer, u model.UnitBudget, format Format) error {
	switch format {
	case FormatXLSX, "":
		return WriteMonthlyXLSX(w, u)
	case FormatCSV:
		return WriteMonthlyCSV(w, u)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// WriteMonthlyCSV writes the export as CSV.
func WriteMonthlyCSV(w io.Writer, u model.UnitBudget) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MonthlyHeaders); err != nil {
		return err
	}
	for _, r := range MonthlyRows(u) {
		rec := []string{
			r.Date,
			r.Month,
			r.Category,
			formatAmount(r.Actual),
			formatAmount(r.Anticipated),
			formatAmount(r.Variance),
			r.VariancePct,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteMonthlyXLSX writes the export as a single-sheet workbook named
// "Monthly Budget".
func WriteMonthlyXLSX(w io.Writer, u model.UnitBudget) error {
	const sheet = "Monthly Budget"

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{
		NumFmt:    4,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return err
	}

	header := make([]any, len(MonthlyHeaders))
	for i, h := range MonthlyHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", headerStyle); err != nil {
		return err
	}

	rows := MonthlyRows(u)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{r.Date, r.Month, r.Category, r.Actual, r.Anticipated, r.Variance, r.VariancePct}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		last := len(rows) + 1
		if err := f.SetCellStyle(sheet, "D2", fmt.Sprintf("F%d", last), amountStyle); err != nil {
			return err
		}
	}

	for col, width := range map[string]float64{"A": 12, "B": 12, "C": 20, "D": 14, "E": 14, "F": 14, "G": 12} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

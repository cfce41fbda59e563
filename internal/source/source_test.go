package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecodeCSV(t *testing.T) {
	data := "\xef\xbb\xbf Costcenter , Spend Type,Amount\n" +
		"4100,Paid Media,\"1,200\"\n" +
		",,\n" +
		"\n" +
		"4200, General ,50,extra\n"

	up, err := Decode("actuals.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, FormatCSV, up.Format)
	assert.Equal(t, []string{"Costcenter", "Spend Type", "Amount"}, up.Columns)
	require.Len(t, up.Rows, 2)
	assert.Equal(t, reconcile.RawRow{"Costcenter": "4100", "Spend Type": "Paid Media", "Amount": "1,200"}, up.Rows[0])
	assert.Equal(t, "General", up.Rows[1]["Spend Type"])
	assert.Equal(t, 1, up.Blank)
	assert.Len(t, up.Hash, 64)

	again, err := Decode("copy.csv", strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, up.Hash, again.Hash, "hash depends on content only")
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"costcenter", "date", "actual"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{4100, 45731, 1200.5}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	up, err := Decode("upload.XLSX", &buf)
	require.NoError(t, err)
	require.Len(t, up.Rows, 1)

	row := reconcile.Normalize(up.Rows[0], "")
	assert.Equal(t, "4100", row.Unit)
	assert.Equal(t, "2025-03-15", row.Date)
	assert.Equal(t, "Mar-25", row.Month)
	assert.Equal(t, 1200.5, row.Actual)
}

func TestDecodeJSON(t *testing.T) {
	data := `[{"costcenter": 4100, "spend type": "UIF", "amount": 12.5}, {}]`
	up, err := Decode("rows.json", strings.NewReader(data))
	require.NoError(t, err)

	require.Len(t, up.Rows, 1)
	assert.Equal(t, json.Number("4100"), up.Rows[0]["costcenter"])
	assert.Equal(t, []string{"amount", "costcenter", "spend type"}, up.Columns)
	assert.Equal(t, 1, up.Blank)

	_, err = Decode("rows.json", strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := Decode("notes.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeRowsHashIsStable(t *testing.T) {
	rows := []reconcile.RawRow{{"b": "2", "a": "1"}}
	a, err := DecodeRows("api", rows)
	require.NoError(t, err)
	b, err := DecodeRows("api", []reconcile.RawRow{{"a": "1", "b": "2"}})
	require.NoError(t, err)
	assert.Equal(t, a.Hash, b.Hash)
}

func TestScanInbox(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string, age time.Duration) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		ts := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, ts, ts))
	}
	write("new.csv", time.Minute)
	write("old.xlsx", time.Hour)
	write("team/mid.json", 10*time.Minute)
	write("notes.txt", time.Hour)
	write(".hidden.csv", time.Hour)
	write("~$old.xlsx", time.Hour)
	write(".git/skip.csv", time.Hour)

	files, err := ScanInbox(dir)
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"old.xlsx", "team/mid.json", "new.csv"}, names)
	assert.Equal(t, map[Format]int{FormatCSV: 1, FormatXLSX: 1, FormatJSON: 1}, CountFormats(files))

	missing, err := ScanInbox(filepath.Join(dir, "absent"))
	assert.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("amount\n5\n"), 0o600))

	res := DecodeFile(DiscoveredFile{Path: path})
	require.NoError(t, res.Err)
	assert.Equal(t, "a.csv", res.Upload.Name)
	assert.Len(t, res.Upload.Rows, 1)

	res = DecodeFile(DiscoveredFile{Path: filepath.Join(dir, "gone.csv")})
	assert.Error(t, res.Err)
}

func TestDefaultSeed(t *testing.T) {
	b, err := DefaultSeed()
	require.NoError(t, err)

	assert.Equal(t, "FY2025/26", b.FinancialYear)
	assert.Equal(t, []string{"4100", "4200", "4300"}, b.UnitIDs())
	for _, id := range b.UnitIDs() {
		u := b.Units[id]
		assert.NotEmpty(t, u.TeamName)
		sum := 0
		for _, e := range u.AllSpend() {
			sum += e.Value
			assert.Equal(t, reconcile.Percent(e.Amount, u.SpendTotal()), e.Value, "%s/%s", id, e.Name)
		}
		assert.InDelta(t, 100, sum, float64(len(u.AllSpend())), id)
	}
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, DefaultSeedJSON(), 0o600))
	b, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Len(t, b.Units, 3)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func exportUnit() model.UnitBudget {
	return model.UnitBudget{
		TeamName: "Brand Marketing",
		Months: []model.MonthRecord{
			{Date: "2025-03-04", Month: "Mar-25", Category: "Events", Actual: 120, Anticipated: 100},
			{Month: "Apr-25", Category: "Compensation", Actual: 50},
		},
	}
}

func TestMonthlyRows(t *testing.T) {
	rows := MonthlyRows(exportUnit())
	require.Len(t, rows, 2)
	assert.Equal(t, "20.0%", rows[0].VariancePct)
	assert.Equal(t, 20.0, rows[0].Variance)
	assert.Equal(t, "2025-04-01", rows[1].Date)
	assert.Equal(t, "0.0%", rows[1].VariancePct)
}

func TestWriteMonthlyCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthly(&buf, exportUnit(), FormatCSV))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, MonthlyHeaders, recs[0])
	assert.Equal(t, []string{"2025-03-04", "Mar-25", "Events", "120", "100", "20", "20.0%"}, recs[1])
}

func TestWriteMonthlyXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthly(&buf, exportUnit(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, "Monthly Budget", f.GetSheetName(0))
	rows, err := f.GetRows("Monthly Budget")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, MonthlyHeaders, rows[0])
	assert.Equal(t, "Apr-25", rows[2][1])
	assert.Equal(t, "0.0%", rows[2][6])
}

func TestWriteMonthlyRejectsUnknownFormat(t *testing.T) {
	err := WriteMonthly(&bytes.Buffer{}, exportUnit(), FormatJSON)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestMonthlyExportName(t *testing.T) {
	assert.Equal(t, "Brand-Marketing-monthly-budget.xlsx", MonthlyExportName("Brand Marketing", FormatXLSX))
	assert.Equal(t, "R-D-monthly-budget.csv", MonthlyExportName(" R&D ", FormatCSV))
	assert.Equal(t, "team-monthly-budget.xlsx", MonthlyExportName("", ""))
}

func TestDiscoverPaths(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "a.csv"), []byte("x\n1\n"), 0o600))
	single := filepath.Join(dir, "june.json")
	require.NoError(t, os.WriteFile(single, []byte("[]"), 0o600))

	files, err := DiscoverPaths([]string{single, inbox})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "june.json", files[0].Name)
	assert.Equal(t, FormatJSON, files[0].Format)
	assert.Equal(t, "a.csv", files[1].Name)

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hi"), 0o600))
	_, err = DiscoverPaths([]string{notes})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = DiscoverPaths([]string{filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)
}

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/reconcile"
	"github.com/theirongolddev/budgetdash/internal/source"
	"github.com/theirongolddev/budgetdash/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(StorePath(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func writeFile(t *testing.T, dir, name, body string) source.DiscoveredFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	format, _ := source.FormatOf(name)
	return source.DiscoveredFile{Path: path, Name: name, Format: format}
}

func TestLoadBudgetFallbacks(t *testing.T) {
	res, err := LoadBudget(nil, "")
	require.NoError(t, err)
	assert.Equal(t, OriginBuiltinSeed, res.Origin)
	assert.Len(t, res.Budget.Units, 3)

	seedPath := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seedPath, []byte(`{"financialYear":"FY1","7":{"teamName":"Seven"}}`), 0o600))
	res, err = LoadBudget(nil, seedPath)
	require.NoError(t, err)
	assert.Equal(t, OriginSeedFile, res.Origin)
	assert.Equal(t, []string{"7"}, res.Budget.UnitIDs())

	res, err = LoadBudget(nil, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, OriginBuiltinSeed, res.Origin)

	st := openStore(t)
	snap, err := st.SaveSnapshot(model.Budget{FinancialYear: "FY2", Units: map[string]model.UnitBudget{"9": {TeamName: "Nine"}}}, "test")
	require.NoError(t, err)
	res, err = LoadBudget(st, seedPath)
	require.NoError(t, err)
	assert.Equal(t, OriginStore, res.Origin)
	assert.Equal(t, snap.ID, res.Snapshot.ID)
	assert.Equal(t, "FY2", res.Budget.FinancialYear)
}

func TestDecodeAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var files []source.DiscoveredFile
	for i := 0; i < 12; i++ {
		files = append(files, writeFile(t, dir, fmt.Sprintf("f%02d.csv", i), fmt.Sprintf("amount\n%d\n", i)))
	}
	files = append(files, source.DiscoveredFile{Path: filepath.Join(dir, "gone.csv"), Name: "gone.csv"})

	var calls atomic.Int64
	results := DecodeAll(files, func(current, total int) {
		calls.Add(1)
		assert.Equal(t, 13, total)
	})

	require.Len(t, results, 13)
	assert.EqualValues(t, 13, calls.Load())
	for i := 0; i < 12; i++ {
		require.NoError(t, results[i].Err)
		assert.Equal(t, fmt.Sprint(i), results[i].Upload.Rows[0]["amount"])
	}
	assert.Error(t, results[12].Err)
}

func TestIngestFilesStoresOneSnapshot(t *testing.T) {
	st := openStore(t)
	dir := t.TempDir()
	prior, err := source.DefaultSeed()
	require.NoError(t, err)

	files := []source.DiscoveredFile{
		writeFile(t, dir, "spend.csv", "costcenter,spend type,category,amount\n4200,Paid Media,Programs,700000\n"),
		writeFile(t, dir, "detail.csv", "year month,category,actual,anticipated\nMay-25,Events,10,20\n"),
		writeFile(t, dir, "broken.json", "{"),
	}

	res, err := IngestFiles(prior, files, st, IngestOptions{DefaultUnit: "4300", Origin: "cli"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Ingested)
	assert.Equal(t, 1, res.FileErrors)
	assert.Equal(t, []string{"4200", "4300"}, res.Report.Units)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, "upload 2 files", res.Snapshot.Note)

	g, i, ok := res.Budget.Units["4200"].FindSpend("Paid Media")
	require.True(t, ok)
	assert.Equal(t, 700000.0, res.Budget.Units["4200"].Entries(g)[i].Amount)
	assert.Len(t, res.Budget.Units["4300"].Months, 1)

	stored, snap, err := st.LatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, res.Snapshot.ID, snap.ID)
	assert.Equal(t, res.Budget, stored)

	ups, err := st.ListUploads(0)
	require.NoError(t, err)
	assert.Len(t, ups, 2)
}

func TestApplySkipsDuplicates(t *testing.T) {
	st := openStore(t)
	prior, err := source.DefaultSeed()
	require.NoError(t, err)

	up, err := source.DecodeRows("api", []reconcile.RawRow{{"costcenter": "4100", "date": "2025-06-01", "actual": "5"}})
	require.NoError(t, err)
	batch := []source.DecodeResult{{Upload: up}, {Upload: up}}

	first, err := Apply(prior, batch, st, IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Ingested)
	assert.Equal(t, 1, first.Duplicates, "same content twice in one batch")

	second, err := Apply(first.Budget, batch[:1], st, IngestOptions{})
	require.NoError(t, err)
	assert.Zero(t, second.Ingested)
	assert.Equal(t, 1, second.Duplicates)
	assert.Nil(t, second.Snapshot)

	forced, err := Apply(first.Budget, batch[:1], st, IngestOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, forced.Ingested)
	require.NotNil(t, forced.Snapshot)
}

func TestApplyDryRunLeavesStoreAlone(t *testing.T) {
	st := openStore(t)
	prior, err := source.DefaultSeed()
	require.NoError(t, err)
	up, err := source.DecodeRows("api", []reconcile.RawRow{{"costcenter": "4100", "spend type": "General", "category": "Programs", "amount": 1}})
	require.NoError(t, err)

	res, err := Apply(prior, []source.DecodeResult{{Upload: up}}, st, IngestOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.Changed())
	assert.Nil(t, res.Snapshot)

	n, err := st.SnapshotCount()
	require.NoError(t, err)
	assert.Zero(t, n)
	seen, err := st.HasUpload(up.Hash)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestApplyRecordsUploadsThatChangeNothing(t *testing.T) {
	st := openStore(t)
	prior, err := source.DefaultSeed()
	require.NoError(t, err)
	up, err := source.DecodeRows("api", []reconcile.RawRow{{"costcenter": "9999", "spend type": "General", "category": "Programs", "amount": 1}})
	require.NoError(t, err)

	res, err := Apply(prior, []source.DecodeResult{{Upload: up}}, st, IngestOptions{Origin: "inbox"})
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Nil(t, res.Snapshot)
	assert.Equal(t, 1, res.Report.UnknownUnit)

	seen, err := st.HasUpload(up.Hash)
	require.NoError(t, err)
	assert.True(t, seen)
}

func viewBudget() model.Budget {
	return model.Budget{
		FinancialYear: "FY",
		Units: map[string]model.UnitBudget{
			"1": {
				TeamName: "One",
				People:   []model.SpendEntry{{Name: "Salaries", Amount: 750, Value: 75}},
				Programs: []model.SpendEntry{
					{Name: "Paid Media", Amount: 200, Value: 20},
					{Name: "Marketing Tech and Software", Amount: 50, Value: 5},
				},
				Months: []model.MonthRecord{
					{Month: "Mar-25", Category: "Events", Actual: 100, Anticipated: 80},
					{Month: "mar-25", Category: "Other Expenses", Actual: 20, Anticipated: 40},
					{Month: "Apr-25", Actual: 0, Anticipated: 10},
				},
			},
			"2": {
				TeamName: "Two",
				People:   []model.SpendEntry{},
				Programs: []model.SpendEntry{},
				Months:   []model.MonthRecord{{Month: "Mar-25", Actual: 60, Anticipated: 0}},
			},
		},
	}
}

func TestBuildOverviewUnfiltered(t *testing.T) {
	ov := BuildOverview(viewBudget(), Filter{})

	require.Len(t, ov.Units, 2)
	assert.Equal(t, "1", ov.Units[0].ID)
	assert.Equal(t, 1000.0, ov.Spend)
	assert.Equal(t, 180.0, ov.Actual)
	assert.Equal(t, 130.0, ov.Anticipated)
	assert.Equal(t, 50.0, ov.Variance)
	assert.Equal(t, 15.0, ov.AverageMonthly)
	assert.Equal(t, 1.0, ov.Units[1].Weight, "unfiltered units count in full even without spend")
}

func TestBuildOverviewWeightsBySpendShare(t *testing.T) {
	f, err := ParseFilter("Programs", nil)
	require.NoError(t, err)
	ov := BuildOverview(viewBudget(), f)

	assert.Equal(t, 250.0, ov.Spend)
	assert.InDelta(t, 0.25, ov.Units[0].Weight, 1e-9)
	assert.Zero(t, ov.Units[1].Weight)
	assert.InDelta(t, 30.0, ov.Actual, 1e-9)
	assert.InDelta(t, 32.5, ov.Anticipated, 1e-9)

	f, err = ParseFilter("programs", []string{"Paid Media", " "})
	require.NoError(t, err)
	ov = BuildOverview(viewBudget(), f)
	assert.Equal(t, 200.0, ov.Spend)
	assert.InDelta(t, 24.0, ov.Actual, 1e-9)
	assert.Equal(t, "programs: Paid Media", f.Label())

	_, err = ParseFilter("vendors", nil)
	assert.Error(t, err)
}

func TestByMonth(t *testing.T) {
	got := ByMonth(viewBudget().Units["1"])
	assert.Equal(t, []MonthTotal{
		{Month: "Mar-25", Actual: 120, Anticipated: 120},
		{Month: "Apr-25", Actual: 0, Anticipated: 10},
	}, got)
}

func TestGroupMonthly(t *testing.T) {
	u := viewBudget().Units["1"]
	got := GroupMonthly(u, model.GroupPrograms)
	require.Len(t, got, 3)
	assert.Equal(t, []Share{{Name: "Paid Media", Amount: 80}, {Name: "Marketing Tech and Software", Amount: 20}}, got[0].Shares)

	all := GroupMonthly(u, "")
	assert.Len(t, all[0].Shares, 3)
	assert.InDelta(t, 75.0, all[0].Shares[0].Amount, 1e-9)

	empty := GroupMonthly(viewBudget().Units["2"], model.GroupPeople)
	assert.Empty(t, empty[0].Shares)
}

func TestDominantCategory(t *testing.T) {
	b := viewBudget()
	u := b.Units["1"]
	assert.Equal(t, model.CategoryCompensation, DominantCategory(u, u.Months[0]))
	assert.Equal(t, model.CategoryOther, DominantCategory(u, u.Months[2]), "all-zero ties go to the last category")
	assert.Equal(t, "N/A", DominantCategory(b.Units["2"], b.Units["2"].Months[0]))

	tie := model.UnitBudget{
		People:   []model.SpendEntry{{Name: "Salaries", Amount: 50}},
		Programs: []model.SpendEntry{{Name: "Events and Sponsorships", Amount: 50}},
	}
	assert.Equal(t, model.CategoryEvents, DominantCategory(tie, model.MonthRecord{Actual: 10}))
}

func TestLedgerAndSpendBreakdown(t *testing.T) {
	u := viewBudget().Units["1"]
	rows := Ledger(u)
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[2].Index)
	assert.Equal(t, 20.0, rows[0].Variance)
	assert.Equal(t, 25.0, rows[0].VariancePercent)
	assert.Equal(t, -50.0, rows[1].VariancePercent)

	lines := SpendBreakdown(u)
	require.Len(t, lines, 3)
	assert.Equal(t, SpendLine{Group: model.GroupPeople, Name: "Salaries", Amount: 750, Value: 75, Category: model.CategoryCompensation}, lines[0])
	assert.Equal(t, model.CategorySubscriptions, lines[2].Category)
}

func TestSpendTypes(t *testing.T) {
	b := viewBudget()
	u := b.Units["2"].Clone()
	u.Programs = append(u.Programs, model.SpendEntry{Name: "Awards"}, model.SpendEntry{Name: "Paid Media"})
	b = b.With("2", u)

	got := SpendTypes(b, model.GroupPrograms)
	assert.Equal(t, append(append([]string(nil), model.ProgramSpendTypes...), "Awards"), got)
	assert.Len(t, SpendTypes(b, ""), len(model.PeopleSpendTypes)+len(model.ProgramSpendTypes)+1)
}

func BenchmarkReconcile(b *testing.B) {
	prior, err := source.DefaultSeed()
	if err != nil {
		b.Fatal(err)
	}
	rows := make([]reconcile.RawRow, 0, 3000)
	for i := 0; i < 1000; i++ {
		rows = append(rows,
			reconcile.RawRow{"costcenter": "4100", "spend type": fmt.Sprintf("Type %d", i%40), "category": "Programs", "amount": "12.50"},
			reconcile.RawRow{"costcenter": "4200", "date": fmt.Sprintf("2025-%02d-01", i%12+1), "actual": i},
			reconcile.RawRow{"costcenter": "4300", "year month": "Mar-25", "category": fmt.Sprintf("Cat %d", i%8), "actual": 1},
		)
	}
	r := reconcile.New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Reconcile(prior, reconcile.Batch{Rows: rows})
	}
}

package reconcile

import (
	"math/rand"
	"testing"

	"github.com/theirongolddev/budgetdash/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() model.Budget {
	return model.Budget{
		FinancialYear: "FY2025/26",
		Units: map[string]model.UnitBudget{
			"100": {
				TeamName: "Marketing",
				People:   []model.SpendEntry{{Name: "Salaries", Amount: 1000, Value: 100}},
				Programs: []model.SpendEntry{},
				Months:   []model.MonthRecord{},
			},
			"200": {
				TeamName: "Brand",
				People:   []model.SpendEntry{{Name: "UIF", Amount: 20, Value: 17}},
				Programs: []model.SpendEntry{{Name: "Paid Media", Amount: 100, Value: 83}},
				Months: []model.MonthRecord{
					{Date: "2025-03-01", Month: "Mar-25", Category: "Other Expenses", Actual: 10, Anticipated: 20},
				},
			},
		},
	}
}

func TestReconcilePaidMediaScenario(t *testing.T) {
	prior := fixture()
	rows := []RawRow{{
		"costcenter": "100",
		"spend type": "Paid Media",
		"category":   "Programs",
		"amount":     "500",
	}}

	next, rep := New().Reconcile(prior, Batch{Rows: rows})

	u := next.Units["100"]
	assert.Equal(t, []model.SpendEntry{{Name: "Salaries", Amount: 1000, Value: 67}}, u.People)
	assert.Equal(t, []model.SpendEntry{{Name: "Paid Media", Amount: 500, Value: 33}}, u.Programs)
	assert.Equal(t, 1, rep.Applied)
	assert.Equal(t, 1, rep.SpendRows)
	assert.Zero(t, rep.ActualsRows)
	assert.Equal(t, []string{"100"}, rep.Units)
}

func TestReconcileDetailRowMergedTwice(t *testing.T) {
	row := RawRow{
		"date":        "2025-03-15",
		"year month":  "Mar-25",
		"category":    "Other Expenses",
		"actual":      "200",
		"anticipated": "100",
	}
	r := New()
	b := fixture()
	b, _ = r.Reconcile(b, Batch{Rows: []RawRow{row}, DefaultUnit: "100"})
	b, rep := r.Reconcile(b, Batch{Rows: []RawRow{row}, DefaultUnit: "100"})

	months := b.Units["100"].Months
	require.Len(t, months, 1)
	assert.Equal(t, model.MonthRecord{
		Date: "2025-03-15", Month: "Mar-25", Category: "Other Expenses", Actual: 400, Anticipated: 200,
	}, months[0])
	assert.Equal(t, 1, rep.DetailRows)
	assert.Zero(t, rep.ActualsRows, "detail rows never feed the bulk path")
}

func TestReconcileAdditiveDetailMerge(t *testing.T) {
	r := New()
	b := fixture()
	b, _ = r.Reconcile(b, Batch{DefaultUnit: "100", Rows: []RawRow{
		{"Year Month": "Mar-25", "Category": "Other Expenses", "Actual": 100, "Anticipated": 50},
	}})
	b, _ = r.Reconcile(b, Batch{DefaultUnit: "100", Rows: []RawRow{
		{"YEAR MONTH": "mar-25", "CATEGORY": "other expenses", "ACTUAL": 30, "ANTICIPATED": 0},
	}})

	months := b.Units["100"].Months
	require.Len(t, months, 1)
	assert.Equal(t, 130.0, months[0].Actual)
	assert.Equal(t, 50.0, months[0].Anticipated)
}

func TestReconcileSpendReMergeIsIdempotent(t *testing.T) {
	r := New()
	rows := []RawRow{{"costcenter": "200", "spend type": "Content Creation", "category": "Programs", "amount": "300"}}

	once, _ := r.Reconcile(fixture(), Batch{Rows: rows})
	twice, _ := r.Reconcile(once, Batch{Rows: rows})

	assert.Equal(t, once.Units["200"], twice.Units["200"])
	g, i, ok := twice.Units["200"].FindSpend("Content Creation")
	require.True(t, ok)
	assert.Equal(t, 300.0, twice.Units["200"].Entries(g)[i].Amount)
}

func TestReconcilePreSumsSpendWithinBatch(t *testing.T) {
	rows := []RawRow{
		{"costcenter": "200", "spend type": "Paid Media", "category": "Programs", "amount": "40"},
		{"costcenter": "200", "spend type": "Paid Media", "category": "Programs", "amount": "60"},
		{"costcenter": "200", "spend type": "Paid Media", "category": "Programs", "amount": "oops"},
	}
	next, rep := New().Reconcile(fixture(), Batch{Rows: rows})

	assert.Equal(t, 100.0, next.Units["200"].Programs[0].Amount)
	assert.Equal(t, 2, rep.SpendRows)
	assert.Equal(t, 1, rep.Unusable)
}

func TestReconcileSpendNeedsCategory(t *testing.T) {
	prior := fixture()
	next, rep := New().Reconcile(prior, Batch{Rows: []RawRow{
		{"costcenter": "100", "spend type": "Cloud Hosting", "amount": "500"},
	}})

	assert.Equal(t, prior.Units["100"], next.Units["100"])
	assert.Equal(t, 1, rep.Unusable)
	assert.Zero(t, rep.SpendRows)
	assert.Zero(t, rep.Applied)
}

func TestReconcileUnparseableActualIgnoresAmount(t *testing.T) {
	next, rep := New().Reconcile(fixture(), Batch{Rows: []RawRow{
		{"costcenter": "100", "date": "2025-08-01", "actual": "n/a", "amount": "75"},
		{"costcenter": "100", "date": "2025-09-01", "amount": "40"},
	}})

	assert.Equal(t, []model.MonthRecord{
		{Month: "Aug-25", Actual: 0},
		{Month: "Sep-25", Actual: 40},
	}, next.Units["100"].Months)
	assert.Equal(t, 2, rep.ActualsRows)
}

func TestReconcileBadYearMonthFallsBackToDate(t *testing.T) {
	prior := fixture()
	next, rep := New().Reconcile(prior, Batch{Rows: []RawRow{{
		"costcenter": "200",
		"date":       "2025-03-18",
		"year month": "March",
		"category":   "Events",
		"actual":     "55",
	}}})

	months := next.Units["200"].Months
	require.Len(t, months, 1)
	assert.Equal(t, "Other Expenses", months[0].Category, "the month's first record takes the bulk total")
	assert.Equal(t, 55.0, months[0].Actual)
	assert.Equal(t, 20.0, months[0].Anticipated)
	assert.Zero(t, rep.DetailRows)
	assert.Equal(t, 1, rep.ActualsRows)
}

func TestReconcileBulkActualsPath(t *testing.T) {
	prior := fixture()
	rows := []RawRow{
		{"costcenter": "200", "date": "2025-03-02", "actual": "40", "anticipated": "5"},
		{"costcenter": "200", "date": "2025-03-20", "amount": "60"},
		{"costcenter": "200", "date": "2025-04-01", "actual": "7"},
		{"costcenter": "200", "date": "not a date", "actual": "7"},
	}

	next, rep := New().Reconcile(prior, Batch{Rows: rows})

	months := next.Units["200"].Months
	require.Len(t, months, 2)
	assert.Equal(t, "Mar-25", months[0].Month)
	assert.Equal(t, 100.0, months[0].Actual, "bulk total overwrites actual")
	assert.Zero(t, months[0].Anticipated, "anticipated is cleared when supplied")
	assert.Equal(t, "Other Expenses", months[0].Category)
	assert.Equal(t, model.MonthRecord{Month: "Apr-25", Actual: 7}, months[1])

	assert.Equal(t, 3, rep.ActualsRows)
	assert.Equal(t, 1, rep.Unusable)
	assert.Equal(t, 20.0, prior.Units["200"].Months[0].Anticipated, "prior snapshot untouched")
}

func TestReconcileUnitResolution(t *testing.T) {
	rows := []RawRow{
		{"costcenter": "999", "spend type": "General", "category": "Programs", "amount": 1},
		{"costcenter": model.FinancialYearKey, "spend type": "General", "category": "Programs", "amount": 1},
		{"spend type": "General", "category": "Programs", "amount": 1},
		{"costcenter": 100.0, "spend type": "General", "category": "Programs", "amount": 1},
		{"costcenter": "100", "note": "nothing useful"},
	}
	next, rep := New().Reconcile(fixture(), Batch{Rows: rows})

	assert.Equal(t, 5, rep.Rows)
	assert.Equal(t, 2, rep.UnknownUnit)
	assert.Equal(t, 1, rep.NoUnit)
	assert.Equal(t, 1, rep.Unusable)
	assert.Equal(t, 1, rep.Applied)
	assert.Equal(t, 4, rep.Dropped())

	_, _, ok := next.Units["100"].FindSpend("General")
	assert.True(t, ok)
	assert.Len(t, next.Units, 2)
	assert.Equal(t, "FY2025/26", next.FinancialYear)
}

func TestReconcileRowFeedsBothMergers(t *testing.T) {
	rows := []RawRow{{
		"costcenter": "100",
		"date":       "2025-05-09",
		"category":   "Events and Sponsorships",
		"amount":     "250",
	}}
	next, rep := New().Reconcile(fixture(), Batch{Rows: rows})

	u := next.Units["100"]
	require.Len(t, u.Months, 1)
	assert.Equal(t, model.MonthRecord{Month: "May-25", Actual: 250}, u.Months[0])
	_, _, ok := u.FindSpend("Events and Sponsorships")
	assert.True(t, ok)
	assert.Equal(t, 1, rep.ActualsRows)
	assert.Equal(t, 1, rep.SpendRows)
}

func TestReconcileUnitIsolation(t *testing.T) {
	prior := fixture()
	before := prior.Clone()

	rows := []RawRow{
		{"costcenter": "100", "spend type": "Payroll Tax", "category": "Compensation", "amount": "90"},
		{"costcenter": "100", "year month": "Jun-25", "category": "Compensation", "actual": "5"},
		{"costcenter": "100", "date": "2025-07-01", "actual": "5"},
	}
	next, _ := New().Reconcile(prior, Batch{Rows: rows})

	assert.Equal(t, before.Units["200"], next.Units["200"])
	assert.Equal(t, before, prior, "prior snapshot must not change")
	assert.NotEqual(t, prior.Units["100"], next.Units["100"])
}

func TestReconcileDoesNotAliasPriorSlices(t *testing.T) {
	prior := fixture()
	next, _ := New().Reconcile(prior, Batch{Rows: []RawRow{
		{"costcenter": "200", "date": "2025-03-09", "actual": "1"},
	}})

	next.Units["200"].People[0].Amount = 999
	assert.Equal(t, 20.0, prior.Units["200"].People[0].Amount)
}

func TestReconcileWithCustomClassifier(t *testing.T) {
	c := NewClassifier(model.GroupPeople)
	r := New(WithClassifier(c))
	next, _ := r.Reconcile(fixture(), Batch{Rows: []RawRow{
		{"costcenter": "100", "spend type": "Paid Media", "category": "Programs", "amount": 10},
	}})
	g, _, ok := next.Units["100"].FindSpend("Paid Media")
	require.True(t, ok)
	assert.Equal(t, model.GroupPeople, g)
}

func TestPercentagesSumToHundred(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := New()
	b := fixture()

	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(6)
		rows := make([]RawRow, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, RawRow{
				"costcenter": "200",
				"spend type": []string{"Paid Media", "UIF", "General", "Team Gifts", "Cloud Hosting", "Salaries"}[rng.Intn(6)],
				"category":   "Programs",
				"amount":     rng.Float64() * 10_000,
			})
		}
		b, _ = r.Reconcile(b, Batch{Rows: rows})

		u := b.Units["200"]
		entries := u.AllSpend()
		sum := 0
		for _, e := range entries {
			sum += e.Value
			assert.GreaterOrEqual(t, e.Value, 0)
			assert.LessOrEqual(t, e.Value, 100)
		}
		diff := sum - 100
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, len(entries), "round %d: sum %d", round, sum)
	}
}

func TestPercentagesZeroTotal(t *testing.T) {
	next, _ := New().Reconcile(fixture(), Batch{Rows: []RawRow{
		{"costcenter": "100", "spend type": "Salaries", "category": "Compensation", "amount": "0"},
		{"costcenter": "100", "spend type": "General", "category": "Programs", "amount": "0"},
	}})
	for _, e := range next.Units["100"].AllSpend() {
		assert.Zero(t, e.Value, e.Name)
	}
}

func TestPackageReconcile(t *testing.T) {
	next := Reconcile(fixture(), []RawRow{{"costcenter": "100", "spend type": "General", "category": "Programs", "amount": "1000"}})
	assert.Equal(t, 50, next.Units["100"].Programs[0].Value)
}

func TestReportAdd(t *testing.T) {
	a := Report{Rows: 2, Applied: 1, NoUnit: 1, Units: []string{"200"}}
	a.Add(Report{Rows: 3, Applied: 3, Units: []string{"100", "200"}})
	assert.Equal(t, 5, a.Rows)
	assert.Equal(t, 4, a.Applied)
	assert.Equal(t, []string{"100", "200"}, a.Units)
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `{
  "financialYear": "FY2025/26",
  "200": {"teamName": "Brand", "people": [], "programs": [{"name": "Paid Media", "amount": 50, "value": 100}], "months": []},
  "100": {"teamName": "Marketing", "people": [{"name": "Salaries", "amount": 1000, "value": 100}], "programs": [],
          "months": [{"date": "2025-03-15", "month": "Mar-25", "category": "Other Expenses", "actual": 10, "anticipated": 20}]},
  "HQ": {"teamName": "Head Office", "people": [], "programs": [], "months": []}
}`

func TestBudgetUnmarshalSeparatesFinancialYear(t *testing.T) {
	var b Budget
	require.NoError(t, json.Unmarshal([]byte(seedJSON), &b))

	assert.Equal(t, "FY2025/26", b.FinancialYear)
	assert.Len(t, b.Units, 3)
	assert.False(t, b.HasUnit(FinancialYearKey))
	assert.Equal(t, []string{"100", "200", "HQ"}, b.UnitIDs())

	u, ok := b.Unit("100")
	require.True(t, ok)
	assert.Equal(t, "Marketing", u.TeamName)
	require.Len(t, u.Months, 1)
	assert.Equal(t, -10.0, u.Months[0].Variance())
	assert.Equal(t, -50.0, u.Months[0].VariancePercent())
}

func TestBudgetUnmarshalNumericFinancialYear(t *testing.T) {
	var b Budget
	require.NoError(t, json.Unmarshal([]byte(`{"financialYear": 2025}`), &b))
	assert.Equal(t, "2025", b.FinancialYear)
	assert.Empty(t, b.UnitIDs())
}

func TestBudgetMarshalRoundTripKeepsShape(t *testing.T) {
	b := Budget{
		FinancialYear: "FY26",
		Units:         map[string]UnitBudget{"7": {TeamName: "Ops"}},
	}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"financialYear":"FY26","7":{"teamName":"Ops","people":[],"programs":[],"months":[]}}`,
		string(data))
}

func TestWithLeavesReceiverUntouched(t *testing.T) {
	var b Budget
	require.NoError(t, json.Unmarshal([]byte(seedJSON), &b))

	next := b.With("200", UnitBudget{TeamName: "Renamed"})

	assert.Equal(t, "Brand", b.Units["200"].TeamName)
	assert.Equal(t, "Renamed", next.Units["200"].TeamName)
	assert.Equal(t, b.Units["100"], next.Units["100"])
}

func TestUnitIDsOrdersIndexKeysNumerically(t *testing.T) {
	b := Budget{Units: map[string]UnitBudget{
		"1000": {}, "99": {}, "abc": {}, "010": {}, "5": {},
	}}
	assert.Equal(t, []string{"5", "99", "1000", "010", "abc"}, b.UnitIDs())
}

func TestFindSpendAndTotals(t *testing.T) {
	u := UnitBudget{
		People:   []SpendEntry{{Name: "Salaries", Amount: 1000}},
		Programs: []SpendEntry{{Name: "Paid Media", Amount: 500}},
	}
	g, i, ok := u.FindSpend("Paid Media")
	require.True(t, ok)
	assert.Equal(t, GroupPrograms, g)
	assert.Equal(t, 0, i)

	_, _, ok = u.FindSpend("paid media")
	assert.False(t, ok)

	assert.Equal(t, 1500.0, u.SpendTotal())
	assert.Len(t, u.AllSpend(), 2)
}

func TestMonthHelpers(t *testing.T) {
	tests := []struct {
		in    string
		key   string
		full  string
		valid bool
	}{
		{"Mar-25", "Mar-25", "2025-03-01", true},
		{"mar-25", "Mar-25", "2025-03-01", true},
		{" DEC-99 ", "Dec-99", "2099-12-01", true},
		{"March-25", "", "", false},
		{"Foo-25", "", "", false},
		{"2025-03", "", "", false},
	}
	for _, tt := range tests {
		key, ok := CanonicalMonth(tt.in)
		assert.Equal(t, tt.valid, ok, tt.in)
		assert.Equal(t, tt.key, key, tt.in)
		assert.Equal(t, tt.full, FullDate(tt.in), tt.in)
	}

	m, ok := MonthFromISODate("2025-03-15")
	require.True(t, ok)
	assert.Equal(t, "Mar-25", m)

	assert.False(t, ValidISODate("2025-02-30"))
	assert.False(t, ValidISODate("15/03/2025"))
	assert.True(t, SameMonth("mar-25", "Mar-25 "))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryCompensation, CategoryFor("Salaries"))
	assert.Equal(t, CategorySubscriptions, CategoryFor("Marketing Tech and Software"))
	assert.Equal(t, CategoryEvents, CategoryFor("Events and Sponsorships"))
	assert.Equal(t, CategoryOther, CategoryFor("Paid Media"))
	assert.Equal(t, CategoryOther, CategoryFor("Something New"))
}

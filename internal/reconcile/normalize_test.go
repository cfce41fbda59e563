package reconcile

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseField(t *testing.T) {
	for _, h := range []string{"Year Month", "  year   month ", "YEAR MONTH"} {
		f, ok := ParseField(h)
		require.True(t, ok, h)
		assert.Equal(t, FieldYearMonth, f)
	}
	_, ok := ParseField("yearmonth")
	assert.False(t, ok)
	assert.Len(t, Fields(), 8)
	assert.Equal(t, "", Field(42).Header())
}

func TestLookupPrefersSmallestKey(t *testing.T) {
	row := RawRow{"date": "b", "DATE": "a", "Date": "c"}
	v, ok := row.Lookup(FieldDate)
	require.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1,234.50", 1234.5, true},
		{"R 1 000", 1000, true},
		{"R 12 500", 12500, true},
		{"(200)", -200, true},
		{"-$5", -5, true},
		{"1e3", 1000, true},
		{json.Number("12"), 12, true},
		{42, 42, true},
		{2.5, 2.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{math.Inf(1), 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseAmount(%#v)", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "ParseAmount(%#v)", tt.in)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []any{
		"2025-03-15",
		"03/15/2025",
		"15-Mar-25",
		"2025-03-15T00:00:00Z",
		45731.0,
		"45731",
		json.Number("45731"),
	} {
		got, ok := ParseDate(in)
		require.True(t, ok, "ParseDate(%#v)", in)
		assert.Equal(t, want.Format("2006-01-02"), got.Format("2006-01-02"), "ParseDate(%#v)", in)
	}

	for _, in := range []any{"", "soon", 0.0, -4.0, "123", nil} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "ParseDate(%#v)", in)
	}
}

func TestNormalizeKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  RawRow
		want Kind
	}{
		{"detail", RawRow{"year month": "Mar-25", "category": "Events"}, KindDetail},
		{"detail beats actuals", RawRow{"date": "2025-03-01", "year month": "Mar-25", "category": "Events"}, KindDetail},
		{"actuals", RawRow{"date": "2025-03-01", "actual": "9"}, KindActuals},
		{"spend", RawRow{"spend type": "Paid Media", "category": "Programs", "amount": "9"}, KindSpend},
		{"spend without category", RawRow{"spend type": "Paid Media", "amount": "9"}, 0},
		{"spend from category", RawRow{"category": "Paid Media", "amount": "9"}, KindSpend},
		{"detail and spend", RawRow{"year month": "Mar-25", "category": "General", "amount": "9"}, KindDetail | KindSpend},
		{"unparseable amount", RawRow{"spend type": "Paid Media", "category": "Programs", "amount": "n/a"}, 0},
		{"bad year month", RawRow{"year month": "March", "category": "Events"}, 0},
		{"nothing", RawRow{"note": "x"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, "100")
			assert.Equal(t, tt.want, got.Kind, "kind %s", got.Kind)
		})
	}
}

func TestNormalizeFields(t *testing.T) {
	row := Normalize(RawRow{
		"CostCenter":  100.0,
		"Date":        "03/15/2025",
		"Year Month":  " mar-25 ",
		"Category":    " Other Expenses ",
		"Actual":      "1,000",
		"Anticipated": "",
	}, "999")

	assert.Equal(t, "100", row.Unit)
	assert.Equal(t, "2025-03-15", row.Date)
	assert.Equal(t, "Mar-25", row.Month)
	assert.Equal(t, "Other Expenses", row.Category)
	assert.Equal(t, 1000.0, row.Actual)
	assert.True(t, row.HasActual)
	assert.False(t, row.HasAnticipated)
	assert.Equal(t, KindDetail, row.Kind, "category doubles as spend type only with an amount")
}

func TestNormalizeActualColumn(t *testing.T) {
	row := Normalize(RawRow{"date": "2025-08-01", "actual": "n/a", "amount": "75"}, "100")
	assert.True(t, row.ActualColumn)
	assert.False(t, row.HasActual)

	row = Normalize(RawRow{"date": "2025-08-01", "amount": "75"}, "100")
	assert.False(t, row.ActualColumn)
}

func TestNormalizeYearMonthFromSpreadsheetDate(t *testing.T) {
	row := Normalize(RawRow{"year month": 45717.0, "category": "Events"}, "100")
	assert.Equal(t, "Mar-25", row.Month)
	assert.True(t, row.Kind.Has(KindDetail))
}

func TestNormalizeDefaultUnit(t *testing.T) {
	assert.Equal(t, "7", Normalize(RawRow{"costcenter": "  "}, " 7 ").Unit)
	assert.Equal(t, "", Normalize(RawRow{}, "").Unit)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "none", Kind(0).String())
	assert.Equal(t, "detail|spend", (KindDetail | KindSpend).String())
	assert.False(t, KindActuals.Has(0))
}

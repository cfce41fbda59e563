package reconcile

import (
	"strings"

	"github.com/theirongolddev/budgetdash/internal/model"
)

// DetailDelta is one itemized month amount keyed by (month, category).
type DetailDelta struct {
	Date        string
	Month       string
	Category    string
	Actual      float64
	Anticipated float64
}

// ActualsDelta is the batch total for one month on the bulk path.
// HasAnticipated records that the batch supplied an anticipated value.
type ActualsDelta struct {
	Month          string
	Actual         float64
	HasActual      bool
	HasAnticipated bool
}

// MergeDetail adds deltas into months. A delta whose (month, category)
// matches an existing record (ignoring case) is added to it; otherwise a new
// record is appended. The input slice is never modified.
func MergeDetail(months []model.MonthRecord, deltas []DetailDelta) []model.MonthRecord {
	out := make([]model.MonthRecord, len(months), len(months)+len(deltas))
	copy(out, months)

	for _, d := range deltas {
		month := strings.TrimSpace(d.Month)
		category := strings.TrimSpace(d.Category)
		if month == "" || category == "" {
			continue
		}
		if i := indexDetail(out, month, category); i >= 0 {
			out[i].Actual += d.Actual
			out[i].Anticipated += d.Anticipated
			continue
		}
		out = append(out, model.MonthRecord{
			Date:        d.Date,
			Month:       month,
			Category:    category,
			Actual:      d.Actual,
			Anticipated: d.Anticipated,
		})
	}
	return out
}

// MergeActuals applies bulk month totals. The first record of a month has
// its actual overwritten by the batch total, and its anticipated reset to 0
// when the batch supplied an anticipated value. Unknown months are appended
// with anticipated 0. The input slice is never modified.
func MergeActuals(months []model.MonthRecord, deltas []ActualsDelta) []model.MonthRecord {
	out := make([]model.MonthRecord, len(months), len(months)+len(deltas))
	copy(out, months)

	for _, d := range deltas {
		month := strings.TrimSpace(d.Month)
		if month == "" {
			continue
		}
		if i := indexMonth(out, month); i >= 0 {
			if d.HasActual {
				out[i].Actual = d.Actual
			}
			// TODO: decide whether a supplied anticipated value should be stored instead of clearing it.
			if d.HasAnticipated {
				out[i].Anticipated = 0
			}
			continue
		}
		rec := model.MonthRecord{Month: month}
		if d.HasActual {
			rec.Actual = d.Actual
		}
		out = append(out, rec)
	}
	return out
}

func indexDetail(months []model.MonthRecord, month, category string) int {
	for i, m := range months {
		if model.SameMonth(m.Month, month) && strings.EqualFold(strings.TrimSpace(m.Category), category) {
			return i
		}
	}
	return -1
}

func indexMonth(months []model.MonthRecord, month string) int {
	for i, m := range months {
		if model.SameMonth(m.Month, month) {
			return i
		}
	}
	return -1
}

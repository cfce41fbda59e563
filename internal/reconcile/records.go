package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/model"
)

// Errors returned by the manual record operations.
var (
	ErrUnknownUnit  = errors.New("unknown unit")
	ErrInvalidDate  = errors.New("invalid date format (expected YYYY-MM-DD)")
	ErrInvalidMonth = errors.New("invalid year month format (expected MMM-YY, e.g. Mar-26)")
	ErrMissingField = errors.New("missing required field")
	ErrRecordIndex  = errors.New("record index out of range")
)

// RecordInput is a hand-entered month record.
type RecordInput struct {
	Date        string
	Month       string
	Category    string
	Actual      float64
	Anticipated float64
}

// AddRecord validates in and merges it into unit's months the same way a
// detail upload row would: added to a matching (month, category) record,
// appended otherwise. The month defaults to the month of the date.
func AddRecord(b model.Budget, unit string, in RecordInput) (model.Budget, error) {
	u, ok := b.Unit(unit)
	if !ok {
		return b, fmt.Errorf("%w: %s", ErrUnknownUnit, unit)
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		return b, fmt.Errorf("%w: date", ErrMissingField)
	}
	if !model.ValidISODate(date) {
		return b, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	month := strings.TrimSpace(in.Month)
	if month == "" {
		month, _ = model.MonthFromISODate(date)
	}
	key, ok := model.CanonicalMonth(month)
	if !ok {
		return b, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		return b, fmt.Errorf("%w: category", ErrMissingField)
	}

	next := u.Clone()
	next.Months = MergeDetail(u.Months, []DetailDelta{{
		Date:        date,
		Month:       key,
		Category:    category,
		Actual:      in.Actual,
		Anticipated: in.Anticipated,
	}})
	return b.With(unit, next), nil
}

// UpdateRecord rewrites the record at index. Actual is replaced and
// anticipated is kept. An empty Month is taken from Date when one is given,
// else left as is. Without a Date the record keeps its date unless it has
// none or moved month, in which case it gets the first day of the month.
func UpdateRecord(b model.Budget, unit string, index int, in RecordInput) (model.Budget, error) {
	u, ok := b.Unit(unit)
	if !ok {
		return b, fmt.Errorf("%w: %s", ErrUnknownUnit, unit)
	}
	if index < 0 || index >= len(u.Months) {
		return b, fmt.Errorf("%w: %d (unit %s has %d records)", ErrRecordIndex, index, unit, len(u.Months))
	}

	rec := u.Months[index]

	date := strings.TrimSpace(in.Date)
	if date != "" && !model.ValidISODate(date) {
		return b, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	month := strings.TrimSpace(in.Month)
	if month == "" && date != "" {
		month, _ = model.MonthFromISODate(date)
	}
	if month == "" {
		month = rec.Month
	}
	key, ok := model.CanonicalMonth(month)
	if !ok {
		return b, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}

	switch {
	case date != "":
		rec.Date = date
	case rec.Date == "" || !model.SameMonth(rec.Month, key):
		rec.Date = model.FullDate(key)
	}
	rec.Month = key
	if c := strings.TrimSpace(in.Category); c != "" {
		rec.Category = c
	}
	rec.Actual = in.Actual

	next := u.Clone()
	next.Months[index] = rec
	return b.With(unit, next), nil
}

// DeleteRecord removes the record at index.
func DeleteRecord(b model.Budget, unit string, index int) (model.Budget, error) {
	u, ok := b.Unit(unit)
	if !ok {
		return b, fmt.Errorf("%w: %s", ErrUnknownUnit, unit)
	}
	if index < 0 || index >= len(u.Months) {
		return b, fmt.Errorf("%w: %d (unit %s has %d records)", ErrRecordIndex, index, unit, len(u.Months))
	}

	next := u.Clone()
	next.Months = append(next.Months[:index:index], u.Months[index+1:]...)
	return b.With(unit, next), nil
}

package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MonthRecord is one calendar month's actual against anticipated spend,
// optionally tagged with a display category.
type MonthRecord struct {
	Date        string  `json:"date,omitempty"`
	Month       string  `json:"month"`
	Category    string  `json:"category,omitempty"`
	Actual      float64 `json:"actual"`
	Anticipated float64 `json:"anticipated"`
}

// Variance is actual minus anticipated.
func (m MonthRecord) Variance() float64 {
	return m.Actual - m.Anticipated
}

// VariancePercent is the variance relative to anticipated, or 0 when
// nothing was anticipated.
func (m MonthRecord) VariancePercent() float64 {
	if m.Anticipated == 0 {
		return 0
	}
	return m.Variance() / m.Anticipated * 100
}

// MonthLayout is the time layout of a canonical month key such as "Mar-25".
const MonthLayout = "Jan-06"

// ISODateLayout is the layout of record dates.
const ISODateLayout = "2006-01-02"

var (
	monthKeyPattern = regexp.MustCompile(`^[A-Za-z]{3}-\d{2}$`)
	isoDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidMonthKey reports whether s has the MMM-YY shape and names a real month.
func ValidMonthKey(s string) bool {
	_, ok := ParseMonth(s)
	return ok
}

// ValidISODate reports whether s is a real YYYY-MM-DD calendar date.
func ValidISODate(s string) bool {
	if !isoDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(ISODateLayout, s)
	return err == nil
}

// ParseMonth parses an MMM-YY key in any letter case. The result is the
// first day of the month, with two-digit years read as 20YY.
func ParseMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !monthKeyPattern.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < 2000 {
		t = t.AddDate(100, 0, 0)
	}
	return t, true
}

// MonthKey formats t as a canonical month key.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// CanonicalMonth normalizes the letter case of an MMM-YY key ("mar-25" -> "Mar-25").
func CanonicalMonth(s string) (string, bool) {
	t, ok := ParseMonth(s)
	if !ok {
		return "", false
	}
	return MonthKey(t), true
}

// SameMonth compares two month keys ignoring letter case and surrounding space.
func SameMonth(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FullDate expands a month key to the ISO date of its first day:
// FullDate("Mar-25") == "2025-03-01". Invalid keys yield "".
func FullDate(month string) string {
	t, ok := ParseMonth(month)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-01", t.Year(), int(t.Month()))
}

// MonthFromISODate derives the month key of a YYYY-MM-DD date.
func MonthFromISODate(date string) (string, bool) {
	if !ValidISODate(date) {
		return "", false
	}
	t, _ := time.Parse(ISODateLayout, date)
	return MonthKey(t), true
}

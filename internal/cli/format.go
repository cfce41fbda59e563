// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Currency is the symbol placed before money values.
var Currency = "R"

// FormatMoney formats an amount with thousands separators and no decimals.
// e.g., 1234567.4 -> "R1,234,567", -950 -> "-R950"
func FormatMoney(v float64) string {
	r := math.Round(v)
	if r < 0 {
		return "-" + Currency + humanize.Comma(int64(-r))
	}
	return Currency + humanize.Comma(int64(r))
}

// FormatCompact formats an amount with a K/M/B suffix for narrow columns.
// e.g., 1234 -> "R1.2K", 2500000 -> "R2.5M"
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%s%s%.1fB", sign, Currency, abs/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%s%s%.1fM", sign, Currency, abs/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s%s%.1fK", sign, Currency, abs/1_000)
	default:
		return FormatMoney(v)
	}
}

// FormatVariance formats actual minus anticipated with an explicit sign.
func FormatVariance(v float64) string {
	if math.Round(v) > 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a value already expressed in percent.
// e.g., 12.345 -> "12.3%"
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatShare formats a 0-1 ratio as a percentage string.
func FormatShare(f float64) string {
	return FormatPercent(f * 100)
}

// FormatAge describes how long ago t was, e.g. "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// FormatBytes formats a file size, e.g. 2048 -> "2.0 kB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

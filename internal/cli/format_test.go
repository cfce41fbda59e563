package cli

import (
	"strings"
	"testing"
	"time"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R0"},
		{950.4, "R950"},
		{1234567.5, "R1,234,568"},
		{-1200, "-R1,200"},
		{-0.4, "R0"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{999, "R999"},
		{1250, "R1.2K"},
		{2_500_000, "R2.5M"},
		{-3_100_000_000, "-R3.1B"},
	}
	for _, tt := range tests {
		if got := FormatCompact(tt.in); got != tt.want {
			t.Errorf("FormatCompact(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatVariance(t *testing.T) {
	if got := FormatVariance(1500); got != "+R1,500" {
		t.Errorf("FormatVariance(1500) = %q", got)
	}
	if got := FormatVariance(-20); got != "-R20" {
		t.Errorf("FormatVariance(-20) = %q", got)
	}
	if got := FormatVariance(0.2); got != "R0" {
		t.Errorf("FormatVariance(0.2) = %q", got)
	}
}

func TestFormatPercentAndShare(t *testing.T) {
	if got := FormatPercent(12.345); got != "12.3%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatShare(0.25); got != "25.0%" {
		t.Errorf("FormatShare = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	if got := FormatAge(time.Time{}); got != "never" {
		t.Errorf("FormatAge(zero) = %q, want never", got)
	}
	if got := FormatAge(time.Now().Add(-3 * time.Hour)); !strings.Contains(got, "ago") {
		t.Errorf("FormatAge(3h) = %q, want a relative time", got)
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Unit", "Spend"},
		Rows: [][]string{
			{"4100", "R10"},
			{"---"},
			{"Total", "R1,000"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[3], "4100  ") || !strings.Contains(lines[3], "    R10") {
		t.Errorf("row not aligned: %q", lines[3])
	}
	width := len([]rune(lines[0]))
	for i, l := range lines {
		if n := len([]rune(l)); n != width {
			t.Errorf("line %d width = %d, want %d", i, n, width)
		}
	}
}

package reconcile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/budgetdash/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// RawRow is one decoded upload row: column name to cell value. Values are
// strings or numbers as produced by the CSV, spreadsheet, or JSON decoders.
type RawRow map[string]any

// Field is one of the column names the normalizer understands.
type Field int

const (
	FieldDate Field = iota
	FieldYearMonth
	FieldCategory
	FieldActual
	FieldAnticipated
	FieldAmount
	FieldCostCenter
	FieldSpendType
)

var fieldHeaders = [...]string{
	FieldDate:        "date",
	FieldYearMonth:   "year month",
	FieldCategory:    "category",
	FieldActual:      "actual",
	FieldAnticipated: "anticipated",
	FieldAmount:      "amount",
	FieldCostCenter:  "costcenter",
	FieldSpendType:   "spend type",
}

// Header returns the canonical lowercase column name of f.
func (f Field) Header() string {
	if f < 0 || int(f) >= len(fieldHeaders) {
		return ""
	}
	return fieldHeaders[f]
}

// Fields lists every recognized column.
func Fields() []Field {
	out := make([]Field, len(fieldHeaders))
	for i := range fieldHeaders {
		out[i] = Field(i)
	}
	return out
}

// ParseField resolves a column name to a Field, ignoring case and
// surrounding or repeated whitespace.
func ParseField(header string) (Field, bool) {
	h := normalizeHeader(header)
	for i, name := range fieldHeaders {
		if name == h {
			return Field(i), true
		}
	}
	return 0, false
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// Lookup returns the value of the column matching f. When several columns
// match (e.g. "Date" and "DATE"), the lexicographically smallest name wins so
// the result never depends on map order.
func (r RawRow) Lookup(f Field) (any, bool) {
	want := f.Header()
	var (
		found bool
		best  string
		value any
	)
	for k, v := range r {
		if normalizeHeader(k) != want {
			continue
		}
		if !found || k < best {
			found, best, value = true, k, v
		}
	}
	return value, found
}

// Text returns the trimmed text of column f, or "" when absent.
func (r RawRow) Text(f Field) string {
	v, ok := r.Lookup(f)
	if !ok {
		return ""
	}
	return cellText(v)
}

// Number parses column f permissively. ok is false when the column is
// missing or does not hold a finite number.
func (r RawRow) Number(f Field) (float64, bool) {
	v, ok := r.Lookup(f)
	if !ok {
		return 0, false
	}
	return ParseAmount(v)
}

// Kind is the set of mergers a normalized row can feed.
type Kind uint8

const (
	// KindDetail rows carry a year month and a category.
	KindDetail Kind = 1 << iota
	// KindActuals rows carry a parseable date and no detail key.
	KindActuals
	// KindSpend rows carry a spend-type name, a category and a parseable amount.
	KindSpend
)

// Has reports whether every bit of f is set.
func (k Kind) Has(f Kind) bool { return k&f == f && f != 0 }

func (k Kind) String() string {
	if k == 0 {
		return "none"
	}
	var parts []string
	if k.Has(KindDetail) {
		parts = append(parts, "detail")
	}
	if k.Has(KindActuals) {
		parts = append(parts, "actuals")
	}
	if k.Has(KindSpend) {
		parts = append(parts, "spend")
	}
	return strings.Join(parts, "|")
}

// Row is the typed form of a RawRow.
type Row struct {
	Unit string
	Kind Kind

	Date     string // ISO date when the row had a parseable one
	Month    string // canonical MMM-YY key for detail and actuals rows
	Category string

	Actual         float64
	HasActual      bool
	Anticipated    float64
	HasAnticipated bool

	// ActualColumn is set when the row has an actual column at all, even an
	// unparseable one. Only rows without it fall back to amount.
	ActualColumn bool

	SpendType string
	Amount    float64
	HasAmount bool
}

// Normalize maps a raw row onto the typed row shape. Rows without a
// costcenter value are assigned defaultUnit. A row with both a year month
// and a category is a detail row and never also an actuals row.
func Normalize(raw RawRow, defaultUnit string) Row {
	row := Row{
		Unit:     resolveUnit(raw, defaultUnit),
		Category: raw.Text(FieldCategory),
	}

	if v, ok := raw.Lookup(FieldDate); ok {
		if t, ok := ParseDate(v); ok {
			row.Date = t.Format(model.ISODateLayout)
		}
	}
	row.Actual, row.HasActual = raw.Number(FieldActual)
	_, row.ActualColumn = raw.Lookup(FieldActual)
	row.Anticipated, row.HasAnticipated = raw.Number(FieldAnticipated)
	row.Amount, row.HasAmount = raw.Number(FieldAmount)

	if month, ok := yearMonth(raw); ok && row.Category != "" {
		row.Kind |= KindDetail
		row.Month = month
	} else if row.Date != "" {
		row.Kind |= KindActuals
		row.Month, _ = model.MonthFromISODate(row.Date)
	}

	row.SpendType = raw.Text(FieldSpendType)
	if row.SpendType == "" {
		row.SpendType = row.Category
	}
	// The category doubles as the classifier hint and is required.
	if row.SpendType != "" && row.Category != "" && row.HasAmount {
		row.Kind |= KindSpend
	}
	return row
}

func resolveUnit(raw RawRow, defaultUnit string) string {
	if v, ok := raw.Lookup(FieldCostCenter); ok {
		if s := cellText(v); s != "" {
			return s
		}
	}
	return strings.TrimSpace(defaultUnit)
}

// yearMonth reads the "year month" column, accepting either an MMM-YY key
// or anything ParseDate understands (spreadsheets often turn "Mar-25" into a date).
func yearMonth(raw RawRow) (string, bool) {
	v, ok := raw.Lookup(FieldYearMonth)
	if !ok {
		return "", false
	}
	if key, ok := model.CanonicalMonth(cellText(v)); ok {
		return key, true
	}
	if t, ok := ParseDate(v); ok {
		return model.MonthKey(t), true
	}
	return "", false
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case time.Time:
		return t.Format(model.ISODateLayout)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// ParseAmount parses a numeric cell. Thousands separators, a leading
// currency symbol and accounting parentheses are accepted; anything that
// does not yield a finite number reports ok=false.
func ParseAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, isFinite(t)
	case float32:
		return float64(t), isFinite(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case decimal.Decimal:
		return t.InexactFloat64(), true
	case json.Number:
		return parseNumberText(t.String())
	case string:
		return parseNumberText(t)
	default:
		return parseNumberText(fmt.Sprint(t))
	}
}

func parseNumberText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}
	for _, sym := range []string{"R", "$", "€", "£"} {
		if strings.HasPrefix(s, sym) {
			s = strings.TrimSpace(strings.TrimPrefix(s, sym))
			break
		}
	}
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}
	f := d.InexactFloat64()
	return f, isFinite(f)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Serial day numbers outside this range are not treated as spreadsheet dates.
const (
	minSerialDate = 1
	maxSerialDate = 2958466
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1-2-06",
	"2-Jan-06",
	"02-Jan-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate reads a date cell: ISO and RFC 3339 strings, US slash dates,
// spreadsheet display formats, and spreadsheet serial day numbers.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case float64:
		return serialDate(t)
	case int:
		return serialDate(float64(t))
	case int64:
		return serialDate(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return serialDate(f)
	}

	s := cellText(v)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if looksLikeSerial(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(f)
		}
	}
	return time.Time{}, false
}

func serialDate(f float64) (time.Time, bool) {
	if !isFinite(f) || f < minSerialDate || f >= maxSerialDate {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// looksLikeSerial accepts five-digit day numbers (1927 through 2173),
// optionally with a fractional time part.
func looksLikeSerial(s string) bool {
	intPart, _, _ := strings.Cut(s, ".")
	if len(intPart) != 5 {
		return false
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

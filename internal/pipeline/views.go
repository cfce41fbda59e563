package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/model"
)

// Filter narrows the spend considered by the overview. An empty Group means
// both groups; empty SpendTypes means every spend type of the group.
type Filter struct {
	Group      model.Group `json:"group,omitempty"`
	SpendTypes []string    `json:"spend_types,omitempty"`
}

// ParseFilter builds a filter from a group label ("all", "people",
// "programs" or empty) and an optional spend-type list.
func ParseFilter(group string, spendTypes []string) (Filter, error) {
	var f Filter
	switch strings.ToLower(strings.TrimSpace(group)) {
	case "", "all":
	default:
		g, ok := model.ParseGroup(group)
		if !ok {
			return Filter{}, fmt.Errorf("unknown group %q (want all, people or programs)", group)
		}
		f.Group = g
	}
	for _, s := range spendTypes {
		if s = strings.TrimSpace(s); s != "" {
			f.SpendTypes = append(f.SpendTypes, s)
		}
	}
	return f, nil
}

// Active reports whether the filter narrows anything.
func (f Filter) Active() bool {
	return f.Group != "" || len(f.SpendTypes) > 0
}

// Label is a short human description of the filter.
func (f Filter) Label() string {
	label := "all spend"
	if f.Group != "" {
		label = string(f.Group)
	}
	if len(f.SpendTypes) > 0 {
		label += ": " + strings.Join(f.SpendTypes, ", ")
	}
	return label
}

// Entries returns the spend entries of u the filter keeps.
func (f Filter) Entries(u model.UnitBudget) []model.SpendEntry {
	var relevant []model.SpendEntry
	if f.Group == "" {
		relevant = u.AllSpend()
	} else {
		relevant = u.Entries(f.Group)
	}
	if len(f.SpendTypes) == 0 {
		return relevant
	}
	keep := make(map[string]struct{}, len(f.SpendTypes))
	for _, s := range f.SpendTypes {
		keep[s] = struct{}{}
	}
	var out []model.SpendEntry
	for _, e := range relevant {
		if _, ok := keep[e.Name]; ok {
			out = append(out, e)
		}
	}
	return out
}

// UnitSummary holds per-unit totals.
type UnitSummary struct {
	ID           string  `json:"id"`
	TeamName     string  `json:"team_name"`
	PeopleSpend  float64 `json:"people_spend"`
	ProgramSpend float64 `json:"program_spend"`
	TotalSpend   float64 `json:"total_spend"`
	// FilteredSpend is the spend kept by the overview filter and Weight its
	// share of TotalSpend (1 without a filter).
	FilteredSpend float64 `json:"filtered_spend"`
	Weight        float64 `json:"weight"`
	Actual        float64 `json:"actual"`
	Anticipated   float64 `json:"anticipated"`
	Variance      float64 `json:"variance"`
	Records       int     `json:"records"`
}

// SummarizeUnit computes the totals of one unit under f.
func SummarizeUnit(id string, u model.UnitBudget, f Filter) UnitSummary {
	s := UnitSummary{
		ID:       id,
		TeamName: u.TeamName,
		Records:  len(u.Months),
	}
	for _, e := range u.People {
		s.PeopleSpend += e.Amount
	}
	for _, e := range u.Programs {
		s.ProgramSpend += e.Amount
	}
	s.TotalSpend = s.PeopleSpend + s.ProgramSpend

	for _, e := range f.Entries(u) {
		s.FilteredSpend += e.Amount
	}
	switch {
	case !f.Active():
		s.Weight = 1
	case s.TotalSpend > 0:
		s.Weight = s.FilteredSpend / s.TotalSpend
	}

	for _, m := range u.Months {
		s.Actual += m.Actual
		s.Anticipated += m.Anticipated
	}
	s.Variance = s.Actual - s.Anticipated
	return s
}

// Overview is the cross-unit summary.
type Overview struct {
	FinancialYear string        `json:"financial_year"`
	Filter        Filter        `json:"filter"`
	Units         []UnitSummary `json:"units"`
	Spend         float64       `json:"spend"`
	// Actual and Anticipated sum each unit's month totals scaled by the
	// unit's Weight.
	Actual         float64 `json:"actual"`
	Anticipated    float64 `json:"anticipated"`
	Variance       float64 `json:"variance"`
	AverageMonthly float64 `json:"average_monthly"`
}

// BuildOverview summarizes every unit of b under f.
func BuildOverview(b model.Budget, f Filter) Overview {
	ov := Overview{FinancialYear: b.FinancialYear, Filter: f}
	for _, id := range b.UnitIDs() {
		s := SummarizeUnit(id, b.Units[id], f)
		ov.Units = append(ov.Units, s)
		ov.Spend += s.FilteredSpend
		ov.Actual += s.Actual * s.Weight
		ov.Anticipated += s.Anticipated * s.Weight
	}
	ov.Variance = ov.Actual - ov.Anticipated
	ov.AverageMonthly = ov.Actual / 12
	return ov
}

// MonthTotal is the sum of a unit's records for one month.
type MonthTotal struct {
	Month       string  `json:"month"`
	Actual      float64 `json:"actual"`
	Anticipated float64 `json:"anticipated"`
}

// ByMonth sums a unit's records per month, in first-seen order.
func ByMonth(u model.UnitBudget) []MonthTotal {
	var out []MonthTotal
	idx := make(map[string]int)
	for _, m := range u.Months {
		key := strings.ToLower(strings.TrimSpace(m.Month))
		i, ok := idx[key]
		if !ok {
			out = append(out, MonthTotal{Month: m.Month})
			i = len(out) - 1
			idx[key] = i
		}
		out[i].Actual += m.Actual
		out[i].Anticipated += m.Anticipated
	}
	return out
}

// Share is one spend type's portion of a month's actual.
type Share struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// MonthBreakdown splits one record's actual across spend types.
type MonthBreakdown struct {
	Month  string  `json:"month"`
	Actual float64 `json:"actual"`
	Shares []Share `json:"shares"`
}

// GroupMonthly splits every month record's actual across the spend types of
// group g in proportion to their amounts. An empty g uses all spend types.
func GroupMonthly(u model.UnitBudget, g model.Group) []MonthBreakdown {
	entries := Filter{Group: g}.Entries(u)
	var total float64
	for _, e := range entries {
		total += e.Amount
	}

	out := make([]MonthBreakdown, 0, len(u.Months))
	for _, m := range u.Months {
		mb := MonthBreakdown{Month: m.Month, Actual: m.Actual, Shares: make([]Share, 0, len(entries))}
		for _, e := range entries {
			var amount float64
			if total > 0 {
				amount = m.Actual * e.Amount / total
			}
			mb.Shares = append(mb.Shares, Share{Name: e.Name, Amount: amount})
		}
		out = append(out, mb)
	}
	return out
}

// DominantCategory returns the display category receiving the largest
// share of m's actual when it is split by spend amounts. Ties go to the
// later category in display order; without any spend it is "N/A".
func DominantCategory(u model.UnitBudget, m model.MonthRecord) string {
	total := u.SpendTotal()
	if total == 0 {
		return "N/A"
	}
	totals := make(map[string]float64, len(model.DisplayCategories))
	for _, e := range u.AllSpend() {
		totals[model.CategoryFor(e.Name)] += m.Actual * (e.Amount / total)
	}
	best := model.DisplayCategories[0]
	for _, c := range model.DisplayCategories[1:] {
		if !(totals[best] > totals[c]) {
			best = c
		}
	}
	return best
}

// LedgerRow is one month record with its derived columns.
type LedgerRow struct {
	Index int `json:"index"`
	model.MonthRecord
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variance_percent"`
	Dominant        string  `json:"dominant_category"`
}

// Ledger lays out a unit's month records in stored order.
func Ledger(u model.UnitBudget) []LedgerRow {
	out := make([]LedgerRow, 0, len(u.Months))
	for i, m := range u.Months {
		out = append(out, LedgerRow{
			Index:           i,
			MonthRecord:     m,
			Variance:        m.Variance(),
			VariancePercent: m.VariancePercent(),
			Dominant:        DominantCategory(u, m),
		})
	}
	return out
}

// SpendLine is one spend entry with its group and display category.
type SpendLine struct {
	Group    model.Group `json:"group"`
	Name     string      `json:"name"`
	Amount   float64     `json:"amount"`
	Value    int         `json:"value"`
	Category string      `json:"category"`
}

// SpendBreakdown lists people then programs entries.
func SpendBreakdown(u model.UnitBudget) []SpendLine {
	out := make([]SpendLine, 0, len(u.People)+len(u.Programs))
	for _, g := range []model.Group{model.GroupPeople, model.GroupPrograms} {
		for _, e := range u.Entries(g) {
			out = append(out, SpendLine{
				Group:    g,
				Name:     e.Name,
				Amount:   e.Amount,
				Value:    e.Value,
				Category: model.CategoryFor(e.Name),
			})
		}
	}
	return out
}

// SpendTypes lists the spend types of group g for filter pickers: the known
// types in their usual order, then any other names present in b, sorted.
func SpendTypes(b model.Budget, g model.Group) []string {
	var known []string
	switch g {
	case model.GroupPeople:
		known = model.PeopleSpendTypes
	case model.GroupPrograms:
		known = model.ProgramSpendTypes
	default:
		known = append(append([]string(nil), model.PeopleSpendTypes...), model.ProgramSpendTypes...)
	}

	out := append([]string(nil), known...)
	seen := make(map[string]struct{}, len(known))
	for _, k := range known {
		seen[k] = struct{}{}
	}
	var extra []string
	for _, id := range b.UnitIDs() {
		for _, e := range (Filter{Group: g}).Entries(b.Units[id]) {
			if _, ok := seen[e.Name]; !ok {
				seen[e.Name] = struct{}{}
				extra = append(extra, e.Name)
			}
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Package model defines the budget data model shared by every budgetdash package.
package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// FinancialYearKey is the reserved top-level key that carries metadata, not a unit.
const FinancialYearKey = "financialYear"

// Budget is one immutable snapshot of the whole model, keyed by unit (cost center).
// Snapshots are never edited in place: derive a new one with With.
type Budget struct {
	FinancialYear string
	Units         map[string]UnitBudget
}

// UnitBudget is the budget breakdown of a single organizational unit.
type UnitBudget struct {
	TeamName string        `json:"teamName"`
	People   []SpendEntry  `json:"people"`
	Programs []SpendEntry  `json:"programs"`
	Months   []MonthRecord `json:"months"`
}

// Unit returns the unit stored under id.
func (b Budget) Unit(id string) (UnitBudget, bool) {
	if id == FinancialYearKey {
		return UnitBudget{}, false
	}
	u, ok := b.Units[id]
	return u, ok
}

// HasUnit reports whether id names a unit of the snapshot.
func (b Budget) HasUnit(id string) bool {
	_, ok := b.Unit(id)
	return ok
}

// UnitIDs returns unit keys in display order: integer-like keys ascending,
// then the remaining keys lexicographically.
func (b Budget) UnitIDs() []string {
	ids := make([]string, 0, len(b.Units))
	for id := range b.Units {
		if id == FinancialYearKey {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := isIndexKey(ids[i]), isIndexKey(ids[j])
		switch {
		case ni && nj:
			if len(ids[i]) != len(ids[j]) {
				return len(ids[i]) < len(ids[j])
			}
			return ids[i] < ids[j]
		case ni != nj:
			return ni
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

// With returns a new snapshot in which id maps to u. The receiver is left
// untouched; every other unit is shared with it.
func (b Budget) With(id string, u UnitBudget) Budget {
	next := Budget{
		FinancialYear: b.FinancialYear,
		Units:         make(map[string]UnitBudget, len(b.Units)+1),
	}
	for k, v := range b.Units {
		next.Units[k] = v
	}
	next.Units[id] = u
	return next
}

// Clone returns a deep copy of the snapshot.
func (b Budget) Clone() Budget {
	next := Budget{
		FinancialYear: b.FinancialYear,
		Units:         make(map[string]UnitBudget, len(b.Units)),
	}
	for k, v := range b.Units {
		next.Units[k] = v.Clone()
	}
	return next
}

// Clone returns a deep copy of the unit.
func (u UnitBudget) Clone() UnitBudget {
	return UnitBudget{
		TeamName: u.TeamName,
		People:   slices.Clone(u.People),
		Programs: slices.Clone(u.Programs),
		Months:   slices.Clone(u.Months),
	}
}

// Entries returns the spend entries of group g.
func (u UnitBudget) Entries(g Group) []SpendEntry {
	if g == GroupPeople {
		return u.People
	}
	return u.Programs
}

// AllSpend returns people followed by programs.
func (u UnitBudget) AllSpend() []SpendEntry {
	out := make([]SpendEntry, 0, len(u.People)+len(u.Programs))
	out = append(out, u.People...)
	return append(out, u.Programs...)
}

// SpendTotal is the grand total of all spend entries.
func (u UnitBudget) SpendTotal() float64 {
	var total float64
	for _, e := range u.People {
		total += e.Amount
	}
	for _, e := range u.Programs {
		total += e.Amount
	}
	return total
}

// FindSpend locates a spend entry by exact name.
func (u UnitBudget) FindSpend(name string) (Group, int, bool) {
	for i, e := range u.People {
		if e.Name == name {
			return GroupPeople, i, true
		}
	}
	for i, e := range u.Programs {
		if e.Name == name {
			return GroupPrograms, i, true
		}
	}
	return "", -1, false
}

// MarshalJSON writes the flat on-disk shape: the reserved key next to unit keys.
func (b Budget) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Units)+1)
	if b.FinancialYear != "" {
		out[FinancialYearKey] = b.FinancialYear
	}
	for id, u := range b.Units {
		if id == FinancialYearKey {
			continue
		}
		out[id] = u.withEmptySlices()
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat on-disk shape.
func (b *Budget) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.FinancialYear = ""
	b.Units = make(map[string]UnitBudget, len(raw))
	for key, msg := range raw {
		if key == FinancialYearKey {
			var fy string
			if err := json.Unmarshal(msg, &fy); err != nil {
				fy = strings.TrimSpace(string(msg))
			}
			b.FinancialYear = fy
			continue
		}
		var u UnitBudget
		if err := json.Unmarshal(msg, &u); err != nil {
			return fmt.Errorf("unit %s: %w", key, err)
		}
		b.Units[key] = u
	}
	return nil
}

func (u UnitBudget) withEmptySlices() UnitBudget {
	if u.People == nil {
		u.People = []SpendEntry{}
	}
	if u.Programs == nil {
		u.Programs = []SpendEntry{}
	}
	if u.Months == nil {
		u.Months = []MonthRecord{}
	}
	return u
}

func isIndexKey(s string) bool {
	if s == "" || len(s) > 9 {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

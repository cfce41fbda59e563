package reconcile

import (
	"math"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/model"
)

// SpendDelta is one spend-type amount for a unit, with the category text of
// its source row as a classification hint.
type SpendDelta struct {
	Name   string
	Amount float64
	Hint   string
}

// MergeSpend replaces the amount of spend types already present in either
// group and appends unseen ones to the group chosen by c. Percentages of the
// whole unit are recomputed afterwards. The input slices are never modified.
//
// Replacement does not accumulate: callers pre-sum rows naming the same
// spend type before passing them in.
func MergeSpend(people, programs []model.SpendEntry, deltas []SpendDelta, c *Classifier) ([]model.SpendEntry, []model.SpendEntry) {
	if c == nil {
		c = DefaultClassifier()
	}
	p := append(make([]model.SpendEntry, 0, len(people)), people...)
	g := append(make([]model.SpendEntry, 0, len(programs)), programs...)

	for _, d := range deltas {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		if i := indexSpend(p, name); i >= 0 {
			p[i].Amount = d.Amount
			continue
		}
		if i := indexSpend(g, name); i >= 0 {
			g[i].Amount = d.Amount
			continue
		}
		entry := model.SpendEntry{Name: name, Amount: d.Amount}
		if c.Classify(name, d.Hint) == model.GroupPeople {
			p = append(p, entry)
		} else {
			g = append(g, entry)
		}
	}

	Recompute(p, g)
	return p, g
}

// Recompute rewrites every entry's Value as its share of the combined
// total. It writes in place, so callers pass slices they own.
func Recompute(people, programs []model.SpendEntry) {
	var total float64
	for _, e := range people {
		total += e.Amount
	}
	for _, e := range programs {
		total += e.Amount
	}
	for i := range people {
		people[i].Value = Percent(people[i].Amount, total)
	}
	for i := range programs {
		programs[i].Value = Percent(programs[i].Amount, total)
	}
}

// Percent is amount/total as a whole percentage, rounding halves up.
// A non-positive total yields 0.
func Percent(amount, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(amount/total*100 + 0.5))
}

func indexSpend(entries []model.SpendEntry, name string) int {
	for i, e := range entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

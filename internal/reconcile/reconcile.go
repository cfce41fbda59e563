// Package reconcile merges decoded upload rows into a budget snapshot.
//
// Reconciliation is pure: it reads a prior model.Budget and a batch of raw
// rows and returns a new snapshot. Rows never fail a batch; rows that cannot
// contribute are counted in the Report and skipped.
package reconcile

import (
	"sort"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/model"
)

// Batch is one upload's worth of rows.
type Batch struct {
	Rows []RawRow
	// DefaultUnit receives rows without a costcenter value.
	DefaultUnit string
}

// Report summarizes what a reconciliation did with each row.
type Report struct {
	Rows        int      `json:"rows"`
	Applied     int      `json:"applied"`
	UnknownUnit int      `json:"unknown_unit"`
	NoUnit      int      `json:"no_unit"`
	Unusable    int      `json:"unusable"`
	DetailRows  int      `json:"detail_rows"`
	ActualsRows int      `json:"actuals_rows"`
	SpendRows   int      `json:"spend_rows"`
	Units       []string `json:"units"`
}

// Dropped counts rows that did not reach any merger.
func (r Report) Dropped() int {
	return r.UnknownUnit + r.NoUnit + r.Unusable
}

// Add folds another report into r.
func (r *Report) Add(o Report) {
	r.Rows += o.Rows
	r.Applied += o.Applied
	r.UnknownUnit += o.UnknownUnit
	r.NoUnit += o.NoUnit
	r.Unusable += o.Unusable
	r.DetailRows += o.DetailRows
	r.ActualsRows += o.ActualsRows
	r.SpendRows += o.SpendRows

	seen := make(map[string]struct{}, len(r.Units))
	for _, u := range r.Units {
		seen[u] = struct{}{}
	}
	for _, u := range o.Units {
		if _, ok := seen[u]; !ok {
			r.Units = append(r.Units, u)
			seen[u] = struct{}{}
		}
	}
	sort.Strings(r.Units)
}

// Reconciler applies batches using a configurable classifier.
type Reconciler struct {
	classifier *Classifier
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClassifier replaces the default spend-type classifier.
func WithClassifier(c *Classifier) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.classifier = c
		}
	}
}

// New returns a Reconciler using DefaultClassifier unless overridden.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{classifier: DefaultClassifier()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classifier returns the classifier used for unseen spend types.
func (r *Reconciler) Classifier() *Classifier {
	return r.classifier
}

// Reconcile merges batch into prior and returns the next snapshot. prior is
// not modified. Units without rows are shared with prior; touched units are
// rebuilt from copies.
func (r *Reconciler) Reconcile(prior model.Budget, batch Batch) (model.Budget, Report) {
	rep := Report{Rows: len(batch.Rows)}
	pending := make(map[string]*unitBatch)

	for _, raw := range batch.Rows {
		row := Normalize(raw, batch.DefaultUnit)
		switch {
		case row.Unit == "":
			rep.NoUnit++
			continue
		case !prior.HasUnit(row.Unit):
			rep.UnknownUnit++
			continue
		case row.Kind == 0:
			rep.Unusable++
			continue
		}

		ub, ok := pending[row.Unit]
		if !ok {
			ub = newUnitBatch()
			pending[row.Unit] = ub
		}
		ub.add(row, &rep)
		rep.Applied++
	}

	next := model.Budget{
		FinancialYear: prior.FinancialYear,
		Units:         make(map[string]model.UnitBudget, len(prior.Units)),
	}
	for id, u := range prior.Units {
		next.Units[id] = u
	}

	rep.Units = make([]string, 0, len(pending))
	for id := range pending {
		rep.Units = append(rep.Units, id)
	}
	sort.Strings(rep.Units)

	for _, id := range rep.Units {
		next.Units[id] = r.mergeUnit(prior.Units[id], pending[id])
	}
	return next, rep
}

// Reconcile merges rows into prior with the default classifier.
func Reconcile(prior model.Budget, rows []RawRow) model.Budget {
	next, _ := New().Reconcile(prior, Batch{Rows: rows})
	return next
}

func (r *Reconciler) mergeUnit(u model.UnitBudget, ub *unitBatch) model.UnitBudget {
	out := u.Clone()
	if len(ub.detail) > 0 {
		out.Months = MergeDetail(out.Months, ub.detail)
	}
	if len(ub.actuals) > 0 {
		out.Months = MergeActuals(out.Months, ub.actuals)
	}
	if len(ub.spend) > 0 {
		out.People, out.Programs = MergeSpend(out.People, out.Programs, ub.spend, r.classifier)
	}
	return out
}

// unitBatch collects one unit's deltas. Actuals are summed per month and
// spend amounts per name, both in first-seen order.
type unitBatch struct {
	detail     []DetailDelta
	actuals    []ActualsDelta
	actualsIdx map[string]int
	spend      []SpendDelta
	spendIdx   map[string]int
}

func newUnitBatch() *unitBatch {
	return &unitBatch{
		actualsIdx: make(map[string]int),
		spendIdx:   make(map[string]int),
	}
}

func (ub *unitBatch) add(row Row, rep *Report) {
	if row.Kind.Has(KindDetail) {
		ub.detail = append(ub.detail, DetailDelta{
			Date:        row.Date,
			Month:       row.Month,
			Category:    row.Category,
			Actual:      row.Actual,
			Anticipated: row.Anticipated,
		})
		rep.DetailRows++
	}

	if row.Kind.Has(KindActuals) {
		key := strings.ToLower(row.Month)
		i, ok := ub.actualsIdx[key]
		if !ok {
			ub.actuals = append(ub.actuals, ActualsDelta{Month: row.Month})
			i = len(ub.actuals) - 1
			ub.actualsIdx[key] = i
		}
		d := &ub.actuals[i]
		switch {
		case row.HasActual:
			d.Actual += row.Actual
			d.HasActual = true
		case !row.ActualColumn && row.HasAmount:
			d.Actual += row.Amount
			d.HasActual = true
		}
		if row.HasAnticipated {
			d.HasAnticipated = true
		}
		rep.ActualsRows++
	}

	if row.Kind.Has(KindSpend) {
		name := strings.TrimSpace(row.SpendType)
		i, ok := ub.spendIdx[name]
		if !ok {
			ub.spend = append(ub.spend, SpendDelta{Name: name})
			i = len(ub.spend) - 1
			ub.spendIdx[name] = i
		}
		ub.spend[i].Amount += row.Amount
		if row.Category != "" {
			ub.spend[i].Hint = row.Category
		}
		rep.SpendRows++
	}
}

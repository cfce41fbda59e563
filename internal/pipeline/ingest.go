package pipeline

import (
	"fmt"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/reconcile"
	"github.com/theirongolddev/budgetdash/internal/source"
	"github.com/theirongolddev/budgetdash/internal/store"
)

// IngestOptions controls how decoded uploads are applied.
type IngestOptions struct {
	// DefaultUnit receives rows without a costcenter column.
	DefaultUnit string
	// Force re-applies content whose hash was ingested before.
	Force bool
	// DryRun reconciles without writing to the store.
	DryRun bool
	// Origin is recorded in upload history (cli, inbox, api, tui).
	Origin string
	// Reconciler defaults to reconcile.New().
	Reconciler *reconcile.Reconciler
}

// FileOutcome is what happened to one upload.
type FileOutcome struct {
	Name      string
	Hash      string
	Format    source.Format
	Report    reconcile.Report
	Duplicate bool
	Err       error
}

// IngestResult holds the output of applying a set of uploads.
type IngestResult struct {
	Budget     model.Budget
	Files      []FileOutcome
	Report     reconcile.Report
	Ingested   int
	Duplicates int
	FileErrors int
	// Snapshot is set when a new snapshot was stored.
	Snapshot *store.Snapshot
}

// Changed reports whether any row reached a merger.
func (r *IngestResult) Changed() bool {
	return r.Report.Applied > 0
}

// IngestFiles decodes files in parallel and applies them in order.
func IngestFiles(prior model.Budget, files []source.DiscoveredFile, st *store.Store, opts IngestOptions, progressFn ProgressFunc) (*IngestResult, error) {
	return Apply(prior, DecodeAll(files, progressFn), st, opts)
}

// Apply reconciles decoded uploads into prior one after another. Decode
// failures and duplicates are counted and skipped. Unless DryRun is set
// and st is non-nil, the result is stored as one snapshot together with
// its upload history; uploads that changed nothing are recorded without a
// snapshot so they are not picked up again.
func Apply(prior model.Budget, decoded []source.DecodeResult, st *store.Store, opts IngestOptions) (*IngestResult, error) {
	r := opts.Reconciler
	if r == nil {
		r = reconcile.New()
	}

	result := &IngestResult{Budget: prior}
	seen := make(map[string]struct{})
	var history []store.Upload

	for _, dr := range decoded {
		up := dr.Upload
		out := FileOutcome{Name: up.Name, Hash: up.Hash, Format: up.Format, Err: dr.Err}
		if out.Name == "" {
			out.Name = dr.File.Name
		}
		if dr.Err != nil {
			result.FileErrors++
			result.Files = append(result.Files, out)
			continue
		}

		dup, err := isDuplicate(st, seen, up.Hash, opts.Force)
		if err != nil {
			return nil, fmt.Errorf("checking upload history: %w", err)
		}
		seen[up.Hash] = struct{}{}
		if dup {
			out.Duplicate = true
			result.Duplicates++
			result.Files = append(result.Files, out)
			continue
		}

		next, rep := r.Reconcile(result.Budget, reconcile.Batch{Rows: up.Rows, DefaultUnit: opts.DefaultUnit})
		result.Budget = next
		result.Report.Add(rep)
		result.Ingested++
		out.Report = rep
		result.Files = append(result.Files, out)

		history = append(history, store.Upload{
			Name:    up.Name,
			Format:  string(up.Format),
			Hash:    up.Hash,
			Origin:  opts.Origin,
			Rows:    rep.Rows,
			Applied: rep.Applied,
			Dropped: rep.Dropped(),
			Units:   rep.Units,
		})
	}

	if opts.DryRun || st == nil || len(history) == 0 {
		return result, nil
	}

	if !result.Changed() {
		for _, h := range history {
			if _, err := st.RecordUpload(h); err != nil {
				return nil, fmt.Errorf("recording upload %s: %w", h.Name, err)
			}
		}
		return result, nil
	}

	snap, err := st.SaveSnapshot(result.Budget, uploadNote(history), history...)
	if err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	result.Snapshot = &snap
	return result, nil
}

func isDuplicate(st *store.Store, seen map[string]struct{}, hash string, force bool) (bool, error) {
	if force || hash == "" {
		return false, nil
	}
	if _, ok := seen[hash]; ok {
		return true, nil
	}
	if st == nil {
		return false, nil
	}
	return st.HasUpload(hash)
}

func uploadNote(history []store.Upload) string {
	if len(history) == 1 {
		return "upload " + history[0].Name
	}
	return fmt.Sprintf("upload %d files", len(history))
}

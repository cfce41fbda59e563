// Package pipeline loads the current budget, ingests upload files into it,
// and computes the read-only views the CLI, daemon and dashboard render.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/source"
	"github.com/theirongolddev/budgetdash/internal/store"
)

// ProgressFunc is called during decoding to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Origin says where a loaded budget came from.
type Origin string

const (
	OriginStore       Origin = "store"
	OriginSeedFile    Origin = "seed-file"
	OriginBuiltinSeed Origin = "builtin-seed"
)

// LoadResult is the budget a command starts from.
type LoadResult struct {
	Budget   model.Budget
	Origin   Origin
	Snapshot store.Snapshot // set when Origin is OriginStore
}

// LoadBudget returns the newest stored snapshot. Without one it falls back
// to the seed file at seedPath, then to the built-in seed. st may be nil.
func LoadBudget(st *store.Store, seedPath string) (*LoadResult, error) {
	if st != nil {
		b, snap, err := st.LatestSnapshot()
		switch {
		case err == nil:
			return &LoadResult{Budget: b, Origin: OriginStore, Snapshot: snap}, nil
		case !errors.Is(err, store.ErrNoSnapshot):
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
	}

	if seedPath != "" {
		if _, err := os.Stat(seedPath); err == nil {
			b, err := source.LoadSeed(seedPath)
			if err != nil {
				return nil, err
			}
			return &LoadResult{Budget: b, Origin: OriginSeedFile}, nil
		}
	}

	b, err := source.DefaultSeed()
	if err != nil {
		return nil, fmt.Errorf("built-in seed: %w", err)
	}
	return &LoadResult{Budget: b, Origin: OriginBuiltinSeed}, nil
}

// DecodeAll decodes files in parallel with a bounded worker pool. Results
// keep the order of files.
func DecodeAll(files []source.DiscoveredFile, progressFn ProgressFunc) []source.DecodeResult {
	results := make([]source.DecodeResult, len(files))
	if len(files) == 0 {
		return results
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.DecodeFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()
	return results
}

// DataDir returns the platform-appropriate data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "budgetdash")
}

// StorePath returns the full path to the store database inside dataDir,
// or inside DataDir when dataDir is empty.
func StorePath(dataDir string) string {
	if dataDir == "" {
		dataDir = DataDir()
	}
	return filepath.Join(dataDir, "budgetdash.db")
}

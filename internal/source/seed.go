package source

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/theirongolddev/budgetdash/internal/model"
)

//go:embed seed.json
var defaultSeed []byte

// DefaultSeed returns the built-in starting model.
func DefaultSeed() (model.Budget, error) {
	return ParseSeed(defaultSeed)
}

// DefaultSeedJSON returns the raw built-in seed, for writing a starter file.
func DefaultSeedJSON() []byte {
	out := make([]byte, len(defaultSeed))
	copy(out, defaultSeed)
	return out
}

// LoadSeed reads a seed model from a JSON file in the flat
// {"financialYear": ..., "<unit>": {...}} shape.
func LoadSeed(path string) (model.Budget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Budget{}, fmt.Errorf("reading seed: %w", err)
	}
	b, err := ParseSeed(data)
	if err != nil {
		return model.Budget{}, fmt.Errorf("parsing seed %s: %w", path, err)
	}
	return b, nil
}

// ParseSeed decodes seed JSON.
func ParseSeed(data []byte) (model.Budget, error) {
	var b model.Budget
	if err := json.Unmarshal(data, &b); err != nil {
		return model.Budget{}, err
	}
	if b.Units == nil {
		b.Units = make(map[string]model.UnitBudget)
	}
	return b, nil
}

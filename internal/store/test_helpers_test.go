package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Program-Trace-Optimisation/PTO/internal/dist"
	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
	"github.com/Program-Trace-Optimisation/PTO/internal/trace"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id string) *Run {
	return &Run{
		ID:         id,
		Name:       "test",
		Problem:    "onemax",
		Algorithm:  "hill_climber",
		Params:     ir.Object{"size": ir.Int(3)},
		Config:     ir.Object{"generations": ir.Int(10)},
		Seed:       42,
		Replicates: 2,
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// createTestTrace creates a three-bit trace with the given values.
func createTestTrace(bits ...int64) *trace.Trace {
	tr := trace.NewTrace()
	for i, b := range bits {
		d := dist.MustNew(dist.FuncChoice, ir.Ints(0, 1)).With(ir.Int(b))
		tr.Set(string(rune('a'+i)), d)
	}
	return tr
}

// createTestReplicate creates a replicate of run runID.
func createTestReplicate(runID string, idx int, bits ...int64) *Replicate {
	sum := 0.0
	for _, b := range bits {
		sum += float64(b)
	}
	return &Replicate{
		RunID:       runID,
		Index:       idx,
		Fitness:     sum,
		Generations: 10,
		Evaluations: 11,
		Stop:        "generations",
		Pheno:       "[bits]",
		Trace:       createTestTrace(bits...),
	}
}

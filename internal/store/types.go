package store

import (
	"time"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
	"github.com/Program-Trace-Optimisation/PTO/internal/trace"
)

// Run is one execution of an experiment.
type Run struct {
	ID         string
	Seq        int64 // assigned by WriteRun
	Name       string
	Problem    string
	Algorithm  string
	Params     ir.Object // problem parameters
	Config     ir.Object // solver configuration
	Seed       uint64
	Replicates int
	CreatedAt  time.Time // informational only, never used for ordering
}

// Replicate is the best solution found by one replicate of a run.
type Replicate struct {
	RunID       string
	Index       int
	Fitness     float64
	Generations int
	Evaluations int
	Stop        string
	Pheno       string // display form
	Trace       *trace.Trace
	Fingerprint string // set by WriteReplicate when empty
}

// HistoryPoint is the best fitness after an improving generation.
type HistoryPoint struct {
	Generation  int
	Fitness     float64
	Evaluations int
}

package harness

import (
	"time"

	"github.com/Program-Trace-Optimisation/PTO/internal/search"
	"github.com/Program-Trace-Optimisation/PTO/internal/store"
	"github.com/Program-Trace-Optimisation/PTO/internal/trace"
)

// ReplicateResult is the outcome of one replicate.
type ReplicateResult struct {
	Index       int                  `json:"index"`
	Fitness     float64              `json:"fitness"`
	Generations int                  `json:"generations"`
	Evaluations int                  `json:"evaluations"`
	Stop        search.StopReason    `json:"stop"`
	Pheno       string               `json:"pheno"`
	Geno        *trace.Trace         `json:"trace"`
	Fingerprint string               `json:"fingerprint"`
	History     []store.HistoryPoint `json:"history,omitempty"`

	// Success is set when the experiment names a target.
	Success bool `json:"success"`
}

// Result is the outcome of an experiment.
type Result struct {
	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// RunID identifies the run in the store. Empty when no store is
	// attached.
	RunID string `json:"run_id,omitempty"`

	Experiment string            `json:"experiment"`
	Problem    string            `json:"problem"`
	Better     search.Better     `json:"-"`
	Replicates []ReplicateResult `json:"replicates"`
	Elapsed    time.Duration     `json:"elapsed_ns"`
	Errors     []string          `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Replicates: []ReplicateResult{},
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Best returns the replicate with the best fitness, the lowest index
// winning ties. ok is false if there are no replicates.
func (r *Result) Best() (best ReplicateResult, ok bool) {
	for i, rep := range r.Replicates {
		if i == 0 || r.Better.Improves(rep.Fitness, best.Fitness) {
			best = rep
			ok = true
		}
	}
	return best, ok
}

// SuccessRate is the fraction of replicates marked successful.
func (r *Result) SuccessRate() float64 {
	if len(r.Replicates) == 0 {
		return 0
	}
	n := 0
	for _, rep := range r.Replicates {
		if rep.Success {
			n++
		}
	}
	return float64(n) / float64(len(r.Replicates))
}

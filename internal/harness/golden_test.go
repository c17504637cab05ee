package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Program-Trace-Optimisation/PTO/internal/dist"
	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
	"github.com/Program-Trace-Optimisation/PTO/internal/search"
	"github.com/Program-Trace-Optimisation/PTO/internal/store"
	"github.com/Program-Trace-Optimisation/PTO/internal/trace"
)

func onesTrace(n int) *trace.Trace {
	tr := trace.NewTrace()
	for i := 0; i < n; i++ {
		tr.Set(string(rune('0'+i)), dist.MustNew(dist.FuncChoice, ir.Ints(0, 1)).With(ir.Int(1)))
	}
	return tr
}

func TestAssertGolden_Snapshot(t *testing.T) {
	tr := onesTrace(3)
	fp, err := tr.Fingerprint()
	require.NoError(t, err)

	result := NewResult()
	result.Experiment = "snapshot"
	result.Problem = "onemax"
	result.Better = search.Maximise
	result.RunID = "ignored"
	result.Elapsed = 12345
	result.Replicates = []ReplicateResult{
		{
			Index:       0,
			Fitness:     3,
			Generations: 7,
			Evaluations: 8,
			Stop:        search.StopTarget,
			Pheno:       "[1 1 1]",
			Geno:        tr,
			Fingerprint: fp,
			Success:     true,
			History: []store.HistoryPoint{
				{Generation: 0, Fitness: 1, Evaluations: 1},
				{Generation: 2, Fitness: 2, Evaluations: 3},
				{Generation: 5, Fitness: 3, Evaluations: 6},
			},
		},
		{
			Index:       1,
			Fitness:     math.NaN(),
			Generations: 10,
			Evaluations: 11,
			Stop:        search.StopGenerations,
			Pheno:       "[]",
		},
	}
	result.AddError("min_success_rate")

	require.NoError(t, AssertGolden(t, "snapshot", result))
}

func TestSnapshot_IgnoresTimingAndRunID(t *testing.T) {
	a := NewResult()
	a.Experiment = "x"
	b := NewResult()
	b.Experiment = "x"
	b.RunID = "run-2"
	b.Elapsed = 99

	sa, err := Snapshot(a)
	require.NoError(t, err)
	sb, err := Snapshot(b)
	require.NoError(t, err)
	require.Equal(t, string(sa), string(sb))
}

package harness

import (
	"context"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// Snapshot renders the reproducible part of a result as canonical JSON:
// everything except timings and the run ID. Non-finite fitness values are
// written as null.
func Snapshot(result *Result) ([]byte, error) {
	reps := make(ir.List, len(result.Replicates))
	for i, rep := range result.Replicates {
		history := make(ir.List, len(rep.History))
		for j, h := range rep.History {
			history[j] = ir.Object{
				"generation":  ir.Int(h.Generation),
				"fitness":     finite(h.Fitness),
				"evaluations": ir.Int(h.Evaluations),
			}
		}
		obj := ir.Object{
			"index":       ir.Int(rep.Index),
			"fitness":     finite(rep.Fitness),
			"generations": ir.Int(rep.Generations),
			"evaluations": ir.Int(rep.Evaluations),
			"stop":        ir.Str(rep.Stop),
			"pheno":       ir.Str(rep.Pheno),
			"fingerprint": ir.Str(rep.Fingerprint),
			"success":     ir.Bool(rep.Success),
			"history":     history,
		}
		if rep.Geno != nil {
			obj["trace"] = rep.Geno.Value()
		}
		reps[i] = obj
	}

	errs := make(ir.List, len(result.Errors))
	for i, e := range result.Errors {
		errs[i] = ir.Str(e)
	}

	return ir.MarshalCanonical(ir.Object{
		"experiment": ir.Str(result.Experiment),
		"problem":    ir.Str(result.Problem),
		"better":     ir.Str(result.Better.String()),
		"pass":       ir.Bool(result.Pass),
		"errors":     errs,
		"replicates": reps,
	})
}

func finite(f float64) ir.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ir.Null{}
	}
	return ir.Real(f)
}

// RunWithGolden executes an experiment without a store and compares its
// snapshot against testdata/golden/{exp.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the experiment fails to run. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, exp *Experiment) error {
	t.Helper()

	result, err := New().Run(context.Background(), exp)
	if err != nil {
		return err
	}
	return AssertGolden(t, exp.Name, result)
}

// AssertGolden compares the given result's snapshot against a golden file
// without re-running anything.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

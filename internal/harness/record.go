package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
	"github.com/Program-Trace-Optimisation/PTO/internal/problems"
	"github.com/Program-Trace-Optimisation/PTO/internal/search"
	"github.com/Program-Trace-Optimisation/PTO/internal/store"
)

// paramsObject encodes problem parameters for the run log. Zero fields are
// omitted.
func paramsObject(p problems.Params) ir.Object {
	obj := ir.Object{}
	putInt(obj, "size", p.Size)
	putInt(obj, "k", p.K)
	putInt(obj, "agents", p.Agents)
	if p.InstanceSeed != 0 {
		obj["instance_seed"] = ir.Int(int64(p.InstanceSeed)) // bit-for-bit
	}
	putStr(obj, "target", p.Target)
	putStr(obj, "alphabet", p.Alphabet)
	return obj
}

// solverObject encodes the solver section for the run log. Zero fields are
// omitted.
func solverObject(s Solver) ir.Object {
	obj := ir.Object{}
	putStr(obj, "algorithm", s.Algorithm)
	putStr(obj, "mutation", s.Mutation)
	putStr(obj, "crossover", s.Crossover)
	putInt(obj, "generations", s.Generations)
	putInt(obj, "max_evaluations", s.MaxEvaluations)
	if s.Target != nil {
		obj["target"] = ir.Real(*s.Target)
	}
	if s.Coarse {
		obj["coarse"] = ir.Bool(true)
	}
	putStr(obj, "namer", s.Namer)
	return obj
}

func putInt(obj ir.Object, key string, v int) {
	if v != 0 {
		obj[key] = ir.Int(v)
	}
}

func putStr(obj ir.Object, key, v string) {
	if v != "" {
		obj[key] = ir.Str(v)
	}
}

// ExperimentFromRun rebuilds the experiment a stored run was produced by.
// Expectations are not recorded and come back nil.
func ExperimentFromRun(run store.Run) (*Experiment, error) {
	exp := &Experiment{
		Name:       run.Name,
		Problem:    run.Problem,
		Replicates: run.Replicates,
		Seed:       run.Seed,
	}

	var err error
	if exp.Params.Size, err = getInt(run.Params, "size"); err != nil {
		return nil, err
	}
	if exp.Params.K, err = getInt(run.Params, "k"); err != nil {
		return nil, err
	}
	if exp.Params.Agents, err = getInt(run.Params, "agents"); err != nil {
		return nil, err
	}
	seed, err := getInt(run.Params, "instance_seed")
	if err != nil {
		return nil, err
	}
	exp.Params.InstanceSeed = uint64(seed)
	if exp.Params.Target, err = getStr(run.Params, "target"); err != nil {
		return nil, err
	}
	if exp.Params.Alphabet, err = getStr(run.Params, "alphabet"); err != nil {
		return nil, err
	}

	s := &exp.Solver
	if s.Algorithm, err = getStr(run.Config, "algorithm"); err != nil {
		return nil, err
	}
	if s.Mutation, err = getStr(run.Config, "mutation"); err != nil {
		return nil, err
	}
	if s.Crossover, err = getStr(run.Config, "crossover"); err != nil {
		return nil, err
	}
	if s.Generations, err = getInt(run.Config, "generations"); err != nil {
		return nil, err
	}
	if s.MaxEvaluations, err = getInt(run.Config, "max_evaluations"); err != nil {
		return nil, err
	}
	if s.Namer, err = getStr(run.Config, "namer"); err != nil {
		return nil, err
	}
	if v, ok := run.Config["target"]; ok {
		f, ok := ir.AsReal(v)
		if !ok {
			return nil, fmt.Errorf("config target: want number, got %s", ir.String(v))
		}
		s.Target = &f
	}
	if v, ok := run.Config["coarse"]; ok {
		b, ok := v.(ir.Bool)
		if !ok {
			return nil, fmt.Errorf("config coarse: want bool, got %s", ir.String(v))
		}
		s.Coarse = bool(b)
	}

	if err := validateExperiment(exp); err != nil {
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}
	return exp, nil
}

func getInt(obj ir.Object, key string) (int, error) {
	v, ok := obj[key]
	if !ok {
		return 0, nil
	}
	n, ok := ir.AsInt(v)
	if !ok {
		return 0, fmt.Errorf("%s: want integer, got %s", key, ir.String(v))
	}
	return int(n), nil
}

func getStr(obj ir.Object, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(ir.Str)
	if !ok {
		return "", fmt.Errorf("%s: want string, got %s", key, ir.String(v))
	}
	return string(s), nil
}

// ReplayResult compares a stored replicate with its replay.
type ReplayResult struct {
	RunID       string
	Index       int
	Pheno       string
	Fitness     float64
	Recorded    float64
	Fingerprint string

	// Match is true when the replay reproduced both the recorded fitness
	// and the recorded trace.
	Match bool
}

// Replay re-runs the generator of a stored run under the stored best trace
// of one replicate and checks the recorded fitness is reproduced.
// Entries the trace lacks are repaired from the replicate's own random
// stream.
func Replay(ctx context.Context, st *store.Store, runID string, idx int, logger *slog.Logger) (*ReplayResult, error) {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	rep, err := st.ReadReplicate(ctx, runID, idx)
	if err != nil {
		return nil, err
	}
	exp, err := ExperimentFromRun(run)
	if err != nil {
		return nil, err
	}
	inst, err := problems.New(exp.Problem, exp.Params)
	if err != nil {
		return nil, err
	}
	cfg, err := exp.SolveConfig()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		cfg.Logger = logger
	}

	out, err := inst.Replay(rep.Trace, search.ReplicateRand(run.Seed, idx), cfg)
	if err != nil {
		return nil, err
	}
	fp, err := out.Geno.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	sameFitness := out.Fitness == rep.Fitness || (math.IsNaN(out.Fitness) && math.IsNaN(rep.Fitness))
	return &ReplayResult{
		RunID:       runID,
		Index:       idx,
		Pheno:       inst.Describe(out.Pheno),
		Fitness:     out.Fitness,
		Recorded:    rep.Fitness,
		Fingerprint: fp,
		Match:       sameFitness && fp == rep.Fingerprint,
	}, nil
}

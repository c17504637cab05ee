package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Program-Trace-Optimisation/PTO/internal/problems"
	"github.com/Program-Trace-Optimisation/PTO/internal/search"
	"github.com/Program-Trace-Optimisation/PTO/internal/store"
)

// Clock supplies run timestamps.
// Implemented by the system clock (production) and
// testutil.DeterministicClock (tests).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Harness runs experiments and optionally records them in a run log.
type Harness struct {
	store  *store.Store
	ids    store.IDGenerator
	clock  Clock
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithStore records every run in s.
// Default: runs are not recorded.
func WithStore(s *store.Store) Option {
	return func(h *Harness) {
		h.store = s
	}
}

// WithIDGenerator sets how run IDs are generated.
// Default: store.UUIDv7Generator
func WithIDGenerator(g store.IDGenerator) Option {
	return func(h *Harness) {
		h.ids = g
	}
}

// WithClock sets the source of run timestamps.
// Default: the system clock in UTC.
func WithClock(c Clock) Option {
	return func(h *Harness) {
		h.clock = c
	}
}

// WithLogger sets the logger handed to every search.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		ids:    store.UUIDv7Generator{},
		clock:  systemClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes every replicate of exp, records the run if a store is
// attached and evaluates the experiment's expectations.
//
// Replicate i always sees the random stream search.ReplicateRand(exp.Seed, i),
// so results are independent of exp.Workers.
//
// The returned error reports failures to run or record; unmet
// expectations are reported through Result.Pass and Result.Errors.
func (h *Harness) Run(ctx context.Context, exp *Experiment) (*Result, error) {
	inst, err := problems.New(exp.Problem, exp.Params)
	if err != nil {
		return nil, err
	}
	cfg, err := exp.SolveConfig()
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	cfg.Logger = h.logger.With("experiment", exp.Name)

	h.logger.Info("experiment started",
		"experiment", exp.Name,
		"problem", inst.Name(),
		"replicates", exp.replicates(),
		"workers", exp.workers(),
		"seed", exp.Seed,
	)
	start := time.Now()

	reps, err := search.RunReplicates(ctx, exp.replicates(), exp.Seed, exp.workers(),
		func(ctx context.Context, i int, rng *rand.Rand) (ReplicateResult, error) {
			return runReplicate(ctx, inst, cfg, i, rng)
		})
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Experiment = exp.Name
	result.Problem = inst.Name()
	result.Better = inst.Better()
	result.Replicates = reps
	result.Elapsed = time.Since(start)

	if target := exp.successTarget(); target != nil {
		for i := range result.Replicates {
			result.Replicates[i].Success = result.Better.Reached(result.Replicates[i].Fitness, *target)
		}
	}

	if h.store != nil {
		if err := h.record(ctx, exp, inst, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateExpectations(exp, result) {
		result.AddError(msg)
	}

	h.logger.Info("experiment finished",
		"experiment", exp.Name,
		"run_id", result.RunID,
		"pass", result.Pass,
		"success_rate", result.SuccessRate(),
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// runReplicate solves one replicate, collecting the improvement history.
func runReplicate(ctx context.Context, inst problems.Instance, cfg problems.SolveConfig, i int, rng *rand.Rand) (ReplicateResult, error) {
	history := []store.HistoryPoint{}
	cfg.Callback = func(s search.Step) bool {
		if s.Generation == 0 || s.Improved {
			history = append(history, store.HistoryPoint{
				Generation:  s.Generation,
				Fitness:     s.Fitness,
				Evaluations: s.Evaluations,
			})
		}
		return false
	}
	cfg.Logger = cfg.Logger.With("replicate", i)

	out, err := inst.Solve(ctx, rng, cfg)
	if err != nil {
		return ReplicateResult{}, err
	}
	fp, err := out.Geno.Fingerprint()
	if err != nil {
		return ReplicateResult{}, fmt.Errorf("fingerprint: %w", err)
	}
	return ReplicateResult{
		Index:       i,
		Fitness:     out.Fitness,
		Generations: out.Generations,
		Evaluations: out.Evaluations,
		Stop:        out.Stop,
		Pheno:       inst.Describe(out.Pheno),
		Geno:        out.Geno,
		Fingerprint: fp,
		History:     history,
	}, nil
}

// record writes the run and its replicates to the store and sets
// result.RunID.
func (h *Harness) record(ctx context.Context, exp *Experiment, inst problems.Instance, result *Result) error {
	run := &store.Run{
		ID:         h.ids.Generate(),
		Name:       exp.Name,
		Problem:    inst.Name(),
		Algorithm:  algorithmName(exp.Solver.Algorithm),
		Params:     paramsObject(inst.Params()),
		Config:     solverObject(exp.Solver),
		Seed:       exp.Seed,
		Replicates: exp.replicates(),
		CreatedAt:  h.clock.Now(),
	}
	if err := h.store.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for _, rep := range result.Replicates {
		rec := &store.Replicate{
			RunID:       run.ID,
			Index:       rep.Index,
			Fitness:     rep.Fitness,
			Generations: rep.Generations,
			Evaluations: rep.Evaluations,
			Stop:        string(rep.Stop),
			Pheno:       rep.Pheno,
			Trace:       rep.Geno,
			Fingerprint: rep.Fingerprint,
		}
		if err := h.store.WriteReplicate(ctx, rec, rep.History); err != nil {
			return fmt.Errorf("record replicate %d: %w", rep.Index, err)
		}
	}

	result.RunID = run.ID
	h.logger.Debug("run recorded", "run_id", run.ID, "seq", run.Seq)
	return nil
}

func algorithmName(a string) string {
	if a == "" {
		return string(problems.HillClimber)
	}
	return a
}

// Package search provides single-solution search loops over the trace
// operators in internal/op.
//
// The loops know nothing about traces: they create, mutate and compare
// op.Solution values through an *op.Op and a fitness function. Population
// management is out of scope.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Program-Trace-Optimisation/PTO/internal/op"
)

// DefaultGenerations is the number of generations a search runs when
// WithGenerations is not given.
const DefaultGenerations = 1000

// Better says which direction of fitness is an improvement.
type Better uint8

const (
	Maximise Better = iota
	Minimise
)

func (b Better) String() string {
	if b == Minimise {
		return "min"
	}
	return "max"
}

// ParseBetter accepts "max", "maximise", "maximize", "min", "minimise" or
// "minimize".
func ParseBetter(s string) (Better, error) {
	switch strings.ToLower(s) {
	case "max", "maximise", "maximize":
		return Maximise, nil
	case "min", "minimise", "minimize":
		return Minimise, nil
	}
	return 0, fmt.Errorf("unknown optimisation direction %q (want max or min)", s)
}

// Improves reports whether candidate is strictly better than incumbent.
// NaN never improves.
func (b Better) Improves(candidate, incumbent float64) bool {
	if math.IsNaN(candidate) {
		return false
	}
	if math.IsNaN(incumbent) {
		return true
	}
	if b == Minimise {
		return candidate < incumbent
	}
	return candidate > incumbent
}

// Reached reports whether fitness is at least as good as target.
func (b Better) Reached(fitness, target float64) bool {
	if b == Minimise {
		return fitness <= target
	}
	return fitness >= target
}

// Fitness scores a phenotype.
type Fitness[P any] func(P) float64

// Step describes the search state after one generation. Generation 0 is
// the initial solution.
type Step struct {
	Generation  int
	Fitness     float64
	Improved    bool
	Evaluations int
}

// Callback observes every step. Returning true stops the search.
type Callback func(Step) bool

// StopReason says why a search ended.
type StopReason string

const (
	StopGenerations StopReason = "generations"
	StopCallback    StopReason = "callback"
	StopBudget      StopReason = "budget"
	StopTarget      StopReason = "target"
)

// Result is the outcome of one search run.
type Result[P any] struct {
	Best        op.Solution[P]
	Fitness     float64
	Generations int
	Evaluations int
	Stop        StopReason
	Elapsed     time.Duration
}

type config struct {
	generations    int
	better         Better
	callback       Callback
	logger         *slog.Logger
	maxEvaluations int
	target         float64
	hasTarget      bool
}

// Option configures a search.
type Option func(*config)

// WithGenerations sets the number of generations.
//
// Default: DefaultGenerations
func WithGenerations(n int) Option {
	return func(c *config) {
		c.generations = n
	}
}

// WithBetter sets the optimisation direction. Default: Maximise.
func WithBetter(b Better) Option {
	return func(c *config) {
		c.better = b
	}
}

// WithCallback registers a per-step observer that may stop the search.
func WithCallback(cb Callback) Option {
	return func(c *config) {
		c.callback = cb
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMaxEvaluations limits the number of fitness evaluations, including
// the initial one. 0 means unlimited.
func WithMaxEvaluations(n int) Option {
	return func(c *config) {
		c.maxEvaluations = n
	}
}

// WithTarget stops the search as soon as the best fitness reaches target.
func WithTarget(target float64) Option {
	return func(c *config) {
		c.target = target
		c.hasTarget = true
	}
}

// HillClimber keeps one solution and replaces it by a mutant whenever the
// mutant is strictly better.
type HillClimber[P any] struct {
	name    string
	op      *op.Op[P]
	fitness Fitness[P]
	mutate  func(op.Solution[P]) (op.Solution[P], error)
	cfg     config
}

// NewHillClimber creates a hill climber that mutates with o.MutateInd.
func NewHillClimber[P any](o *op.Op[P], fitness Fitness[P], opts ...Option) *HillClimber[P] {
	return newClimber("hill_climber", o, fitness, o.MutateInd, opts)
}

// NewRandomSearch creates a hill climber whose mutation ignores the
// current solution, which makes it a random search.
func NewRandomSearch[P any](o *op.Op[P], fitness Fitness[P], opts ...Option) *HillClimber[P] {
	return newClimber("random_search", o, fitness, o.MutateRandom, opts)
}

func newClimber[P any](
	name string,
	o *op.Op[P],
	fitness Fitness[P],
	mutate func(op.Solution[P]) (op.Solution[P], error),
	opts []Option,
) *HillClimber[P] {
	cfg := config{
		generations: DefaultGenerations,
		better:      Maximise,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HillClimber[P]{
		name:    name,
		op:      o,
		fitness: fitness,
		mutate:  mutate,
		cfg:     cfg,
	}
}

// Name returns "hill_climber" or "random_search".
func (h *HillClimber[P]) Name() string {
	return h.name
}

// Run executes the search. The context is checked once per generation; on
// cancellation Run returns the best solution so far together with the
// context's error.
func (h *HillClimber[P]) Run(ctx context.Context) (Result[P], error) {
	start := time.Now()
	logger := h.cfg.logger.With("algorithm", h.name)
	if h.cfg.generations < 0 {
		return Result[P]{}, fmt.Errorf("negative generation count %d", h.cfg.generations)
	}
	if h.cfg.maxEvaluations < 0 {
		return Result[P]{}, fmt.Errorf("negative evaluation budget %d", h.cfg.maxEvaluations)
	}
	budget := NewBudget(h.cfg.maxEvaluations)

	evaluate := func(s op.Solution[P]) (float64, error) {
		if err := budget.Spend(); err != nil {
			return 0, err
		}
		return h.fitness(s.Pheno), nil
	}

	logger.Info("search started",
		"generations", h.cfg.generations,
		"better", h.cfg.better,
		"max_evaluations", h.cfg.maxEvaluations,
	)

	ind, err := h.op.CreateInd()
	if err != nil {
		return Result[P]{}, fmt.Errorf("create initial solution: %w", err)
	}
	fx, err := evaluate(ind)
	if err != nil {
		return Result[P]{}, fmt.Errorf("evaluate initial solution: %w", err)
	}

	res := Result[P]{Best: ind, Fitness: fx, Evaluations: budget.Used(), Stop: StopGenerations}
	finish := func() Result[P] {
		res.Evaluations = budget.Used()
		res.Elapsed = time.Since(start)
		logger.Info("search finished",
			"fitness", res.Fitness,
			"generations", res.Generations,
			"evaluations", res.Evaluations,
			"stop", res.Stop,
			"elapsed", res.Elapsed,
		)
		return res
	}

	if h.stopAfter(Step{Fitness: fx, Evaluations: budget.Used()}, &res) {
		return finish(), nil
	}

	for gen := 1; gen <= h.cfg.generations; gen++ {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}

		child, err := h.mutate(res.Best)
		if err != nil {
			return finish(), fmt.Errorf("generation %d: %w", gen, err)
		}
		cfx, err := evaluate(child)
		if err != nil {
			if IsBudgetExhausted(err) {
				res.Stop = StopBudget
				return finish(), nil
			}
			return finish(), err
		}

		improved := h.cfg.better.Improves(cfx, res.Fitness)
		if improved {
			logger.Debug("improved", "generation", gen, "from", res.Fitness, "to", cfx)
			res.Best, res.Fitness = child, cfx
		}
		res.Generations = gen

		step := Step{Generation: gen, Fitness: res.Fitness, Improved: improved, Evaluations: budget.Used()}
		if h.stopAfter(step, &res) {
			break
		}
	}
	return finish(), nil
}

// stopAfter applies the target and callback checks and records the reason.
func (h *HillClimber[P]) stopAfter(step Step, res *Result[P]) bool {
	if h.cfg.callback != nil && h.cfg.callback(step) {
		res.Stop = StopCallback
		return true
	}
	if h.cfg.hasTarget && h.cfg.better.Reached(step.Fitness, h.cfg.target) {
		res.Stop = StopTarget
		return true
	}
	return false
}

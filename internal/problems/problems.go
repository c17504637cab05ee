// Package problems holds the example problems the CLI and the experiment
// harness run.
//
// Each problem is a generator plus a fitness function over its own
// phenotype type. Instance erases that type so callers can pick problems by
// name from configuration.
package problems

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/Program-Trace-Optimisation/PTO/internal/naming"
	"github.com/Program-Trace-Optimisation/PTO/internal/op"
	"github.com/Program-Trace-Optimisation/PTO/internal/search"
	"github.com/Program-Trace-Optimisation/PTO/internal/trace"
)

// Params are the instance parameters shared by all problems. Zero fields
// take the problem's defaults.
type Params struct {
	Size         int    `yaml:"size" json:"size,omitempty"`
	K            int    `yaml:"k" json:"k,omitempty"`
	Agents       int    `yaml:"agents" json:"agents,omitempty"`
	InstanceSeed uint64 `yaml:"instance_seed" json:"instance_seed,omitempty"`
	Target       string `yaml:"target" json:"target,omitempty"`
	Alphabet     string `yaml:"alphabet" json:"alphabet,omitempty"`
}

// Algorithm names a search loop.
type Algorithm string

const (
	HillClimber  Algorithm = "hill_climber"
	RandomSearch Algorithm = "random_search"
)

// NamerKind names a naming strategy.
type NamerKind string

const (
	NamerSequential NamerKind = "sequential"
	NamerStack      NamerKind = "stack"
)

// SolveConfig configures one search run.
type SolveConfig struct {
	Algorithm      Algorithm
	Mutation       op.MutationKind
	Crossover      op.CrossoverKind
	Generations    int
	MaxEvaluations int
	Target         *float64
	Coarse         bool
	Namer          NamerKind
	Logger         *slog.Logger
	Callback       search.Callback
}

// Outcome is a problem-agnostic view of a solved or replayed solution.
type Outcome struct {
	Pheno       any
	Geno        *trace.Trace
	Fitness     float64
	Generations int
	Evaluations int
	Stop        search.StopReason
}

// Instance is a problem with its parameters bound.
type Instance interface {
	Name() string
	Better() search.Better
	Params() Params
	// Solve runs one search using rng for every random decision.
	Solve(ctx context.Context, rng *rand.Rand, cfg SolveConfig) (Outcome, error)
	// Replay runs the generator under geno and scores the result. geno is
	// not modified.
	Replay(geno *trace.Trace, rng *rand.Rand, cfg SolveConfig) (Outcome, error)
	// Describe renders a phenotype for display.
	Describe(pheno any) string
}

// Definition registers a problem.
type Definition struct {
	Name        string
	Description string
	Better      search.Better
	Defaults    Params
	Build       func(p Params) (Instance, error)
}

var registry = map[string]Definition{}

func register(d Definition) {
	if _, dup := registry[d.Name]; dup {
		panic(fmt.Sprintf("problem %q registered twice", d.Name))
	}
	registry[d.Name] = d
}

// Lookup returns the named problem's definition.
func Lookup(name string) (Definition, bool) {
	d, ok := registry[name]
	return d, ok
}

// All returns every registered problem sorted by name.
func All() []Definition {
	out := make([]Definition, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted problem names.
func Names() []string {
	var names []string
	for _, d := range All() {
		names = append(names, d.Name)
	}
	return names
}

// New builds the named problem. Zero fields in p take the defaults.
func New(name string, p Params) (Instance, error) {
	d, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown problem %q (known: %v)", name, Names())
	}
	return d.Build(withDefaults(p, d.Defaults))
}

func withDefaults(p, def Params) Params {
	if p.Size == 0 {
		p.Size = def.Size
	}
	if p.K == 0 {
		p.K = def.K
	}
	if p.Agents == 0 {
		p.Agents = def.Agents
	}
	if p.InstanceSeed == 0 {
		p.InstanceSeed = def.InstanceSeed
	}
	if p.Target == "" {
		p.Target = def.Target
	}
	if p.Alphabet == "" {
		p.Alphabet = def.Alphabet
	}
	return p
}

// typed binds a generator and fitness of phenotype P to the Instance
// interface.
type typed[P any] struct {
	name     string
	better   search.Better
	params   Params
	gen      trace.Generator[P]
	fitness  search.Fitness[P]
	describe func(P) string
}

func (t *typed[P]) Name() string          { return t.name }
func (t *typed[P]) Better() search.Better { return t.better }
func (t *typed[P]) Params() Params        { return t.params }

func (t *typed[P]) Describe(pheno any) string {
	p, ok := pheno.(P)
	if !ok {
		return fmt.Sprint(pheno)
	}
	if t.describe != nil {
		return t.describe(p)
	}
	return fmt.Sprint(p)
}

func (t *typed[P]) operators(rng *rand.Rand, cfg SolveConfig) *op.Op[P] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := []trace.Option{trace.WithLogger(logger)}
	if cfg.Coarse {
		opts = append(opts, trace.WithCoarse())
	}
	if cfg.Namer == NamerStack {
		opts = append(opts, trace.WithNamer(naming.NewStack()))
	}
	tr := trace.New(rng, opts...)
	return op.New(t.gen, tr, op.WithMutation(cfg.Mutation), op.WithCrossover(cfg.Crossover))
}

func (t *typed[P]) Solve(ctx context.Context, rng *rand.Rand, cfg SolveConfig) (Outcome, error) {
	o := t.operators(rng, cfg)

	opts := []search.Option{search.WithBetter(t.better)}
	if cfg.Generations > 0 {
		opts = append(opts, search.WithGenerations(cfg.Generations))
	}
	if cfg.MaxEvaluations > 0 {
		opts = append(opts, search.WithMaxEvaluations(cfg.MaxEvaluations))
	}
	if cfg.Target != nil {
		opts = append(opts, search.WithTarget(*cfg.Target))
	}
	if cfg.Logger != nil {
		opts = append(opts, search.WithLogger(cfg.Logger.With("problem", t.name)))
	}
	if cfg.Callback != nil {
		opts = append(opts, search.WithCallback(cfg.Callback))
	}

	var s *search.HillClimber[P]
	switch cfg.Algorithm {
	case "", HillClimber:
		s = search.NewHillClimber(o, t.fitness, opts...)
	case RandomSearch:
		s = search.NewRandomSearch(o, t.fitness, opts...)
	default:
		return Outcome{}, fmt.Errorf("unknown algorithm %q", cfg.Algorithm)
	}

	res, err := s.Run(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", t.name, err)
	}
	return Outcome{
		Pheno:       res.Best.Pheno,
		Geno:        res.Best.Geno,
		Fitness:     res.Fitness,
		Generations: res.Generations,
		Evaluations: res.Evaluations,
		Stop:        res.Stop,
	}, nil
}

func (t *typed[P]) Replay(geno *trace.Trace, rng *rand.Rand, cfg SolveConfig) (Outcome, error) {
	sol, err := t.operators(rng, cfg).FixInd(geno)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: replay: %w", t.name, err)
	}
	return Outcome{
		Pheno:       sol.Pheno,
		Geno:        sol.Geno,
		Fitness:     t.fitness(sol.Pheno),
		Evaluations: 1,
	}, nil
}

// Algorithms lists the accepted algorithm names.
func Algorithms() []string {
	return []string{string(HillClimber), string(RandomSearch)}
}

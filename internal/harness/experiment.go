package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Program-Trace-Optimisation/PTO/internal/op"
	"github.com/Program-Trace-Optimisation/PTO/internal/problems"
)

// Experiment is a reproducible batch of searches over one problem.
// Experiments are loaded from YAML files and recorded in the run log.
type Experiment struct {
	// Name identifies the experiment in the run log and golden files.
	Name string `yaml:"name"`

	// Description explains what the experiment measures.
	Description string `yaml:"description,omitempty"`

	// Problem is a registered problem name (see problems.Names).
	Problem string `yaml:"problem"`

	// Params bind the problem instance. Zero fields take the problem's
	// defaults.
	Params problems.Params `yaml:"params,omitempty"`

	// Solver configures every replicate's search.
	Solver Solver `yaml:"solver,omitempty"`

	// Replicates is the number of independent searches.
	// Default: 1
	Replicates int `yaml:"replicates,omitempty"`

	// Seed derives every replicate's random stream. Replicate i of a given
	// seed always sees the same stream.
	Seed uint64 `yaml:"seed,omitempty"`

	// Workers bounds how many replicates run at once. Results do not depend
	// on it.
	// Default: 1
	Workers int `yaml:"workers,omitempty"`

	// Expect holds pass/fail criteria evaluated after the run.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Solver selects the search loop and its operators.
type Solver struct {
	Algorithm      string   `yaml:"algorithm,omitempty"`
	Mutation       string   `yaml:"mutation,omitempty"`
	Crossover      string   `yaml:"crossover,omitempty"`
	Generations    int      `yaml:"generations,omitempty"`
	MaxEvaluations int      `yaml:"max_evaluations,omitempty"`
	Target         *float64 `yaml:"target,omitempty"`
	Coarse         bool     `yaml:"coarse,omitempty"`
	Namer          string   `yaml:"namer,omitempty"`
}

// Expect specifies what a passing experiment looks like.
type Expect struct {
	// MinSuccessRate is the fraction of replicates that must reach Target.
	MinSuccessRate float64 `yaml:"min_success_rate,omitempty"`

	// Target is the fitness a replicate must reach to count as a success.
	// If nil, the solver's target is used.
	Target *float64 `yaml:"target,omitempty"`
}

// LoadExperiment reads and parses an experiment YAML file.
// Returns an error if the file doesn't exist, fails the schema, contains
// unknown fields, or names an unknown problem or operator.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file: %w", err)
	}
	return ParseExperiment(path, data)
}

// ParseExperiment parses experiment YAML. filename is used in error
// positions only.
func ParseExperiment(filename string, data []byte) (*Experiment, error) {
	if err := ValidateSchema(filename, data); err != nil {
		return nil, err
	}

	var exp Experiment
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&exp); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateExperiment(&exp); err != nil {
		return nil, fmt.Errorf("invalid experiment: %w", err)
	}
	return &exp, nil
}

// validateExperiment checks what the schema cannot: registered names and
// cross-field constraints.
func validateExperiment(e *Experiment) error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, ok := problems.Lookup(e.Problem); !ok {
		return fmt.Errorf("unknown problem %q (known: %v)", e.Problem, problems.Names())
	}
	if e.Replicates < 0 {
		return fmt.Errorf("replicates must be >= 0, got %d", e.Replicates)
	}
	if e.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", e.Workers)
	}
	if _, err := e.SolveConfig(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if e.Expect != nil {
		if e.Expect.MinSuccessRate < 0 || e.Expect.MinSuccessRate > 1 {
			return fmt.Errorf("expect.min_success_rate must be in [0, 1], got %g", e.Expect.MinSuccessRate)
		}
		if e.Expect.Target == nil && e.Solver.Target == nil {
			return fmt.Errorf("expect needs a target (expect.target or solver.target)")
		}
	}
	return nil
}

// SolveConfig translates the solver section into a problems.SolveConfig.
// Logger and Callback are left for the caller.
func (e *Experiment) SolveConfig() (problems.SolveConfig, error) {
	cfg := problems.SolveConfig{
		Generations:    e.Solver.Generations,
		MaxEvaluations: e.Solver.MaxEvaluations,
		Target:         e.Solver.Target,
		Coarse:         e.Solver.Coarse,
	}

	switch a := problems.Algorithm(e.Solver.Algorithm); a {
	case "", problems.HillClimber, problems.RandomSearch:
		cfg.Algorithm = a
	default:
		return cfg, fmt.Errorf("unknown algorithm %q (valid: %v)", a, problems.Algorithms())
	}

	switch n := problems.NamerKind(e.Solver.Namer); n {
	case "", problems.NamerSequential, problems.NamerStack:
		cfg.Namer = n
	default:
		return cfg, fmt.Errorf("unknown namer %q (valid: [%s %s])", n, problems.NamerSequential, problems.NamerStack)
	}

	if e.Solver.Mutation != "" {
		m, err := op.ParseMutation(e.Solver.Mutation)
		if err != nil {
			return cfg, err
		}
		cfg.Mutation = m
	}
	if e.Solver.Crossover != "" {
		c, err := op.ParseCrossover(e.Solver.Crossover)
		if err != nil {
			return cfg, err
		}
		cfg.Crossover = c
	}
	if cfg.Generations < 0 {
		return cfg, fmt.Errorf("generations must be >= 0, got %d", cfg.Generations)
	}
	if cfg.MaxEvaluations < 0 {
		return cfg, fmt.Errorf("max_evaluations must be >= 0, got %d", cfg.MaxEvaluations)
	}
	return cfg, nil
}

// successTarget returns the fitness a replicate must reach to succeed, or
// nil if the experiment names none.
func (e *Experiment) successTarget() *float64 {
	if e.Expect != nil && e.Expect.Target != nil {
		return e.Expect.Target
	}
	return e.Solver.Target
}

func (e *Experiment) replicates() int {
	if e.Replicates <= 0 {
		return 1
	}
	return e.Replicates
}

func (e *Experiment) workers() int {
	if e.Workers <= 0 {
		return 1
	}
	return e.Workers
}

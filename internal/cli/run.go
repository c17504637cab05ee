package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Program-Trace-Optimisation/PTO/internal/harness"
	"github.com/Program-Trace-Optimisation/PTO/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database   string
	Seed       uint64
	Replicates int
	Workers    int

	// IDGenerator allows overriding run IDs (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// ReplicateSummary is one replicate in a run report.
type ReplicateSummary struct {
	Index       int     `json:"index"`
	Fitness     float64 `json:"fitness"`
	Generations int     `json:"generations"`
	Evaluations int     `json:"evaluations"`
	Stop        string  `json:"stop"`
	Pheno       string  `json:"pheno"`
	Fingerprint string  `json:"fingerprint"`
	Success     bool    `json:"success"`
}

// RunSummary is the report printed by the run command.
type RunSummary struct {
	RunID       string             `json:"run_id,omitempty"`
	Experiment  string             `json:"experiment"`
	Problem     string             `json:"problem"`
	Better      string             `json:"better"`
	Pass        bool               `json:"pass"`
	SuccessRate float64            `json:"success_rate"`
	Best        *ReplicateSummary  `json:"best,omitempty"`
	Replicates  []ReplicateSummary `json:"replicates"`
	Errors      []string           `json:"errors,omitempty"`
}

// String renders the summary for text output.
func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Experiment: %s (%s, %s)\n", s.Experiment, s.Problem, s.Better)
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	}
	for _, r := range s.Replicates {
		fmt.Fprintf(&b, "  [%d] fitness=%g generations=%d evaluations=%d stop=%s\n",
			r.Index, r.Fitness, r.Generations, r.Evaluations, r.Stop)
	}
	if s.Best != nil {
		fmt.Fprintf(&b, "Best: [%d] fitness=%g %s\n", s.Best.Index, s.Best.Fitness, s.Best.Pheno)
	}
	fmt.Fprintf(&b, "Success rate: %.0f%%\n", s.SuccessRate*100)
	for _, e := range s.Errors {
		b.WriteString(e)
		if !strings.HasSuffix(e, "\n") {
			b.WriteByte('\n')
		}
	}
	if s.Pass {
		b.WriteString("PASS")
	} else {
		b.WriteString("FAIL")
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <experiment.yaml>",
		Short: "Run an experiment",
		Long: `Run every replicate of an experiment and check its expectations.

With --db the run, each replicate's best trace and its improvement history
are recorded in a SQLite run log (created if it doesn't exist). Recorded
traces can be replayed with "pto replay".

Exit codes:
  0 - All expectations held
  1 - One or more expectations failed
  2 - Command error (invalid experiment file, database error, etc.)

Examples:
  pto run experiments/onemax.yaml
  pto run experiments/onemax.yaml --db ./runs.db --workers 4
  pto run experiments/tsp.yaml --seed 42 --replicates 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (optional)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "override the experiment seed")
	cmd.Flags().IntVar(&opts.Replicates, "replicates", 0, "override the number of replicates")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "override the number of parallel workers")

	return cmd
}

func runExperiment(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	logger := out.Logger()

	exp, err := harness.LoadExperiment(path)
	if err != nil {
		_ = out.Error(CodeExperiment, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load experiment", err)
	}
	if cmd.Flags().Changed("seed") {
		exp.Seed = opts.Seed
	}
	if opts.Replicates > 0 {
		exp.Replicates = opts.Replicates
	}
	if opts.Workers > 0 {
		exp.Workers = opts.Workers
	}

	hopts := []harness.Option{harness.WithLogger(logger)}
	if opts.IDGenerator != nil {
		hopts = append(hopts, harness.WithIDGenerator(opts.IDGenerator))
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = out.Error(CodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		hopts = append(hopts, harness.WithStore(st))
	}

	out.VerboseLog("Running %s: %d replicate(s) of %s", exp.Name, max(1, exp.Replicates), exp.Problem)
	result, err := harness.New(hopts...).Run(commandContext(cmd), exp)
	if err != nil {
		_ = out.Error(CodeExperiment, err.Error(), nil)
		return WrapExitError(ExitCommandError, "experiment failed to run", err)
	}

	summary := summarize(result)
	if !result.Pass {
		if err := out.Failure(CodeExpectation, "expectations failed", summary); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "expectations failed")
	}
	return out.Success(summary)
}

func summarize(r *harness.Result) RunSummary {
	s := RunSummary{
		RunID:       r.RunID,
		Experiment:  r.Experiment,
		Problem:     r.Problem,
		Better:      r.Better.String(),
		Pass:        r.Pass,
		SuccessRate: r.SuccessRate(),
		Replicates:  make([]ReplicateSummary, len(r.Replicates)),
		Errors:      r.Errors,
	}
	for i, rep := range r.Replicates {
		s.Replicates[i] = ReplicateSummary{
			Index:       rep.Index,
			Fitness:     rep.Fitness,
			Generations: rep.Generations,
			Evaluations: rep.Evaluations,
			Stop:        string(rep.Stop),
			Pheno:       rep.Pheno,
			Fingerprint: rep.Fingerprint,
			Success:     rep.Success,
		}
	}
	if best, ok := r.Best(); ok {
		s.Best = &s.Replicates[best.Index]
	}
	return s
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Program-Trace-Optimisation/PTO/internal/problems"
	"github.com/Program-Trace-Optimisation/PTO/internal/search"
	"github.com/Program-Trace-Optimisation/PTO/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunListing is one row of the runs command output.
type RunListing struct {
	ID          string    `json:"id"`
	Seq         int64     `json:"seq"`
	Name        string    `json:"name"`
	Problem     string    `json:"problem"`
	Algorithm   string    `json:"algorithm"`
	Seed        uint64    `json:"seed"`
	Replicates  int       `json:"replicates"`
	BestFitness *float64  `json:"best_fitness,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunList renders as a table in text mode.
type RunList []RunListing

func (l RunList) String() string {
	if len(l) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-36s %-20s %-12s %-14s %5s %12s\n",
		"SEQ", "ID", "NAME", "PROBLEM", "ALGORITHM", "REPS", "BEST")
	for _, r := range l {
		best := "-"
		if r.BestFitness != nil {
			best = fmt.Sprintf("%g", *r.BestFitness)
		}
		fmt.Fprintf(&b, "%-4d %-36s %-20s %-12s %-14s %5d %12s\n",
			r.Seq, r.ID, r.Name, r.Problem, r.Algorithm, r.Replicates, best)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs recorded in a run log, oldest first, with the best
fitness any replicate reached.

Examples:
  pto runs --db ./runs.db
  pto runs --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func listRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	out := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	list := make(RunList, 0, len(runs))
	for _, run := range runs {
		reps, err := st.ReadReplicates(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read replicates", err)
		}
		list = append(list, RunListing{
			ID:          run.ID,
			Seq:         run.Seq,
			Name:        run.Name,
			Problem:     run.Problem,
			Algorithm:   run.Algorithm,
			Seed:        run.Seed,
			Replicates:  run.Replicates,
			BestFitness: bestFitness(run.Problem, reps),
			CreatedAt:   run.CreatedAt,
		})
	}
	return out.Success(list)
}

// bestFitness returns the best recorded fitness in the problem's direction,
// or nil if there are no replicates.
func bestFitness(problem string, reps []store.Replicate) *float64 {
	better := search.Maximise
	if d, ok := problems.Lookup(problem); ok {
		better = d.Better
	}
	var best *float64
	for _, rep := range reps {
		if best == nil || better.Improves(rep.Fitness, *best) {
			f := rep.Fitness
			best = &f
		}
	}
	return best
}

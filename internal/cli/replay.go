package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Program-Trace-Optimisation/PTO/internal/harness"
	"github.com/Program-Trace-Optimisation/PTO/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	RunID     string // optional - defaults to the latest run
	Replicate int    // optional - -1 replays every replicate
}

// ReplayReplicateResult holds the replay result for a single replicate.
type ReplayReplicateResult struct {
	Index       int     `json:"index"`
	Fitness     float64 `json:"fitness"`
	Recorded    float64 `json:"recorded"`
	Fingerprint string  `json:"fingerprint"`
	Pheno       string  `json:"pheno"`
	Reproduced  bool    `json:"reproduced"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	RunID         string                  `json:"run_id"`
	Experiment    string                  `json:"experiment"`
	Problem       string                  `json:"problem"`
	Replicates    []ReplayReplicateResult `json:"replicates"`
	AllReproduced bool                    `json:"all_reproduced"`
}

// String renders the result for text output.
func (r ReplayResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Replay Summary: run %s (%s, %s), %d replicate(s)\n\n",
		r.RunID, r.Experiment, r.Problem, len(r.Replicates))
	for _, rep := range r.Replicates {
		status := "ok  "
		if !rep.Reproduced {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%s [%d] fitness=%g recorded=%g %s\n",
			status, rep.Index, rep.Fitness, rep.Recorded, rep.Pheno)
	}
	b.WriteByte('\n')
	if r.AllReproduced {
		b.WriteString("All replicates reproduced")
	} else {
		b.WriteString("Replay did not reproduce the recorded results")
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded traces and verify they reproduce",
		Long: `Replay the best trace of recorded replicates through their generator.

Each stored trace is played back through the problem it was recorded for. The
replay must reproduce both the recorded fitness and the recorded trace.

Exit codes:
  0 - Every replicate reproduced
  1 - At least one replicate did not reproduce
  2 - Command error (database not found, unknown run, etc.)

Examples:
  pto replay --db ./runs.db
  pto replay --db ./runs.db --run 0190b5a2-... --replicate 3
  pto replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID (default: latest run)")
	cmd.Flags().IntVar(&opts.Replicate, "replicate", -1, "replay a single replicate")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	out := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var run store.Run
	if opts.RunID != "" {
		run, err = st.ReadRun(ctx, opts.RunID)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if errors.Is(err, sql.ErrNoRows) {
		msg := "no runs recorded"
		if opts.RunID != "" {
			msg = fmt.Sprintf("run not found: %s", opts.RunID)
		}
		_ = out.Error(CodeStore, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	indices := []int{opts.Replicate}
	if opts.Replicate < 0 {
		reps, err := st.ReadReplicates(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read replicates", err)
		}
		indices = indices[:0]
		for _, rep := range reps {
			indices = append(indices, rep.Index)
		}
	}

	result := ReplayResult{
		RunID:         run.ID,
		Experiment:    run.Name,
		Problem:       run.Problem,
		Replicates:    make([]ReplayReplicateResult, 0, len(indices)),
		AllReproduced: true,
	}
	for _, idx := range indices {
		out.VerboseLog("Replaying %s/%d", run.ID, idx)
		r, err := harness.Replay(ctx, st, run.ID, idx, out.Logger())
		if err != nil {
			_ = out.Error(CodeReplay, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay replicate %d", idx), err)
		}
		result.Replicates = append(result.Replicates, ReplayReplicateResult{
			Index:       r.Index,
			Fitness:     r.Fitness,
			Recorded:    r.Recorded,
			Fingerprint: r.Fingerprint,
			Pheno:       r.Pheno,
			Reproduced:  r.Match,
		})
		if !r.Match {
			result.AllReproduced = false
		}
	}

	if !result.AllReproduced {
		if err := out.Failure(CodeReplay, "replay did not reproduce", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "replay did not reproduce")
	}
	return out.Success(result)
}

package harness

import (
	"fmt"
	"strings"

	"github.com/Program-Trace-Optimisation/PTO/internal/search"
)

// ExpectationError describes an unmet expectation.
// Replicates are included for debugging context.
type ExpectationError struct {
	Expectation string
	Expected    string
	Actual      string
	Replicates  []ReplicateResult
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Expectation failed: %s\n", e.Expectation)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Replicates) > 0 {
		fmt.Fprintf(&buf, "\nReplicates:\n")
		for _, rep := range e.Replicates {
			mark := " "
			if rep.Success {
				mark = "+"
			}
			fmt.Fprintf(&buf, "  %s[%d] fitness=%g generations=%d stop=%s\n",
				mark, rep.Index, rep.Fitness, rep.Generations, rep.Stop)
		}
	}
	return buf.String()
}

// EvaluateExpectations checks result against exp.Expect and returns one
// message per unmet expectation. Returns an empty slice (not nil) if all
// hold or there are none.
func EvaluateExpectations(exp *Experiment, result *Result) []string {
	errs := []string{}
	if exp.Expect == nil {
		return errs
	}

	if err := assertSuccessRate(exp, result); err != nil {
		errs = append(errs, err.Error())
	}
	return errs
}

// assertSuccessRate checks the fraction of replicates that reached the
// target.
func assertSuccessRate(exp *Experiment, result *Result) error {
	target := exp.successTarget()
	if target == nil {
		return &ExpectationError{
			Expectation: "min_success_rate",
			Expected:    "a target fitness",
			Actual:      "none configured",
		}
	}

	want := exp.Expect.MinSuccessRate
	got := result.SuccessRate()
	if got >= want {
		return nil
	}

	succeeded := int(got*float64(len(result.Replicates)) + 0.5)
	expected := fmt.Sprintf("at least %.0f%% of replicates reach %s %g", want*100, reachVerb(result), *target)
	return &ExpectationError{
		Expectation: "min_success_rate",
		Expected:    expected,
		Actual:      fmt.Sprintf("%d of %d (%.0f%%)", succeeded, len(result.Replicates), got*100),
		Replicates:  result.Replicates,
	}
}

func reachVerb(result *Result) string {
	if result.Better == search.Minimise {
		return "<="
	}
	return ">="
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Program-Trace-Optimisation/PTO/internal/problems"
)

// ProblemInfo describes a registered problem.
type ProblemInfo struct {
	Name        string          `json:"name"`
	Better      string          `json:"better"`
	Description string          `json:"description"`
	Defaults    problems.Params `json:"defaults"`
}

// ProblemList renders one problem per line in text mode.
type ProblemList []ProblemInfo

func (l ProblemList) String() string {
	var b strings.Builder
	for i, p := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-12s %-4s %s", p.Name, p.Better, p.Description)
	}
	return b.String()
}

// NewProblemsCommand creates the problems command.
func NewProblemsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "List the problems experiments can name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := ProblemList{}
			for _, d := range problems.All() {
				list = append(list, ProblemInfo{
					Name:        d.Name,
					Better:      d.Better.String(),
					Description: d.Description,
					Defaults:    d.Defaults,
				})
			}
			return rootOpts.formatter(cmd).Success(list)
		},
	}
	return cmd
}

package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Program-Trace-Optimisation/PTO/internal/op"
	"github.com/Program-Trace-Optimisation/PTO/internal/problems"
)

func TestLoadExperiment_Valid(t *testing.T) {
	exp, err := LoadExperiment(filepath.Join("testdata", "experiments", "onemax.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "onemax_point", exp.Name)
	assert.Equal(t, "onemax", exp.Problem)
	assert.Equal(t, 10, exp.Params.Size)
	assert.Equal(t, 4, exp.Replicates)
	assert.Equal(t, uint64(7), exp.Seed)
	assert.Equal(t, 2, exp.Workers)
	require.NotNil(t, exp.Expect)
	assert.Equal(t, 0.5, exp.Expect.MinSuccessRate)
	require.NotNil(t, exp.Expect.Target)
	assert.Equal(t, 10.0, *exp.Expect.Target)

	cfg, err := exp.SolveConfig()
	require.NoError(t, err)
	assert.Equal(t, problems.HillClimber, cfg.Algorithm)
	assert.Equal(t, op.MutationPoint, cfg.Mutation)
	assert.Equal(t, 200, cfg.Generations)
}

func TestLoadExperiment_SolverOptions(t *testing.T) {
	exp, err := LoadExperiment(filepath.Join("testdata", "experiments", "sphere.yaml"))
	require.NoError(t, err)

	cfg, err := exp.SolveConfig()
	require.NoError(t, err)
	assert.Equal(t, problems.RandomSearch, cfg.Algorithm)
	assert.Equal(t, problems.NamerStack, cfg.Namer)
	assert.True(t, cfg.Coarse)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, 0.001, *cfg.Target)
	assert.Nil(t, exp.Expect)
}

func TestLoadExperiment_FileNotFound(t *testing.T) {
	_, err := LoadExperiment(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read experiment file")
}

func TestParseExperiment_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown top-level field",
			yaml: "name: x\nproblem: onemax\nbogus: 1\n",
		},
		{
			name: "unknown solver field",
			yaml: "name: x\nproblem: onemax\nsolver:\n  generation: 5\n",
		},
		{
			name: "missing name",
			yaml: "problem: onemax\n",
		},
		{
			name: "empty problem",
			yaml: "name: x\nproblem: \"\"\n",
		},
		{
			name: "unknown mutation",
			yaml: "name: x\nproblem: onemax\nsolver:\n  mutation: flip\n",
		},
		{
			name: "zero replicates",
			yaml: "name: x\nproblem: onemax\nreplicates: 0\n",
		},
		{
			name: "success rate above one",
			yaml: "name: x\nproblem: onemax\nexpect:\n  min_success_rate: 1.5\n  target: 3\n",
		},
		{
			name: "wrong type",
			yaml: "name: x\nproblem: onemax\nseed: abc\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExperiment("exp.yaml", []byte(tt.yaml))
			require.Error(t, err)
			var se *SchemaError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestParseExperiment_SemanticErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown problem",
			yaml:    "name: x\nproblem: nosuch\n",
			wantErr: "unknown problem",
		},
		{
			name:    "expectation without target",
			yaml:    "name: x\nproblem: onemax\nexpect:\n  min_success_rate: 0.5\n",
			wantErr: "expect needs a target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExperiment("exp.yaml", []byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseExperiment_Defaults(t *testing.T) {
	exp, err := ParseExperiment("exp.yaml", []byte("name: x\nproblem: onemax\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, exp.replicates())
	assert.Equal(t, 1, exp.workers())
	assert.Nil(t, exp.successTarget())

	cfg, err := exp.SolveConfig()
	require.NoError(t, err)
	assert.Equal(t, op.MutationPoint, cfg.Mutation)
	assert.Equal(t, op.CrossoverUniform, cfg.Crossover)
}

func TestSuccessTarget_ExpectOverridesSolver(t *testing.T) {
	solver, expect := 1.0, 2.0
	exp := &Experiment{
		Solver: Solver{Target: &solver},
	}
	assert.Equal(t, 1.0, *exp.successTarget())

	exp.Expect = &Expect{Target: &expect}
	assert.Equal(t, 2.0, *exp.successTarget())
}

package problems

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Program-Trace-Optimisation/PTO/internal/op"
	"github.com/Program-Trace-Optimisation/PTO/internal/search"
)

func quietConfig() SolveConfig {
	return SolveConfig{
		Generations: 100,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"assignment", "helloworld", "onemax", "sphere", "subset", "tsp"}, Names())

	_, err := New("knapsack", Params{})
	assert.ErrorContains(t, err, "unknown problem")
}

func TestEveryProblemSolvesAndReplays(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			inst, err := New(name, Params{})
			require.NoError(t, err)
			cfg := quietConfig()

			out, err := inst.Solve(context.Background(), search.ReplicateRand(1, 0), cfg)
			require.NoError(t, err)
			assert.Equal(t, 100, out.Generations)
			require.NotNil(t, out.Geno)
			assert.Positive(t, out.Geno.Len())

			// replaying the best trace reproduces phenotype and fitness
			before := out.Geno.Clone()
			again, err := inst.Replay(out.Geno, search.ReplicateRand(99, 0), cfg)
			require.NoError(t, err)
			assert.Equal(t, out.Pheno, again.Pheno)
			assert.Equal(t, out.Fitness, again.Fitness)
			assert.True(t, before.Equal(out.Geno))
			assert.NotEmpty(t, inst.Describe(out.Pheno))
		})
	}
}

func TestPhenotypeShapes(t *testing.T) {
	ctx := context.Background()

	tsp, err := New("tsp", Params{Size: 8})
	require.NoError(t, err)
	out, err := tsp.Solve(ctx, search.ReplicateRand(2, 0), quietConfig())
	require.NoError(t, err)
	tour := slices.Clone(out.Pheno.([]int))
	slices.Sort(tour)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, tour)

	sub, err := New("subset", Params{Size: 9, K: 4})
	require.NoError(t, err)
	out, err = sub.Solve(ctx, search.ReplicateRand(3, 0), quietConfig())
	require.NoError(t, err)
	picked := out.Pheno.([]int)
	assert.Len(t, picked, 4)
	assert.Len(t, slices.Compact(slices.Sorted(slices.Values(picked))), 4)

	gap, err := New("assignment", Params{Size: 6, Agents: 3})
	require.NoError(t, err)
	out, err = gap.Solve(ctx, search.ReplicateRand(4, 0), quietConfig())
	require.NoError(t, err)
	for _, a := range out.Pheno.([]int) {
		assert.GreaterOrEqual(t, a, 0)
		assert.Less(t, a, 3)
	}
}

func TestInvalidParams(t *testing.T) {
	_, err := New("subset", Params{Size: 3, K: 5})
	assert.Error(t, err)
	_, err = New("onemax", Params{Size: -1})
	assert.Error(t, err)
}

func TestInstanceDataIsSeeded(t *testing.T) {
	assert.Equal(t, DistanceMatrix(5, 7), DistanceMatrix(5, 7))
	assert.NotEqual(t, DistanceMatrix(5, 7), DistanceMatrix(5, 8))
	assert.Equal(t, NewAssignment(3, 6, 1), NewAssignment(3, 6, 1))
}

func TestAssignmentPenalty(t *testing.T) {
	a := Assignment{
		Cost:     [][]int{{1, 2}, {3, 4}},
		Resource: [][]int{{5, 5}, {1, 1}},
		Capacity: []int{6, 10},
	}
	assert.Equal(t, 3.0+4000, a.Fitness([]int{0, 0}))
	assert.Equal(t, 5.0, a.Fitness([]int{0, 1}))
}

func TestSolveOptions(t *testing.T) {
	inst, err := New("onemax", Params{Size: 12})
	require.NoError(t, err)

	target := 12.0
	cfg := quietConfig()
	cfg.Generations = 2000
	cfg.Target = &target
	cfg.Mutation = op.MutationPositionWise
	cfg.Namer = NamerStack
	out, err := inst.Solve(context.Background(), search.ReplicateRand(5, 0), cfg)
	require.NoError(t, err)
	assert.Equal(t, search.StopTarget, out.Stop)
	assert.Equal(t, 12.0, out.Fitness)

	cfg.Algorithm = "annealing"
	_, err = inst.Solve(context.Background(), search.ReplicateRand(5, 0), cfg)
	assert.Error(t, err)
}

func TestHelloWorldDescribe(t *testing.T) {
	inst, err := New("helloworld", Params{})
	require.NoError(t, err)
	assert.Equal(t, `"HELLO"`, inst.Describe("HELLO"))
	assert.Equal(t, "42", inst.Describe(42))
}

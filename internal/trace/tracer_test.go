package trace

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Program-Trace-Optimisation/PTO/internal/dist"
	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

func newTracer(seed uint64, opts ...Option) *Tracer {
	return New(rand.New(rand.NewPCG(seed, seed+1)), opts...)
}

type mixed struct {
	X    float64
	N    int
	Pick ir.Value
	Perm ir.List
}

func mixedGen(r *Random) mixed {
	return mixed{
		X:    r.Uniform(0, 1),
		N:    r.RandInt(0, 10),
		Pick: r.Choice(ir.Strs("a", "b", "c")),
		Perm: r.Shuffle(ir.Ints(1, 2, 3, 4)),
	}
}

// variable-length generator: the first call decides how many follow
func lengthGen(r *Random) []int {
	n := r.RandInt(1, 5)
	out := make([]int, n)
	for i := range out {
		out[i] = r.RandInt(0, 100)
	}
	return out
}

func TestPlayRecordsEveryCall(t *testing.T) {
	tr := newTracer(1)
	pheno, out, err := Play(tr, mixedGen, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "2", "3"}, out.Names())

	d, ok := out.Get("0")
	require.True(t, ok)
	assert.Equal(t, dist.FuncUniform, d.Fn)
	assert.Equal(t, ir.Real(pheno.X), d.Val)

	d, _ = out.Get("1")
	assert.Equal(t, ir.Int(pheno.N), d.Val)
	d, _ = out.Get("3")
	assert.True(t, ir.Equal(pheno.Perm, d.Val))
	assert.False(t, tr.Active())
}

func TestReplayRoundTrip(t *testing.T) {
	for seed := range uint64(20) {
		tr := newTracer(seed)
		p1, t1, err := Play(tr, lengthGen, nil)
		require.NoError(t, err)

		p2, t2, err := Play(tr, lengthGen, t1)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
		assert.True(t, t1.Equal(t2), "replay must reproduce the trace")

		// fixing an already fixed trace changes nothing
		_, t3, err := Play(tr, lengthGen, t2)
		require.NoError(t, err)
		assert.True(t, t2.Equal(t3))
	}
}

func TestReplayDoesNotModifyInput(t *testing.T) {
	tr := newTracer(2)
	_, in, err := Play(tr, lengthGen, nil)
	require.NoError(t, err)

	// perturb: drop the length decision so it is resampled
	perturbed := NewTrace()
	for n, d := range in.All() {
		if n != "0" {
			perturbed.Set(n, d)
		}
	}
	before := perturbed.Clone()

	_, _, err = Play(tr, lengthGen, perturbed)
	require.NoError(t, err)
	assert.True(t, before.Equal(perturbed))
}

func TestReplayPrunesUnreachedEntries(t *testing.T) {
	tr := newTracer(3)
	in := NewTrace()
	in.Set("0", dist.MustNew(dist.FuncRandInt, ir.Int(1), ir.Int(5)).With(ir.Int(2)))
	for i, name := range []string{"1", "2", "3", "4"} {
		in.Set(name, dist.MustNew(dist.FuncRandInt, ir.Int(0), ir.Int(100)).With(ir.Int(int64(i))))
	}
	in.Set("stale", dist.MustNew(dist.FuncRandom).With(ir.Real(0.5)))

	pheno, out, err := Play(tr, lengthGen, in)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, pheno)
	assert.Equal(t, []string{"0", "1", "2"}, out.Names())
}

func TestReplayRepairsChangedCall(t *testing.T) {
	tr := newTracer(4)
	in := NewTrace()
	in.Set("0", dist.MustNew(dist.FuncUniform, ir.Real(-5), ir.Real(5)).With(ir.Real(2.5)))

	x, out, err := Play(tr, func(r *Random) float64 { return r.Uniform(0, 1) }, in)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, x, 1e-12)

	d, _ := out.Get("0")
	assert.True(t, ir.Equal(ir.Reals(0, 1), d.Args), "entry takes the new parameters")
}

func TestReplayResamplesAcrossKinds(t *testing.T) {
	tr := newTracer(5)
	in := NewTrace()
	in.Set("0", dist.MustNew(dist.FuncChoice, ir.Strs("a")).With(ir.Str("a")))

	n, out, err := Play(tr, func(r *Random) int { return r.RandInt(3, 4) }, in)
	require.NoError(t, err)
	assert.Contains(t, []int{3, 4}, n)
	d, _ := out.Get("0")
	assert.Equal(t, dist.FuncRandInt, d.Fn)
}

func TestReplayRepairsOutOfSupportValue(t *testing.T) {
	for seed := range uint64(20) {
		tr := newTracer(seed)
		in := NewTrace()
		in.Set("0", dist.MustNew(dist.FuncRandInt, ir.Int(0), ir.Int(1)).With(ir.Int(7)))

		n, out, err := Play(tr, func(r *Random) int { return r.RandInt(0, 1) }, in)
		require.NoError(t, err)
		assert.Contains(t, []int{0, 1}, n)
		d, _ := out.Get("0")
		assert.True(t, d.Contains(d.Val), d.String())
	}
}

func TestReplayIgnoresUnknownChoiceIndex(t *testing.T) {
	items := []string{"a", "b", "c"}
	for seed := range uint64(20) {
		tr := newTracer(seed)
		in := NewTrace()
		in.Set("0", dist.MustNew(dist.FuncChoice, ir.Range(len(items))).With(ir.Int(99)))

		s, _, err := Play(tr, func(r *Random) string { return ChoiceOf(r, items) }, in)
		require.NoError(t, err)
		assert.Contains(t, items, s)
	}
}

func TestDuplicateNameAbortsReplay(t *testing.T) {
	tr := newTracer(6)
	gen := func(r *Random) float64 {
		a := r.Named("x").Random()
		b := r.Named("x").Random()
		return a + b
	}
	_, out, err := Play(tr, gen, nil)
	require.Error(t, err)
	assert.True(t, IsDuplicateNameError(err))
	assert.Nil(t, out)
	assert.False(t, tr.Active(), "tracer returns to idle")

	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "x", te.Name)

	// the tracer is still usable
	_, _, err = Play(tr, mixedGen, nil)
	require.NoError(t, err)
}

func TestInvalidDistributionAbortsReplay(t *testing.T) {
	tr := newTracer(7)
	_, _, err := Play(tr, func(r *Random) float64 { return r.Uniform(1, 0) }, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidDistributionError(err))
	assert.ErrorIs(t, err, dist.ErrInvalidArgs)
}

func TestReentrantPlayIsAnError(t *testing.T) {
	tr := newTracer(8)
	var inner error
	_, _, err := Play(tr, func(r *Random) int {
		_, _, inner = Play(tr, lengthGen, nil)
		return r.RandInt(0, 1)
	}, nil)
	require.NoError(t, err)
	assert.True(t, IsReentrantPlayError(inner))
}

func TestUnrelatedPanicsPropagate(t *testing.T) {
	tr := newTracer(9)
	assert.PanicsWithValue(t, "boom", func() {
		_, _, _ = Play(tr, func(r *Random) int { panic("boom") }, nil)
	})
	assert.False(t, tr.Active())
}

func TestIdleSamplingIsUntraced(t *testing.T) {
	tr := newTracer(10)
	r := tr.Random()
	for range 20 {
		x := r.Uniform(2, 3)
		assert.GreaterOrEqual(t, x, 2.0)
		assert.LessOrEqual(t, x, 3.0)
	}
	assert.Panics(t, func() { r.Uniform(3, 2) })
}

func TestGenericHelpers(t *testing.T) {
	type city struct{ name string }
	cities := []city{{"a"}, {"b"}, {"c"}, {"d"}}
	gen := func(r *Random) [][]city {
		return [][]city{
			{ChoiceOf(r, cities)},
			ShuffleOf(r, cities),
			SampleOf(r, cities, 2),
			ChoicesOf(r, cities, 5),
		}
	}

	tr := newTracer(11)
	p1, t1, err := Play(tr, gen, nil)
	require.NoError(t, err)
	assert.Len(t, p1[1], 4)
	assert.ElementsMatch(t, cities, p1[1])
	assert.Len(t, p1[2], 2)
	assert.NotEqual(t, p1[2][0], p1[2][1])
	assert.Len(t, p1[3], 5)

	p2, _, err := Play(tr, gen, t1)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestCoarseTracer(t *testing.T) {
	tr := newTracer(12, WithCoarse())
	_, out, err := Play(tr, mixedGen, nil)
	require.NoError(t, err)
	for _, d := range out.All() {
		assert.True(t, d.Coarse)
	}

	// a fine trace is not reused by a coarse tracer
	fine := newTracer(12)
	_, fineOut, err := Play(fine, mixedGen, nil)
	require.NoError(t, err)
	_, out, err = Play(tr, mixedGen, fineOut)
	require.NoError(t, err)
	d, _ := out.Get("0")
	assert.True(t, d.Coarse)
}

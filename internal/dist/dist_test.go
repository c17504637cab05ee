package dist

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// every function with representative arguments
func allDists(t *testing.T) []*Dist {
	t.Helper()
	specs := []struct {
		fn   Func
		args []ir.Value
	}{
		{FuncRandom, nil},
		{FuncUniform, []ir.Value{ir.Real(-5), ir.Real(5)}},
		{FuncTriangular, []ir.Value{ir.Real(0), ir.Real(10), ir.Real(2)}},
		{FuncBeta, []ir.Value{ir.Real(2), ir.Real(3)}},
		{FuncExpo, []ir.Value{ir.Real(1.5)}},
		{FuncGamma, []ir.Value{ir.Real(2), ir.Real(1)}},
		{FuncGauss, []ir.Value{ir.Real(0), ir.Real(1)}},
		{FuncNormal, []ir.Value{ir.Int(10), ir.Real(2)}},
		{FuncLogNormal, []ir.Value{ir.Real(0), ir.Real(0.5)}},
		{FuncPareto, []ir.Value{ir.Real(3)}},
		{FuncWeibull, []ir.Value{ir.Real(1), ir.Real(1.5)}},
		{FuncRandInt, []ir.Value{ir.Int(0), ir.Int(10)}},
		{FuncRandRange, []ir.Value{ir.Int(2), ir.Int(20), ir.Int(3)}},
		{FuncChoice, []ir.Value{ir.Strs("a", "b", "c")}},
		{FuncShuffle, []ir.Value{ir.Ints(1, 2, 3, 4, 5)}},
		{FuncSample, []ir.Value{ir.Ints(1, 2, 3, 4, 5, 6), ir.Int(3)}},
		{FuncChoices, []ir.Value{ir.Strs("x", "y"), ir.Int(4)}},
	}
	out := make([]*Dist, len(specs))
	for i, s := range specs {
		d, err := New(s.fn, s.args...)
		require.NoError(t, err, s.fn.String())
		out[i] = d
	}
	return out
}

// inSupport checks that d holds a value its function could have produced.
func inSupport(t *testing.T, d *Dist) {
	t.Helper()
	s := d.sup
	switch s.kind {
	case KindReal:
		v, ok := d.Val.(ir.Real)
		require.True(t, ok, "%s holds %T", d, d.Val)
		assert.GreaterOrEqual(t, float64(v), s.min, d.String())
		assert.LessOrEqual(t, float64(v), s.max, d.String())
	case KindInt:
		v, ok := d.Val.(ir.Int)
		require.True(t, ok, "%s holds %T", d, d.Val)
		assert.GreaterOrEqual(t, int64(v), s.lo, d.String())
		assert.LessOrEqual(t, int64(v), s.hi, d.String())
		assert.True(t, s.onGrid(int64(v)), "%s is off the grid", d)
	case KindCategorical:
		assert.True(t, s.seq.Contains(d.Val), d.String())
	case KindSequence:
		v, ok := d.Val.(ir.List)
		require.True(t, ok, "%s holds %T", d, d.Val)
		require.Len(t, v, s.k, d.String())
		switch s.mode {
		case modeShuffle, modeSample:
			assert.Len(t, s.unused(v), len(s.seq)-s.k, "%s reuses a population slot", d)
		case modeChoices:
			for _, e := range v {
				assert.True(t, s.seq.Contains(e), d.String())
			}
		}
	}
}

func TestNewRejectsInvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		fn   Func
		args []ir.Value
	}{
		{"random with args", FuncRandom, []ir.Value{ir.Int(1)}},
		{"uniform reversed", FuncUniform, []ir.Value{ir.Real(2), ir.Real(1)}},
		{"uniform non-numeric", FuncUniform, []ir.Value{ir.Str("a"), ir.Real(1)}},
		{"uniform infinite", FuncUniform, []ir.Value{ir.Real(0), ir.Real(math.Inf(1))}},
		{"triangular mode outside", FuncTriangular, []ir.Value{ir.Real(0), ir.Real(1), ir.Real(2)}},
		{"beta zero", FuncBeta, []ir.Value{ir.Real(0), ir.Real(1)}},
		{"expo negative", FuncExpo, []ir.Value{ir.Real(-1)}},
		{"gauss negative sigma", FuncGauss, []ir.Value{ir.Real(0), ir.Real(-1)}},
		{"randint real bound", FuncRandInt, []ir.Value{ir.Real(0), ir.Int(3)}},
		{"randint reversed", FuncRandInt, []ir.Value{ir.Int(3), ir.Int(0)}},
		{"randrange empty", FuncRandRange, []ir.Value{ir.Int(0)}},
		{"randrange zero step", FuncRandRange, []ir.Value{ir.Int(0), ir.Int(5), ir.Int(0)}},
		{"choice empty", FuncChoice, []ir.Value{ir.List{}}},
		{"choice scalar", FuncChoice, []ir.Value{ir.Int(3)}},
		{"sample too many", FuncSample, []ir.Value{ir.Ints(1, 2), ir.Int(3)}},
		{"choices negative k", FuncChoices, []ir.Value{ir.Ints(1, 2), ir.Int(-1)}},
		{"choices empty population", FuncChoices, []ir.Value{ir.List{}, ir.Int(1)}},
		{"unknown func", Func(200), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fn, tt.args...)
			require.Error(t, err)
			assert.True(t, IsInvalidArgs(err), err.Error())
		})
	}
}

func TestNewCopiesArgs(t *testing.T) {
	seq := ir.Strs("a", "b")
	d := MustNew(FuncChoice, seq)
	seq[0] = ir.Str("z")
	assert.True(t, ir.Equal(ir.Strs("a", "b"), d.Args[0]))
	assert.True(t, ir.Equal(ir.Strs("a", "b"), d.sup.seq))
}

func TestParseFunc(t *testing.T) {
	for f, name := range funcNames {
		got, err := ParseFunc(name)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFunc("vonmises")
	assert.True(t, IsInvalidArgs(err))
}

func TestRandRangeSupport(t *testing.T) {
	d := MustNew(FuncRandRange, ir.Int(2), ir.Int(20), ir.Int(3))
	assert.Equal(t, int64(2), d.sup.lo)
	assert.Equal(t, int64(17), d.sup.hi)
	assert.Equal(t, uint64(6), d.sup.gridSize())

	d = MustNew(FuncRandRange, ir.Int(5))
	assert.Equal(t, int64(0), d.sup.lo)
	assert.Equal(t, int64(4), d.sup.hi)
}

func TestOperatorsStayInSupport(t *testing.T) {
	r := newRand(1)
	for _, proto := range allDists(t) {
		t.Run(proto.Fn.String(), func(t *testing.T) {
			for range 50 {
				a, b, c := proto.Clone(), proto.Clone(), proto.Clone()
				a.Sample(r)
				b.Sample(r)
				c.Sample(r)
				inSupport(t, a)

				inSupport(t, a.Mutation(r))
				inSupport(t, a.Crossover(r, b))
				inSupport(t, a.ConvexCrossover(r, b, c))

				dist := a.Distance(b)
				assert.GreaterOrEqual(t, dist, 0.0)
				assert.LessOrEqual(t, dist, 1.0)
				assert.Zero(t, a.Distance(a))
			}
		})
	}
}

func TestOperatorsDoNotModifyOperands(t *testing.T) {
	r := newRand(2)
	for _, proto := range allDists(t) {
		a, b, c := proto.Clone(), proto.Clone(), proto.Clone()
		a.Sample(r)
		b.Sample(r)
		c.Sample(r)
		before := []*Dist{a.Clone(), b.Clone(), c.Clone()}

		a.Mutation(r)
		a.Crossover(r, b)
		a.ConvexCrossover(r, b, c)
		a.Distance(c)

		for i, d := range []*Dist{a, b, c} {
			assert.True(t, before[i].Equal(d), "%s operand %d modified", proto.Fn, i)
		}
	}
}

func TestMutationResultDoesNotAlias(t *testing.T) {
	r := newRand(3)
	d := MustNew(FuncShuffle, ir.Ints(1, 2, 3))
	d.Sample(r)
	m := d.Mutation(r)
	m.Val.(ir.List)[0] = ir.Int(99)
	m.Args[0].(ir.List)[0] = ir.Int(99)
	assert.NotEqual(t, ir.Int(99), d.Val.(ir.List)[0])
	assert.True(t, ir.Equal(ir.Ints(1, 2, 3), d.Args[0]))
}

func TestRealRepairRescales(t *testing.T) {
	r := newRand(4)
	target := MustNew(FuncUniform, ir.Real(0), ir.Real(1))
	recorded := MustNew(FuncUniform, ir.Real(-5), ir.Real(5)).With(ir.Real(2.5))

	target.Repair(r, recorded)
	assert.InDelta(t, 0.75, float64(target.Val.(ir.Real)), 1e-12)
}

func TestRealRepairAnchorsOnLocation(t *testing.T) {
	r := newRand(5)
	target := MustNew(FuncGauss, ir.Real(100), ir.Real(10))
	recorded := MustNew(FuncGauss, ir.Real(0), ir.Real(1)).With(ir.Real(-0.5))

	target.Repair(r, recorded)
	// a quarter span below the mean in both
	assert.InDelta(t, 95.0, float64(target.Val.(ir.Real)), 1e-9)
}

func TestRealRepairClamps(t *testing.T) {
	r := newRand(6)
	target := MustNew(FuncUniform, ir.Real(0), ir.Real(1))
	recorded := MustNew(FuncGauss, ir.Real(0), ir.Real(1)).With(ir.Real(30))

	target.Repair(r, recorded)
	assert.Equal(t, ir.Real(1), target.Val)
}

func TestIntMutationTerminates(t *testing.T) {
	for seed := range uint64(200) {
		r := newRand(seed)
		d := MustNew(FuncRandInt, ir.Int(0), ir.Int(10)).With(ir.Int(5))
		m := d.Mutation(r)
		v := int64(m.Val.(ir.Int))
		if v != 5 {
			assert.Contains(t, []int64{4, 6}, v)
		}
	}
}

func TestIntMutationDegenerateSupport(t *testing.T) {
	r := newRand(7)
	d := MustNew(FuncRandInt, ir.Int(3), ir.Int(3)).With(ir.Int(3))
	assert.Equal(t, ir.Int(3), d.Mutation(r).Val)
}

func TestIntMutationLeavesBoundary(t *testing.T) {
	r := newRand(8)
	d := MustNew(FuncRandInt, ir.Int(0), ir.Int(10)).With(ir.Int(0))
	moved := 0
	for range 100 {
		if d.Mutation(r).Val == ir.Int(1) {
			moved++
		}
	}
	// ten attempts make a stuck boundary vanishingly rare
	assert.GreaterOrEqual(t, moved, 95)
}

func TestIntMutationIsExactOnWideGrid(t *testing.T) {
	r := newRand(30)
	v := int64(1)<<55 + 3
	d := MustNew(FuncRandInt, ir.Int(0), ir.Int(1<<60)).With(ir.Int(v))
	for range 100 {
		got := int64(d.Mutation(r).Val.(ir.Int))
		assert.Contains(t, []int64{v - 1, v + 1}, got)
	}
}

func TestIntCrossoverIsExactOnWideGrid(t *testing.T) {
	r := newRand(31)
	lo := int64(1)<<55 + 1
	a := MustNew(FuncRandInt, ir.Int(0), ir.Int(1<<60)).With(ir.Int(lo))
	b := a.With(ir.Int(lo + 2))
	for range 100 {
		got := int64(a.Crossover(r, b).Val.(ir.Int))
		assert.GreaterOrEqual(t, got, lo)
		assert.LessOrEqual(t, got, lo+2)
	}
}

func TestIntFullRange(t *testing.T) {
	r := newRand(32)
	full := MustNew(FuncRandInt, ir.Int(math.MinInt64), ir.Int(math.MaxInt64))
	assert.Equal(t, uint64(0), full.sup.gridSize(), "2^64 points wrap to zero")
	assert.Equal(t, 64.0, full.Log2Size())

	coarse := MustNew(FuncRandRange, ir.Int(math.MinInt64), ir.Int(math.MaxInt64), ir.Int(1<<62))
	assert.Equal(t, int64(1)<<62, coarse.sup.hi)
	assert.Equal(t, uint64(4), coarse.sup.gridSize())

	for _, proto := range []*Dist{full, coarse} {
		for range 50 {
			a, b := proto.Clone(), proto.Clone()
			require.NotPanics(t, func() {
				a.Sample(r)
				b.Sample(r)
			})
			inSupport(t, a)
			inSupport(t, a.Mutation(r))
			inSupport(t, a.Crossover(r, b))

			dist := a.Distance(b)
			assert.GreaterOrEqual(t, dist, 0.0)
			assert.LessOrEqual(t, dist, 1.0)
		}
	}
}

func TestIntRepairAcrossWideGrids(t *testing.T) {
	r := newRand(33)
	target := MustNew(FuncRandInt, ir.Int(math.MinInt64), ir.Int(math.MaxInt64))
	recorded := MustNew(FuncRandInt, ir.Int(0), ir.Int(1<<60)).With(ir.Int(1<<55 + 3))
	target.Repair(r, recorded)
	assert.Equal(t, ir.Int(math.MinInt64+1<<55+3), target.Val)

	small := MustNew(FuncRandRange, ir.Int(0), ir.Int(10), ir.Int(2))
	small.Repair(r, recorded)
	assert.Equal(t, ir.Int(8), small.Val, "clamped to the last grid point")
}

func TestIntRepairRescalesByStep(t *testing.T) {
	r := newRand(9)
	target := MustNew(FuncRandRange, ir.Int(100), ir.Int(200), ir.Int(10))
	recorded := MustNew(FuncRandInt, ir.Int(0), ir.Int(9)).With(ir.Int(3))

	target.Repair(r, recorded)
	assert.Equal(t, ir.Int(130), target.Val)
}

func TestIntCrossoverBetweenParents(t *testing.T) {
	r := newRand(10)
	a := MustNew(FuncRandInt, ir.Int(0), ir.Int(100)).With(ir.Int(20))
	b := a.With(ir.Int(30))
	for range 100 {
		v := int64(a.Crossover(r, b).Val.(ir.Int))
		assert.GreaterOrEqual(t, v, int64(20))
		assert.LessOrEqual(t, v, int64(30))
	}
}

func TestRealCrossoverClampsIntoFirstParent(t *testing.T) {
	r := newRand(11)
	a := MustNew(FuncUniform, ir.Real(0), ir.Real(1)).With(ir.Real(0.5))
	b := MustNew(FuncUniform, ir.Real(0), ir.Real(100)).With(ir.Real(80))
	for range 100 {
		c := a.Crossover(r, b)
		assert.Equal(t, FuncUniform, c.Fn)
		assert.True(t, ir.Equal(a.Args, c.Args))
		v := float64(c.Val.(ir.Real))
		assert.GreaterOrEqual(t, v, 0.5)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestCategoricalMutationAlwaysMoves(t *testing.T) {
	r := newRand(12)
	d := MustNew(FuncChoice, ir.Ints(0, 1)).With(ir.Int(0))
	for range 50 {
		assert.Equal(t, ir.Int(1), d.Mutation(r).Val)
	}

	single := MustNew(FuncChoice, ir.Ints(7, 7)).With(ir.Int(7))
	assert.Equal(t, ir.Int(7), single.Mutation(r).Val)
}

func TestCategoricalRepair(t *testing.T) {
	r := newRand(13)

	target := MustNew(FuncChoice, ir.Strs("a", "b", "c"))
	target.Repair(r, MustNew(FuncChoice, ir.Strs("b", "x")).With(ir.Str("b")))
	assert.Equal(t, ir.Str("b"), target.Val, "legal value is reused")

	for range 20 {
		target := MustNew(FuncChoice, ir.Strs("a", "b", "c"))
		target.Repair(r, MustNew(FuncChoice, ir.Strs("a", "b", "x")).With(ir.Str("x")))
		assert.Equal(t, ir.Str("c"), target.Val, "prefers a candidate the parent could not produce")
	}

	target = MustNew(FuncChoice, ir.Strs("a", "b"))
	target.Repair(r, MustNew(FuncChoice, ir.Strs("a", "b", "x")).With(ir.Str("x")))
	inSupport(t, target)
}

func TestRepairAcrossKindsResamples(t *testing.T) {
	r := newRand(14)
	target := MustNew(FuncRandInt, ir.Int(0), ir.Int(3))
	target.Repair(r, MustNew(FuncUniform, ir.Real(0), ir.Real(1)).With(ir.Real(0.5)))
	inSupport(t, target)
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		d    *Dist
		v    ir.Value
		want bool
	}{
		{"real inside", MustNew(FuncUniform, ir.Real(0), ir.Real(1)), ir.Real(0.5), true},
		{"real outside", MustNew(FuncUniform, ir.Real(0), ir.Real(1)), ir.Real(2), false},
		{"real nan", MustNew(FuncGauss, ir.Real(0), ir.Real(1)), ir.Real(math.NaN()), false},
		{"int for real", MustNew(FuncUniform, ir.Real(0), ir.Real(1)), ir.Int(0), false},
		{"int inside", MustNew(FuncRandInt, ir.Int(0), ir.Int(1)), ir.Int(1), true},
		{"int outside", MustNew(FuncRandInt, ir.Int(0), ir.Int(1)), ir.Int(7), false},
		{"int off grid", MustNew(FuncRandRange, ir.Int(0), ir.Int(10), ir.Int(5)), ir.Int(3), false},
		{"int on grid", MustNew(FuncRandRange, ir.Int(0), ir.Int(10), ir.Int(5)), ir.Int(5), true},
		{"real for int", MustNew(FuncRandInt, ir.Int(0), ir.Int(1)), ir.Real(0.5), false},
		{"candidate", MustNew(FuncChoice, ir.Range(3)), ir.Int(2), true},
		{"unknown candidate", MustNew(FuncChoice, ir.Range(3)), ir.Int(99), false},
		{"permutation", MustNew(FuncShuffle, ir.Ints(1, 2, 3)), ir.Ints(3, 1, 2), true},
		{"permutation repeats", MustNew(FuncShuffle, ir.Ints(1, 2, 3)), ir.Ints(3, 3, 2), false},
		{"sample wrong length", MustNew(FuncSample, ir.Ints(1, 2, 3), ir.Int(2)), ir.Ints(1), false},
		{"sample repeats", MustNew(FuncSample, ir.Ints(1, 2, 3), ir.Int(2)), ir.Ints(1, 1), false},
		{"choices repeats", MustNew(FuncChoices, ir.Ints(1, 2), ir.Int(3)), ir.Ints(1, 1, 2), true},
		{"choices unknown", MustNew(FuncChoices, ir.Ints(1, 2), ir.Int(3)), ir.Ints(1, 9, 2), false},
		{"null", MustNew(FuncRandom), ir.Null{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Contains(tt.v))
		})
	}
}

func TestRepairResamplesIllegalRecordedValue(t *testing.T) {
	r := newRand(34)
	for range 20 {
		target := MustNew(FuncChoice, ir.Range(3))
		target.Repair(r, MustNew(FuncChoice, ir.Range(5)).With(ir.Int(99)))
		inSupport(t, target)

		seq := MustNew(FuncSample, ir.Ints(1, 2, 3, 4), ir.Int(2))
		seq.Repair(r, MustNew(FuncSample, ir.Ints(1, 2, 3, 4), ir.Int(2)).With(ir.Ints(1, 1)))
		inSupport(t, seq)
	}
}

func TestSequenceRepairKeepsLegalPositions(t *testing.T) {
	r := newRand(15)

	target := MustNew(FuncSample, ir.Ints(1, 2, 3, 4, 5), ir.Int(3))
	recorded := MustNew(FuncSample, ir.Ints(1, 2, 3, 9), ir.Int(3)).With(ir.Ints(2, 9, 3))
	target.Repair(r, recorded)
	inSupport(t, target)
	v := target.Val.(ir.List)
	assert.Equal(t, ir.Int(2), v[0])
	assert.Equal(t, ir.Int(3), v[2])

	perm := MustNew(FuncShuffle, ir.Strs("a", "b", "c", "d"))
	perm.Repair(r, MustNew(FuncShuffle, ir.Strs("a", "b", "c")).With(ir.Strs("c", "a", "b")))
	inSupport(t, perm)
	assert.True(t, ir.Equal(ir.Strs("c", "a", "b"), perm.Val.(ir.List)[:3]))
}

func TestSequenceCrossoverKeepsPermutations(t *testing.T) {
	r := newRand(16)
	a := MustNew(FuncShuffle, ir.Ints(1, 2, 3, 4, 5, 6)).With(ir.Ints(1, 2, 3, 4, 5, 6))
	b := a.With(ir.Ints(6, 5, 4, 3, 2, 1))
	for range 100 {
		inSupport(t, a.Crossover(r, b))
	}
}

func TestSequenceCrossoverShapeMismatchPicksParent(t *testing.T) {
	r := newRand(17)
	a := MustNew(FuncSample, ir.Ints(1, 2, 3), ir.Int(2)).With(ir.Ints(1, 2))
	b := MustNew(FuncSample, ir.Ints(1, 2, 3), ir.Int(1)).With(ir.Ints(3))
	for range 20 {
		c := a.Crossover(r, b)
		assert.True(t, c.Equal(a) || c.Equal(b))
	}
}

func TestSequenceDistance(t *testing.T) {
	a := MustNew(FuncChoices, ir.Ints(0, 1), ir.Int(4)).With(ir.Ints(0, 0, 1, 1))
	b := a.With(ir.Ints(0, 1, 1, 0))
	assert.InDelta(t, 0.5, a.Distance(b), 1e-12)
}

func TestRealDistance(t *testing.T) {
	a := MustNew(FuncUniform, ir.Real(0), ir.Real(10)).With(ir.Real(2))
	assert.InDelta(t, 0.3, a.Distance(a.With(ir.Real(5))), 1e-12)

	g := MustNew(FuncGauss, ir.Real(0), ir.Real(1)).With(ir.Real(0))
	assert.Equal(t, 1.0, g.Distance(g.With(ir.Real(10))))

	i := MustNew(FuncRandInt, ir.Int(0), ir.Int(4)).With(ir.Int(1))
	assert.Equal(t, 1.0, a.Distance(i), "kind mismatch")
}

func TestCoarseFollowsBaseRules(t *testing.T) {
	r := newRand(18)
	a, err := NewCoarse(FuncUniform, ir.Real(0), ir.Real(1))
	require.NoError(t, err)
	a.Val = ir.Real(0.2)
	b := a.With(ir.Real(0.9))

	for range 20 {
		c := a.Crossover(r, b)
		assert.True(t, c.Equal(a) || c.Equal(b))
	}
	assert.Equal(t, 1.0, a.Distance(a.With(ir.Real(0.21))))

	fine := MustNew(FuncUniform, ir.Real(0), ir.Real(1))
	assert.False(t, fine.SameCall(a))
}

func TestSameCall(t *testing.T) {
	a := MustNew(FuncUniform, ir.Real(0), ir.Real(1))
	assert.True(t, a.SameCall(MustNew(FuncUniform, ir.Real(0), ir.Real(1))))
	assert.False(t, a.SameCall(MustNew(FuncUniform, ir.Real(0), ir.Real(2))))
	assert.False(t, a.SameCall(MustNew(FuncTriangular, ir.Real(0), ir.Real(1))))
	assert.False(t, a.SameCall(nil))
}

func TestLog2Size(t *testing.T) {
	tests := []struct {
		d    *Dist
		want float64
	}{
		{MustNew(FuncRandom), 1},
		{MustNew(FuncRandInt, ir.Int(0), ir.Int(7)), 3},
		{MustNew(FuncChoice, ir.Ints(0, 1, 1)), 1},
		{MustNew(FuncShuffle, ir.Ints(1, 2, 3)), math.Log2(6)},
		{MustNew(FuncSample, ir.Ints(1, 2, 3, 4), ir.Int(2)), math.Log2(12)},
		{MustNew(FuncChoices, ir.Ints(0, 1), ir.Int(5)), 5},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.d.Log2Size(), 1e-9)
			assert.InDelta(t, math.Exp2(tt.want), tt.d.Size(), 1e-6)
		})
	}
}

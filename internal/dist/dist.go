// Package dist implements the value model for a single recorded random
// decision.
//
// A Dist pairs a sampling function and its parameters with the value it
// produced. Each distribution belongs to one of four kinds (real, integer,
// categorical, sequence) and the kind decides how it samples, mutates,
// recombines, measures distance and repairs a value recorded elsewhere.
// Coarse distributions ignore their kind and follow the base rules only.
//
// Operators that return a new Dist (Mutation, Crossover, ConvexCrossover)
// never modify their operands. In ptodebug builds this is asserted on every
// call.
package dist

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Program-Trace-Optimisation/PTO/internal/invariant"
	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// Dist is one sampling call and its outcome.
type Dist struct {
	Fn     Func
	Args   ir.List
	Val    ir.Value
	Coarse bool

	sup support
}

// New validates args for fn and returns an unsampled distribution.
// Args are deep-copied.
func New(fn Func, args ...ir.Value) (*Dist, error) {
	cp := ir.List(args).Clone()
	if cp == nil {
		cp = ir.List{}
	}
	sup, err := deriveSupport(fn, cp)
	if err != nil {
		return nil, err
	}
	return &Dist{Fn: fn, Args: cp, Val: ir.Null{}, sup: sup}, nil
}

// NewCoarse is New for a distribution that follows the base rules only.
func NewCoarse(fn Func, args ...ir.Value) (*Dist, error) {
	d, err := New(fn, args...)
	if err != nil {
		return nil, err
	}
	d.Coarse = true
	return d, nil
}

// MustNew is like New but panics on error.
// Use only in tests or with constant arguments.
func MustNew(fn Func, args ...ir.Value) *Dist {
	d, err := New(fn, args...)
	if err != nil {
		panic(err)
	}
	return d
}

// With returns a copy of d holding v.
func (d *Dist) With(v ir.Value) *Dist {
	c := d.Clone()
	c.Val = ir.Clone(v)
	return c
}

// Kind returns the kind of d's support.
func (d *Dist) Kind() Kind {
	return d.sup.kind
}

// fine reports whether d follows its kind's rules.
func (d *Dist) fine() bool {
	return !d.Coarse
}

// compatible reports whether d and other can exchange values through the
// kind rules.
func (d *Dist) compatible(other *Dist) bool {
	return d.fine() && other.fine() && d.sup.kind == other.sup.kind
}

// Sample overwrites Val with a fresh draw.
func (d *Dist) Sample(r *rand.Rand) {
	switch d.sup.kind {
	case KindReal:
		d.Val = ir.Real(d.sampleReal(r))
	case KindInt:
		d.Val = ir.Int(d.sampleInt(r))
	case KindCategorical:
		d.Val = ir.Clone(d.sup.seq[r.IntN(len(d.sup.seq))])
	case KindSequence:
		d.Val = d.sampleSeq(r)
	}
}

// Repair sets Val from a distribution recorded at the same name under a
// different call. Compatible kinds adapt other's value into d's support,
// anything else resamples. So does a value other could not have produced.
func (d *Dist) Repair(r *rand.Rand, other *Dist) {
	if other == nil || !d.compatible(other) || !other.Contains(other.Val) {
		d.Sample(r)
		return
	}
	switch d.sup.kind {
	case KindReal:
		d.repairReal(r, other)
	case KindInt:
		d.repairInt(r, other)
	case KindCategorical:
		d.repairCat(r, other)
	case KindSequence:
		d.repairSeq(r, other)
	}
}

// Mutation returns a perturbed copy of d.
func (d *Dist) Mutation(r *rand.Rand) *Dist {
	defer invariant.Immutable("Mutation", d)()

	child := d.Clone()
	if !d.fine() {
		child.Sample(r)
		return child
	}
	switch d.sup.kind {
	case KindReal:
		child.Val = ir.Real(d.mutateReal(r))
	case KindInt:
		child.Val = ir.Int(d.mutateInt(r))
	case KindCategorical:
		child.Val = d.mutateCat(r)
	case KindSequence:
		child.Val = d.mutateSeq(r)
	}
	return child
}

// Crossover recombines d with other. The result takes d's function and
// parameters unless the kinds are incompatible, in which case it is a copy
// of one parent chosen uniformly.
func (d *Dist) Crossover(r *rand.Rand, other *Dist) *Dist {
	defer invariant.Immutable("Crossover", d, other)()

	if !d.compatible(other) {
		return pick(r, d, other)
	}
	switch d.sup.kind {
	case KindReal:
		return d.With(ir.Real(d.crossoverReal(r, other)))
	case KindInt:
		return d.With(ir.Int(d.crossoverInt(r, other)))
	case KindSequence:
		if v, ok := d.crossoverSeq(r, other); ok {
			return d.With(v)
		}
	}
	return pick(r, d, other)
}

// ConvexCrossover recombines three parents so the result lies within the
// region they span.
func (d *Dist) ConvexCrossover(r *rand.Rand, o1, o2 *Dist) *Dist {
	defer invariant.Immutable("ConvexCrossover", d, o1, o2)()

	if !d.compatible(o1) || !d.compatible(o2) {
		return pick(r, d, o1, o2)
	}
	switch d.sup.kind {
	case KindReal:
		return d.With(ir.Real(d.convexReal(r, o1, o2)))
	case KindInt:
		return d.With(ir.Int(d.convexInt(r, o1, o2)))
	case KindSequence:
		if v, ok := d.convexSeq(r, o1, o2); ok {
			return d.With(v)
		}
	}
	return pick(r, d, o1, o2)
}

// Distance returns a value in [0, 1]; 0 means indistinguishable.
func (d *Dist) Distance(other *Dist) float64 {
	defer invariant.Immutable("Distance", d, other)()

	if !d.compatible(other) {
		if d.Equal(other) {
			return 0
		}
		return 1
	}
	switch d.sup.kind {
	case KindReal:
		return d.distanceReal(other)
	case KindInt:
		return d.distanceInt(other)
	case KindSequence:
		return d.distanceSeq(other)
	default:
		if d.Equal(other) {
			return 0
		}
		return 1
	}
}

// SameCall reports whether d and other come from the same function with
// equal parameters. A recorded value is reused only for the same call.
func (d *Dist) SameCall(other *Dist) bool {
	return other != nil && d.Fn == other.Fn && d.Coarse == other.Coarse && ir.Equal(d.Args, other.Args)
}

// Contains reports whether v is a value d's function could have produced
// with d's parameters.
func (d *Dist) Contains(v ir.Value) bool {
	s := d.sup
	switch s.kind {
	case KindReal:
		x, ok := v.(ir.Real)
		return ok && float64(x) >= s.min && float64(x) <= s.max
	case KindInt:
		x, ok := v.(ir.Int)
		return ok && s.onGrid(int64(x))
	case KindCategorical:
		return s.seq.Contains(v)
	case KindSequence:
		l, ok := v.(ir.List)
		if !ok || len(l) != s.k {
			return false
		}
		if s.mode == modeChoices {
			for _, e := range l {
				if !s.seq.Contains(e) {
					return false
				}
			}
			return true
		}
		return len(s.unused(l)) == len(s.seq)-s.k
	}
	return false
}

// Log2Size returns log2 of the number of values the support can take.
// Continuous supports count as one bit.
func (d *Dist) Log2Size() float64 {
	s := d.sup
	switch s.kind {
	case KindReal:
		return 1
	case KindInt:
		if g := s.gridSize(); g != 0 {
			return math.Log2(float64(g))
		}
		return 64
	case KindCategorical:
		return math.Log2(float64(len(s.seq.Distinct())))
	case KindSequence:
		n := len(s.seq)
		switch s.mode {
		case modeShuffle:
			return log2Factorial(s.k)
		case modeSample:
			return log2Factorial(n) - log2Factorial(n-s.k)
		case modeChoices:
			distinct := len(s.seq.Distinct())
			if distinct == 0 {
				return 0
			}
			return float64(s.k) * math.Log2(float64(distinct))
		}
	}
	return 0
}

// Size returns the number of values the support can take.
func (d *Dist) Size() float64 {
	return math.Exp2(d.Log2Size())
}

// Clone returns a deep copy of d.
func (d *Dist) Clone() *Dist {
	if d == nil {
		return nil
	}
	c := *d
	c.Args = d.Args.Clone()
	c.Val = ir.Clone(d.Val)
	// support only references Args, rebuild the slice views
	if c.sup.seq != nil {
		if l, ok := ir.AsList(c.Args[0]); ok {
			c.sup.seq = l
		}
	}
	return &c
}

// Equal reports structural equality of function, parameters and value.
func (d *Dist) Equal(other *Dist) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.SameCall(other) && ir.Equal(d.Val, other.Val)
}

// Snapshot implements invariant.Value.
func (d *Dist) Snapshot() invariant.Value {
	return d.Clone()
}

// Same implements invariant.Value.
func (d *Dist) Same(v invariant.Value) bool {
	o, ok := v.(*Dist)
	return ok && d.Equal(o)
}

func (d *Dist) String() string {
	coarse := ""
	if d.Coarse {
		coarse = " coarse"
	}
	return fmt.Sprintf("%s%s(%s) = %s", d.Fn, coarse, ir.String(d.Args), ir.String(d.Val))
}

func pick(r *rand.Rand, ds ...*Dist) *Dist {
	return ds[r.IntN(len(ds))].Clone()
}

func log2Factorial(n int) float64 {
	if n < 2 {
		return 0
	}
	lg, _ := math.Lgamma(float64(n) + 1)
	return lg / math.Ln2
}

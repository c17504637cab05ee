package dist

import (
	"math"
	"math/rand/v2"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// maxIntMutationAttempts bounds the search for a mutation that changes the
// value. At a boundary half of the moves clamp back onto the same point.
const maxIntMutationAttempts = 10

// Grid arithmetic runs on uint64 offsets from lo so that supports spanning
// the whole int64 range neither overflow nor lose precision.

func (s support) width() uint64 {
	return uint64(s.hi) - uint64(s.lo)
}

// gridSize returns the number of grid points. Zero stands for 2^64.
func (s support) gridSize() uint64 {
	return s.width()/uint64(s.step) + 1
}

// at returns the q-th grid point, clamped to hi.
func (s support) at(q uint64) int64 {
	if q > s.width()/uint64(s.step) {
		return s.hi
	}
	return int64(uint64(s.lo) + q*uint64(s.step))
}

func (s support) onGrid(v int64) bool {
	return v >= s.lo && v <= s.hi && (uint64(v)-uint64(s.lo))%uint64(s.step) == 0
}

// snap rounds v to the nearest grid point (half to even) and clamps it.
func (s support) snap(v int64) int64 {
	if v <= s.lo {
		return s.lo
	}
	return s.at(roundDiv(uint64(v)-uint64(s.lo), uint64(s.step)))
}

// roundDiv returns n/d rounded half to even.
func roundDiv(n, d uint64) uint64 {
	q, rem := n/d, n%d
	if rem > d-rem || (rem == d-rem && q%2 == 1) {
		q++
	}
	return q
}

func (d *Dist) sampleInt(r *rand.Rand) int64 {
	g := d.sup.gridSize()
	if g == 0 {
		return int64(r.Uint64())
	}
	return d.sup.at(r.Uint64N(g))
}

// stepFrom moves v one step up or down, stopping at the bounds.
func (s support) stepFrom(v int64, up bool) int64 {
	step := uint64(s.step)
	if up {
		if uint64(s.hi)-uint64(v) < step {
			return s.hi
		}
		return int64(uint64(v) + step)
	}
	if uint64(v)-uint64(s.lo) < step {
		return s.lo
	}
	return int64(uint64(v) - step)
}

func (d *Dist) mutateInt(r *rand.Rand) int64 {
	v, ok := ir.AsInt(d.Val)
	if !ok || !d.sup.onGrid(v) {
		return d.sampleInt(r)
	}
	next := v
	for range maxIntMutationAttempts {
		next = d.sup.stepFrom(v, r.IntN(2) == 0)
		if next != v {
			break
		}
	}
	return next
}

func (d *Dist) crossoverInt(r *rand.Rand, other *Dist) int64 {
	a, okA := ir.AsInt(d.Val)
	b, okB := ir.AsInt(other.Val)
	if !okA || !okB {
		return d.sampleInt(r)
	}
	return d.sup.snap(intBetween(r, min(a, b), max(a, b)))
}

func (d *Dist) convexInt(r *rand.Rand, o1, o2 *Dist) int64 {
	a, okA := ir.AsInt(d.Val)
	b, okB := ir.AsInt(o1.Val)
	c, okC := ir.AsInt(o2.Val)
	if !okA || !okB || !okC {
		return d.sampleInt(r)
	}
	return d.sup.snap(intBetween(r, min(a, b, c), max(a, b, c)))
}

func (d *Dist) distanceInt(other *Dist) float64 {
	a, okA := ir.AsInt(d.Val)
	b, okB := ir.AsInt(other.Val)
	if !okA || !okB {
		return boolDistance(ir.Equal(d.Val, other.Val))
	}
	if a == b {
		return 0
	}
	width := d.sup.width()
	if width == 0 {
		return 1
	}
	gap := uint64(max(a, b)) - uint64(min(a, b))
	return math.Min(1, float64(gap)/float64(width))
}

// repairInt aligns other's value on its lower bound and rescales it from
// other's step onto d's step: the value sitting n steps above other's lower
// bound moves to the grid point n steps above d's.
func (d *Dist) repairInt(r *rand.Rand, other *Dist) {
	v, ok := ir.AsInt(other.Val)
	if !ok {
		d.Sample(r)
		return
	}
	if v <= other.sup.lo {
		d.Val = ir.Int(d.sup.lo)
		return
	}
	n := roundDiv(uint64(v)-uint64(other.sup.lo), uint64(other.sup.step))
	d.Val = ir.Int(d.sup.at(n))
}

// intBetween draws uniformly from [lo, hi].
func intBetween(r *rand.Rand, lo, hi int64) int64 {
	if lo >= hi {
		return lo
	}
	w := uint64(hi) - uint64(lo)
	if w == math.MaxUint64 {
		return int64(r.Uint64())
	}
	return int64(uint64(lo) + r.Uint64N(w+1))
}

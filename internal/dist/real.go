package dist

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// mutationScale is the standard deviation of real mutation as a fraction
// of the support's span.
const mutationScale = 0.1

func (d *Dist) sampleReal(r *rand.Rand) float64 {
	a, _ := realArgs(d.Fn, d.Args)
	switch d.Fn {
	case FuncUniform:
		return a[0] + (a[1]-a[0])*r.Float64()
	case FuncTriangular:
		if a[0] == a[1] {
			return a[0]
		}
		mode := (a[0] + a[1]) / 2
		if len(a) == 3 {
			mode = a[2]
		}
		return distuv.NewTriangle(a[0], a[1], mode, r).Rand()
	case FuncBeta:
		return distuv.Beta{Alpha: a[0], Beta: a[1], Src: r}.Rand()
	case FuncExpo:
		return distuv.Exponential{Rate: a[0], Src: r}.Rand()
	case FuncGamma:
		// beta is a scale here, gonum takes a rate
		return distuv.Gamma{Alpha: a[0], Beta: 1 / a[1], Src: r}.Rand()
	case FuncGauss, FuncNormal:
		return distuv.Normal{Mu: a[0], Sigma: a[1], Src: r}.Rand()
	case FuncLogNormal:
		return distuv.LogNormal{Mu: a[0], Sigma: a[1], Src: r}.Rand()
	case FuncPareto:
		return distuv.Pareto{Xm: 1, Alpha: a[0], Src: r}.Rand()
	case FuncWeibull:
		return distuv.Weibull{K: a[1], Lambda: a[0], Src: r}.Rand()
	default:
		return r.Float64()
	}
}

func (s support) clampReal(v float64) float64 {
	return math.Min(math.Max(v, s.min), s.max)
}

func realVal(d *Dist) (float64, bool) {
	v, ok := ir.AsReal(d.Val)
	return v, ok && !math.IsNaN(v)
}

func (d *Dist) mutateReal(r *rand.Rand) float64 {
	v, ok := realVal(d)
	if !ok {
		return d.sampleReal(r)
	}
	return d.sup.clampReal(v + r.NormFloat64()*mutationScale*d.sup.span)
}

func (d *Dist) crossoverReal(r *rand.Rand, other *Dist) float64 {
	a, okA := realVal(d)
	b, okB := realVal(other)
	if !okA || !okB {
		return d.sampleReal(r)
	}
	return d.sup.clampReal(uniformBetween(r, math.Min(a, b), math.Max(a, b)))
}

func (d *Dist) convexReal(r *rand.Rand, o1, o2 *Dist) float64 {
	a, okA := realVal(d)
	b, okB := realVal(o1)
	c, okC := realVal(o2)
	if !okA || !okB || !okC {
		return d.sampleReal(r)
	}
	lo := math.Min(a, math.Min(b, c))
	hi := math.Max(a, math.Max(b, c))
	return d.sup.clampReal(uniformBetween(r, lo, hi))
}

func (d *Dist) distanceReal(other *Dist) float64 {
	a, okA := realVal(d)
	b, okB := realVal(other)
	if !okA || !okB {
		return boolDistance(ir.Equal(d.Val, other.Val))
	}
	diff := math.Abs(a - b)
	if diff == 0 {
		return 0
	}
	if d.sup.span == 0 {
		return 1
	}
	return math.Min(1, diff/d.sup.span)
}

// repairReal aligns other's value on its anchor and rescales it from
// other's span onto d's span.
func (d *Dist) repairReal(r *rand.Rand, other *Dist) {
	v, ok := realVal(other)
	if !ok {
		d.Sample(r)
		return
	}
	var next float64
	if other.sup.span == 0 {
		next = v
	} else {
		next = (v-other.sup.anchor)/other.sup.span*d.sup.span + d.sup.anchor
	}
	d.Val = ir.Real(d.sup.clampReal(next))
}

func uniformBetween(r *rand.Rand, lo, hi float64) float64 {
	if lo == hi || math.IsInf(hi-lo, 0) {
		return lo
	}
	return lo + (hi-lo)*r.Float64()
}

func boolDistance(equal bool) float64 {
	if equal {
		return 0
	}
	return 1
}

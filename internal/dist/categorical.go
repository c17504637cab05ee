package dist

import (
	"math/rand/v2"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// mutateCat draws a candidate different from the current value. With fewer
// than two distinct candidates there is nothing to move to.
func (d *Dist) mutateCat(r *rand.Rand) ir.Value {
	seq := d.sup.seq
	others := make([]int, 0, len(seq))
	for i, c := range seq {
		if !ir.Equal(c, d.Val) {
			others = append(others, i)
		}
	}
	if len(seq.Distinct()) < 2 || len(others) == 0 {
		return ir.Clone(d.Val)
	}
	return ir.Clone(seq[others[r.IntN(len(others))]])
}

// repairCat keeps other's value when it is a candidate here. Otherwise it
// prefers a candidate other could not have produced.
func (d *Dist) repairCat(r *rand.Rand, other *Dist) {
	seq := d.sup.seq
	if seq.Contains(other.Val) {
		d.Val = ir.Clone(other.Val)
		return
	}
	fresh := make(ir.List, 0, len(seq))
	for _, c := range seq {
		if !other.sup.seq.Contains(c) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		d.Sample(r)
		return
	}
	d.Val = ir.Clone(fresh[r.IntN(len(fresh))])
}

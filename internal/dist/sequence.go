package dist

import (
	"math/rand/v2"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// Sequence kinds select k elements from a population. Legal values depend
// on the mode:
//
//	shuffle  a permutation of the whole population
//	sample   k elements, each population slot used at most once
//	choices  k elements, repeats allowed
//
// Every move below keeps the value legal for its mode.

func (d *Dist) sampleSeq(r *rand.Rand) ir.List {
	s := d.sup
	out := make(ir.List, s.k)
	switch s.mode {
	case modeShuffle, modeSample:
		perm := r.Perm(len(s.seq))
		for i := range out {
			out[i] = ir.Clone(s.seq[perm[i]])
		}
	case modeChoices:
		for i := range out {
			out[i] = ir.Clone(s.seq[r.IntN(len(s.seq))])
		}
	}
	return out
}

// unused returns the multiset difference population minus val.
func (s support) unused(val ir.List) ir.List {
	taken := make([]bool, len(val))
	pool := make(ir.List, 0, len(s.seq))
	for _, p := range s.seq {
		found := false
		for i, v := range val {
			if !taken[i] && ir.Equal(p, v) {
				taken[i] = true
				found = true
				break
			}
		}
		if !found {
			pool = append(pool, p)
		}
	}
	return pool
}

func seqVal(d *Dist) (ir.List, bool) {
	l, ok := ir.AsList(d.Val)
	return l, ok && len(l) == d.sup.k
}

func (d *Dist) mutateSeq(r *rand.Rand) ir.Value {
	val, ok := seqVal(d)
	if !ok {
		return d.sampleSeq(r)
	}
	child := val.Clone()
	k := len(child)
	switch d.sup.mode {
	case modeShuffle:
		if k >= 2 {
			swapRandom(r, child)
		}
	case modeSample:
		pool := d.sup.unused(val)
		switch {
		case k >= 2 && (len(pool) == 0 || r.IntN(2) == 0):
			swapRandom(r, child)
		case k >= 1 && len(pool) > 0:
			child[r.IntN(k)] = ir.Clone(pool[r.IntN(len(pool))])
		}
	case modeChoices:
		if k == 0 {
			break
		}
		i := r.IntN(k)
		alts := make(ir.List, 0, len(d.sup.seq))
		for _, p := range d.sup.seq {
			if !ir.Equal(p, child[i]) {
				alts = append(alts, p)
			}
		}
		if len(alts) > 0 {
			child[i] = ir.Clone(alts[r.IntN(len(alts))])
		}
	}
	return child
}

// sameShape reports whether other selects from the same population in the
// same mode, so positions line up one to one.
func (d *Dist) sameShape(other *Dist) bool {
	return d.sup.mode == other.sup.mode && d.sup.k == other.sup.k && ir.Equal(d.sup.seq, other.sup.seq)
}

// crossoverSeq walks the positions of d's value and takes the donor's
// element at each position with probability 1/2.
func (d *Dist) crossoverSeq(r *rand.Rand, other *Dist) (ir.Value, bool) {
	return d.blendSeq(r, other)
}

func (d *Dist) convexSeq(r *rand.Rand, o1, o2 *Dist) (ir.Value, bool) {
	return d.blendSeq(r, o1, o2)
}

// blendSeq takes each position from d or one of the donors, chosen
// uniformly among all parents, through the legal move for the mode.
func (d *Dist) blendSeq(r *rand.Rand, donors ...*Dist) (ir.Value, bool) {
	val, ok := seqVal(d)
	if !ok {
		return nil, false
	}
	vals := make([]ir.List, len(donors))
	for i, o := range donors {
		if !d.sameShape(o) {
			return nil, false
		}
		if vals[i], ok = seqVal(o); !ok {
			return nil, false
		}
	}

	child := val.Clone()
	for i := range child {
		p := r.IntN(len(donors) + 1)
		if p == 0 {
			continue
		}
		d.place(child, i, vals[p-1][i])
	}
	return child, true
}

// place puts x at position i of child using the move legal for the mode.
func (d *Dist) place(child ir.List, i int, x ir.Value) {
	if ir.Equal(child[i], x) {
		return
	}
	switch d.sup.mode {
	case modeShuffle:
		if j := child.Index(x); j >= 0 {
			child[i], child[j] = child[j], child[i]
		}
	case modeSample:
		if j := child.Index(x); j >= 0 {
			child[i], child[j] = child[j], child[i]
		} else if d.sup.unused(child).Contains(x) {
			child[i] = ir.Clone(x)
		}
	case modeChoices:
		child[i] = ir.Clone(x)
	}
}

// distanceSeq is the fraction of positions holding different elements.
func (d *Dist) distanceSeq(other *Dist) float64 {
	a, okA := ir.AsList(d.Val)
	b, okB := ir.AsList(other.Val)
	if !okA || !okB || len(a) != len(b) {
		return boolDistance(ir.Equal(d.Val, other.Val))
	}
	if len(a) == 0 {
		return 0
	}
	diff := 0
	for i := range a {
		if !ir.Equal(a[i], b[i]) {
			diff++
		}
	}
	return float64(diff) / float64(len(a))
}

// repairSeq keeps every element of other's value that is still legal at
// its position and fills the rest from what remains.
func (d *Dist) repairSeq(r *rand.Rand, other *Dist) {
	prev, _ := ir.AsList(other.Val)
	s := d.sup
	out := make(ir.List, s.k)
	holes := make([]int, 0, s.k)
	pool := s.seq.Clone()

	for i := range out {
		if i < len(prev) {
			switch s.mode {
			case modeShuffle, modeSample:
				if j := pool.Index(prev[i]); j >= 0 {
					out[i] = pool[j]
					pool = append(pool[:j], pool[j+1:]...)
					continue
				}
			case modeChoices:
				if s.seq.Contains(prev[i]) {
					out[i] = ir.Clone(prev[i])
					continue
				}
			}
		}
		holes = append(holes, i)
	}

	for _, i := range holes {
		switch s.mode {
		case modeShuffle, modeSample:
			j := r.IntN(len(pool))
			out[i] = pool[j]
			pool = append(pool[:j], pool[j+1:]...)
		case modeChoices:
			out[i] = ir.Clone(s.seq[r.IntN(len(s.seq))])
		}
	}
	d.Val = out
}

func swapRandom(r *rand.Rand, l ir.List) {
	i := r.IntN(len(l))
	j := r.IntN(len(l) - 1)
	if j >= i {
		j++
	}
	l[i], l[j] = l[j], l[i]
}

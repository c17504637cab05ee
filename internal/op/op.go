// Package op implements search operators on traces.
//
// Every operator builds a new genotype from its parents' traces and passes
// it through FixInd, which replays the generator under that genotype. The
// replay repairs whatever the recombination broke, so every Solution an
// operator returns is one the generator can actually produce.
//
// Parents are never modified. Child traces share unchanged distributions
// with their parents, which is safe because recorded distributions are
// immutable.
package op

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/hashicorp/go-set/v3"

	"github.com/Program-Trace-Optimisation/PTO/internal/invariant"
	"github.com/Program-Trace-Optimisation/PTO/internal/trace"
)

// Solution pairs a phenotype with the trace that produces it.
type Solution[P any] struct {
	Pheno P
	Geno  *trace.Trace
}

// ErrParentCount is returned by ConvexCrossover for anything other than
// two or three parents.
var ErrParentCount = errors.New("convex crossover takes 2 or 3 parents")

// Op binds the operators to one generator and one tracer.
type Op[P any] struct {
	gen       trace.Generator[P]
	tracer    *trace.Tracer
	rng       *rand.Rand
	mutation  MutationKind
	crossover CrossoverKind

	mutate func(Solution[P]) (Solution[P], error)
	cross  func(a, b Solution[P]) (Solution[P], error)
}

type options struct {
	mutation  MutationKind
	crossover CrossoverKind
}

// Option configures an Op.
type Option func(*options)

// WithMutation selects the operator behind MutateInd. Default: point.
func WithMutation(k MutationKind) Option {
	return func(o *options) {
		o.mutation = k
	}
}

// WithCrossover selects the operator behind CrossoverInd. Default: uniform.
func WithCrossover(k CrossoverKind) Option {
	return func(o *options) {
		o.crossover = k
	}
}

// New creates the operators for gen. All randomness comes from the
// tracer's source.
func New[P any](gen trace.Generator[P], tracer *trace.Tracer, opts ...Option) *Op[P] {
	cfg := options{mutation: MutationPoint, crossover: CrossoverUniform}
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Op[P]{
		gen:       gen,
		tracer:    tracer,
		rng:       tracer.Rand(),
		mutation:  cfg.mutation,
		crossover: cfg.crossover,
	}
	switch cfg.mutation {
	case MutationPositionWise:
		o.mutate = o.MutatePositionWise
	case MutationRandom:
		o.mutate = o.MutateRandom
	default:
		o.mutate = o.MutatePoint
	}
	switch cfg.crossover {
	case CrossoverOnePoint:
		o.cross = o.CrossoverOnePoint
	default:
		o.cross = o.CrossoverUniform
	}
	return o
}

func (o *Op[P]) String() string {
	return fmt.Sprintf("Op(mutation=%s, crossover=%s)", o.mutation, o.crossover)
}

// CreateInd replays the generator with an empty trace.
func (o *Op[P]) CreateInd() (Solution[P], error) {
	return o.FixInd(trace.NewTrace())
}

// FixInd replays the generator under geno. geno is not modified.
func (o *Op[P]) FixInd(geno *trace.Trace) (Solution[P], error) {
	pheno, out, err := trace.Play(o.tracer, o.gen, geno)
	if err != nil {
		return Solution[P]{}, err
	}
	return Solution[P]{Pheno: pheno, Geno: out}, nil
}

// MutateInd applies the configured mutation.
func (o *Op[P]) MutateInd(s Solution[P]) (Solution[P], error) {
	return o.mutate(s)
}

// CrossoverInd applies the configured crossover.
func (o *Op[P]) CrossoverInd(a, b Solution[P]) (Solution[P], error) {
	return o.cross(a, b)
}

// MutatePoint mutates one entry chosen uniformly.
func (o *Op[P]) MutatePoint(s Solution[P]) (Solution[P], error) {
	defer invariant.Immutable("MutatePoint", s.Geno)()

	names := s.Geno.Names()
	if len(names) == 0 {
		return o.FixInd(s.Geno)
	}
	child := s.Geno.Copy()
	name := names[o.rng.IntN(len(names))]
	d, _ := child.Get(name)
	child.Set(name, d.Mutation(o.rng))
	return o.FixInd(child)
}

// MutatePositionWise mutates each entry independently with probability
// 1/len.
func (o *Op[P]) MutatePositionWise(s Solution[P]) (Solution[P], error) {
	defer invariant.Immutable("MutatePositionWise", s.Geno)()

	n := s.Geno.Len()
	if n == 0 {
		return o.FixInd(s.Geno)
	}
	p := 1 / float64(n)
	child := trace.NewTrace()
	for name, d := range s.Geno.All() {
		if o.rng.Float64() <= p {
			d = d.Mutation(o.rng)
		}
		child.Set(name, d)
	}
	return o.FixInd(child)
}

// MutateRandom ignores s and creates a fresh individual.
func (o *Op[P]) MutateRandom(s Solution[P]) (Solution[P], error) {
	defer invariant.Immutable("MutateRandom", s.Geno)()

	return o.CreateInd()
}

// CrossoverOnePoint cuts the aligned names at a uniform point in
// [0, len]; entries before the cut come from a, the rest from b.
func (o *Op[P]) CrossoverOnePoint(a, b Solution[P]) (Solution[P], error) {
	defer invariant.Immutable("CrossoverOnePoint", a.Geno, b.Geno)()

	names := align("CrossoverOnePoint", a.Geno, b.Geno)
	cut := o.rng.IntN(len(names) + 1)
	child := a.Geno.Union(b.Geno)
	for i, name := range names {
		src := a.Geno
		if i >= cut {
			src = b.Geno
		}
		d, _ := src.Get(name)
		child.Set(name, d)
	}
	return o.FixInd(child)
}

// CrossoverUniform recombines every aligned entry with Dist.Crossover.
func (o *Op[P]) CrossoverUniform(a, b Solution[P]) (Solution[P], error) {
	defer invariant.Immutable("CrossoverUniform", a.Geno, b.Geno)()

	child := a.Geno.Union(b.Geno)
	for _, name := range align("CrossoverUniform", a.Geno, b.Geno) {
		da, _ := a.Geno.Get(name)
		db, _ := b.Geno.Get(name)
		child.Set(name, da.Crossover(o.rng, db))
	}
	return o.FixInd(child)
}

// ConvexCrossover recombines two or three parents so the child lies in the
// region they span. Two parents use Dist.Crossover per entry, three use
// Dist.ConvexCrossover.
func (o *Op[P]) ConvexCrossover(parents ...Solution[P]) (Solution[P], error) {
	if len(parents) != 2 && len(parents) != 3 {
		return Solution[P]{}, fmt.Errorf("%w, got %d", ErrParentCount, len(parents))
	}
	genos := make([]*trace.Trace, len(parents))
	vals := make([]invariant.Value, len(parents))
	for i, p := range parents {
		genos[i] = p.Geno
		vals[i] = p.Geno
	}
	defer invariant.Immutable("ConvexCrossover", vals...)()

	child := genos[0].Union(genos[1:]...)
	for _, name := range align("ConvexCrossover", genos...) {
		d0, _ := genos[0].Get(name)
		d1, _ := genos[1].Get(name)
		if len(genos) == 2 {
			child.Set(name, d0.Crossover(o.rng, d1))
			continue
		}
		d2, _ := genos[2].Get(name)
		child.Set(name, d0.ConvexCrossover(o.rng, d1, d2))
	}
	return o.FixInd(child)
}

// DistanceInd is the sum of entry distances over shared names plus one
// for every name only one of the genotypes has.
func (o *Op[P]) DistanceInd(a, b Solution[P]) float64 {
	return Distance(a.Geno, b.Geno)
}

// SpaceDimensionInd estimates the local search-space dimensionality of s
// in bits.
func (o *Op[P]) SpaceDimensionInd(s Solution[P]) float64 {
	return SpaceDimension(s.Geno)
}

// Distance is DistanceInd on bare traces.
func Distance(a, b *trace.Trace) float64 {
	defer invariant.Immutable("Distance", a, b)()

	na := set.From(a.Names())
	nb := set.From(b.Names())

	total := 0.0
	for name, da := range a.All() {
		if db, ok := b.Get(name); ok {
			total += da.Distance(db)
		}
	}
	total += float64(na.Difference(nb).Size() + nb.Difference(na).Size())
	return total
}

// SpaceDimension is SpaceDimensionInd on a bare trace.
func SpaceDimension(t *trace.Trace) float64 {
	total := 0.0
	for _, d := range t.All() {
		total += d.Log2Size()
	}
	return total
}

// align returns the names common to all traces in the order of the first.
// In ptodebug builds it asserts every other trace lists them in the same
// relative order.
func align(op string, traces ...*trace.Trace) []string {
	others := make([]*set.Set[string], len(traces)-1)
	for i, t := range traces[1:] {
		others[i] = set.From(t.Names())
	}
	common := func(t *trace.Trace) []string {
		var out []string
		for _, name := range t.Names() {
			inAll := true
			for _, s := range others {
				if !s.Contains(name) {
					inAll = false
					break
				}
			}
			if inAll && traces[0].Has(name) {
				out = append(out, name)
			}
		}
		return out
	}

	names := common(traces[0])
	if invariant.Enabled {
		for i, t := range traces[1:] {
			got := common(t)
			invariant.Check(equalOrder(names, got), op,
				"common names of parent %d appear in a different order: %v vs %v", i+2, got, names)
		}
	}
	return names
}

func equalOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

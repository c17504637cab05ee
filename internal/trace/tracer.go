// Package trace records and replays the random decisions of a generator.
//
// A generator is an ordinary function that builds a solution from the
// calls it makes on a *Random. Under Play every such call is named,
// recorded as a dist.Dist and collected into an output Trace. When Play is
// given an input trace, each call looks up its name there first:
//
//   - absent: sample a fresh value
//   - same function and parameters: reuse the recorded value
//   - anything else: repair, adapting the recorded value into the new
//     support or resampling when the kinds differ
//
// Entries of the input trace that no call reached are dropped. Replaying a
// trace therefore always yields a valid solution together with the trace
// that exactly describes it.
//
// Tracers are not safe for concurrent use. Run independent replicates on
// separate tracers.
package trace

import (
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/Program-Trace-Optimisation/PTO/internal/dist"
	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
	"github.com/Program-Trace-Optimisation/PTO/internal/naming"
)

// Generator builds a phenotype from the random decisions it draws from r.
type Generator[P any] func(r *Random) P

// Tracer is the record/replay engine. It is idle until Play runs a
// generator and returns to idle when the generator returns.
type Tracer struct {
	rng    *rand.Rand
	namer  naming.Namer
	coarse bool
	logger *slog.Logger

	active bool
	in     *Trace
	out    *Trace
	random *Random
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithNamer sets the name supplier. Default: naming.NewSequential().
func WithNamer(n naming.Namer) Option {
	return func(t *Tracer) {
		t.namer = n
	}
}

// WithCoarse records every call as a coarse distribution, which ignores
// its kind and follows the base operator rules only.
func WithCoarse() Option {
	return func(t *Tracer) {
		t.coarse = true
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracer) {
		t.logger = l
	}
}

// New creates an idle tracer drawing all randomness from rng.
func New(rng *rand.Rand, opts ...Option) *Tracer {
	t := &Tracer{
		rng:    rng,
		namer:  naming.NewSequential(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.random = &Random{t: t}
	return t
}

// Rand returns the tracer's random source. Operators built on the tracer
// draw from it too, so a run is reproducible from a single seed.
func (t *Tracer) Rand() *rand.Rand {
	return t.rng
}

// Random returns the facade generators sample through.
func (t *Tracer) Random() *Random {
	return t.random
}

// Active reports whether a generator is running under Play.
func (t *Tracer) Active() bool {
	return t.active
}

// Coarse reports whether the tracer records coarse distributions.
func (t *Tracer) Coarse() bool {
	return t.coarse
}

// Sample resolves one sampling call. While idle it simply draws from d.
// While active it records d under name, taking its value from the input
// trace where possible, and returns a copy of that value.
//
// d must be freshly created; Sample takes ownership of it.
func (t *Tracer) Sample(name string, d *dist.Dist) (ir.Value, error) {
	if t.coarse {
		d.Coarse = true
	}
	if !t.active {
		d.Sample(t.rng)
		return ir.Clone(d.Val), nil
	}
	if t.out.Has(name) {
		return nil, newDuplicateNameError(name, d.Fn)
	}

	prev, found := t.in.Get(name)
	switch {
	case !found:
		d.Sample(t.rng)
	case d.SameCall(prev) && prev.Contains(prev.Val):
		d = prev
	default:
		d.Repair(t.rng, prev)
		t.logger.Debug("repaired trace entry",
			"name", name,
			"from", prev.Fn.String(),
			"to", d.Fn.String(),
		)
	}
	t.out.Set(name, d)
	return ir.Clone(d.Val), nil
}

// Play runs gen under input and returns the phenotype together with the
// trace of the calls it made. input is never modified and may be nil.
//
// A fatal trace condition raised inside gen (duplicate name, invalid
// parameters) aborts the run and is returned as an *Error. Other panics
// propagate.
func Play[P any](t *Tracer, gen Generator[P], input *Trace) (pheno P, out *Trace, err error) {
	if t.active {
		return pheno, nil, newReentrantPlayError()
	}
	if input == nil {
		input = NewTrace()
	}

	t.active, t.in, t.out = true, input, NewTrace()
	t.namer.Reset()
	defer func() {
		t.active, t.in, t.out = false, nil, nil
		if r := recover(); r != nil {
			var te *Error
			if e, ok := r.(error); ok && errors.As(e, &te) {
				var zero P
				pheno, out, err = zero, nil, te
				return
			}
			panic(r)
		}
	}()

	pheno = gen(t.random)
	out = t.out

	if pruned := input.Len() - countShared(input, out); pruned > 0 {
		t.logger.Debug("pruned unreached trace entries", "count", pruned, "kept", out.Len())
	}
	return pheno, out, nil
}

func countShared(in, out *Trace) int {
	n := 0
	for name := range out.All() {
		if in.Has(name) {
			n++
		}
	}
	return n
}


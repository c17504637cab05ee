package trace

import (
	"github.com/Program-Trace-Optimisation/PTO/internal/dist"
	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// Random is the sampling facade handed to generators. Each method is one
// traced call. Outside Play the methods sample directly.
//
// Invalid parameters (for example Uniform(1, 0)) and duplicate names abort
// the enclosing Play with an *Error. Outside Play they panic.
type Random struct {
	t    *Tracer
	name string
}

// Named returns a facade whose next call is recorded under name instead of
// a name from the tracer's namer. Using it for more than one call in the
// same replay is a duplicate-name error.
func (r *Random) Named(name string) *Random {
	return &Random{t: r.t, name: name}
}

func (r *Random) call(fn dist.Func, args ...ir.Value) ir.Value {
	name := ""
	if r.t.active {
		name = r.name
		if name == "" {
			name = r.t.namer.Next()
		}
	}
	d, err := dist.New(fn, args...)
	if err != nil {
		panic(newInvalidDistributionError(name, fn, err))
	}
	v, err := r.t.Sample(name, d)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *Random) sampleReal(fn dist.Func, args ...float64) float64 {
	v := r.call(fn, ir.Reals(args...)...)
	f, _ := ir.AsReal(v)
	return f
}

func (r *Random) sampleInt(fn dist.Func, args ...int) int {
	ns := make([]int64, len(args))
	for i, a := range args {
		ns[i] = int64(a)
	}
	n, _ := ir.AsInt(r.call(fn, ir.Ints(ns...)...))
	return int(n)
}

func (r *Random) sampleList(fn dist.Func, args ...ir.Value) ir.List {
	l, _ := ir.AsList(r.call(fn, args...))
	return l
}

// Random returns a float in [0, 1).
func (r *Random) Random() float64 { return r.sampleReal(dist.FuncRandom) }

// Uniform returns a float in [a, b].
func (r *Random) Uniform(a, b float64) float64 { return r.sampleReal(dist.FuncUniform, a, b) }

// Triangular returns a float in [low, high] with the given mode.
func (r *Random) Triangular(low, high, mode float64) float64 {
	return r.sampleReal(dist.FuncTriangular, low, high, mode)
}

// Beta returns a float in [0, 1] from Beta(alpha, beta).
func (r *Random) Beta(alpha, beta float64) float64 { return r.sampleReal(dist.FuncBeta, alpha, beta) }

// Expo returns a float from the exponential distribution with rate lambda.
func (r *Random) Expo(lambda float64) float64 { return r.sampleReal(dist.FuncExpo, lambda) }

// Gamma returns a float from Gamma with shape alpha and scale beta.
func (r *Random) Gamma(alpha, beta float64) float64 { return r.sampleReal(dist.FuncGamma, alpha, beta) }

// Gauss returns a float from N(mu, sigma).
func (r *Random) Gauss(mu, sigma float64) float64 { return r.sampleReal(dist.FuncGauss, mu, sigma) }

// Normal returns a float from N(mu, sigma). It is recorded separately from
// Gauss.
func (r *Random) Normal(mu, sigma float64) float64 { return r.sampleReal(dist.FuncNormal, mu, sigma) }

// LogNormal returns exp(X) for X drawn from N(mu, sigma).
func (r *Random) LogNormal(mu, sigma float64) float64 {
	return r.sampleReal(dist.FuncLogNormal, mu, sigma)
}

// Pareto returns a float >= 1 from the Pareto distribution with shape alpha.
func (r *Random) Pareto(alpha float64) float64 { return r.sampleReal(dist.FuncPareto, alpha) }

// Weibull returns a float from the Weibull distribution with scale alpha
// and shape beta.
func (r *Random) Weibull(alpha, beta float64) float64 {
	return r.sampleReal(dist.FuncWeibull, alpha, beta)
}

// RandInt returns an int in [a, b].
func (r *Random) RandInt(a, b int) int { return r.sampleInt(dist.FuncRandInt, a, b) }

// RandRange returns an int from start, start+step, ... below stop.
func (r *Random) RandRange(start, stop, step int) int {
	return r.sampleInt(dist.FuncRandRange, start, stop, step)
}

// Choice returns one element of seq.
func (r *Random) Choice(seq ir.List) ir.Value { return r.call(dist.FuncChoice, seq) }

// Shuffle returns a permutation of seq. seq is not modified.
func (r *Random) Shuffle(seq ir.List) ir.List { return r.sampleList(dist.FuncShuffle, seq) }

// Sample returns k elements of population without replacement.
func (r *Random) Sample(population ir.List, k int) ir.List {
	return r.sampleList(dist.FuncSample, population, ir.Int(k))
}

// Choices returns k elements of population with replacement.
func (r *Random) Choices(population ir.List, k int) ir.List {
	return r.sampleList(dist.FuncChoices, population, ir.Int(k))
}

// ChoiceOf returns one element of items. The trace records the index.
func ChoiceOf[T any](r *Random, items []T) T {
	i, _ := ir.AsInt(r.Choice(ir.Range(len(items))))
	return items[i]
}

// ShuffleOf returns a permutation of items. The trace records indices.
func ShuffleOf[T any](r *Random, items []T) []T {
	return byIndex(items, r.Shuffle(ir.Range(len(items))))
}

// SampleOf returns k elements of items without replacement.
func SampleOf[T any](r *Random, items []T, k int) []T {
	return byIndex(items, r.Sample(ir.Range(len(items)), k))
}

// ChoicesOf returns k elements of items with replacement.
func ChoicesOf[T any](r *Random, items []T, k int) []T {
	return byIndex(items, r.Choices(ir.Range(len(items)), k))
}

func byIndex[T any](items []T, idx ir.List) []T {
	out := make([]T, len(idx))
	for i, v := range idx {
		n, _ := ir.AsInt(v)
		out[i] = items[n]
	}
	return out
}

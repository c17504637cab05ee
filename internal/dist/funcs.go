package dist

import (
	"fmt"
	"math"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// Func identifies the sampling function a distribution was created from.
type Func uint8

const (
	FuncRandom Func = iota + 1
	FuncUniform
	FuncTriangular
	FuncBeta
	FuncExpo
	FuncGamma
	FuncGauss
	FuncNormal
	FuncLogNormal
	FuncPareto
	FuncWeibull
	FuncRandInt
	FuncRandRange
	FuncChoice
	FuncShuffle
	FuncSample
	FuncChoices
)

var funcNames = map[Func]string{
	FuncRandom:     "random",
	FuncUniform:    "uniform",
	FuncTriangular: "triangular",
	FuncBeta:       "beta",
	FuncExpo:       "expo",
	FuncGamma:      "gamma",
	FuncGauss:      "gauss",
	FuncNormal:     "normal",
	FuncLogNormal:  "lognormal",
	FuncPareto:     "pareto",
	FuncWeibull:    "weibull",
	FuncRandInt:    "randint",
	FuncRandRange:  "randrange",
	FuncChoice:     "choice",
	FuncShuffle:    "shuffle",
	FuncSample:     "sample",
	FuncChoices:    "choices",
}

func (f Func) String() string {
	if s, ok := funcNames[f]; ok {
		return s
	}
	return fmt.Sprintf("func(%d)", uint8(f))
}

// ParseFunc resolves a function name as produced by Func.String.
func ParseFunc(s string) (Func, error) {
	for f, name := range funcNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown function %q", ErrInvalidArgs, s)
}

// Kind is the family of per-kind rules a distribution follows.
type Kind uint8

const (
	KindReal Kind = iota + 1
	KindInt
	KindCategorical
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindReal:
		return "real"
	case KindInt:
		return "int"
	case KindCategorical:
		return "categorical"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Kind returns the kind of the distributions f creates.
func (f Func) Kind() Kind {
	switch f {
	case FuncRandInt, FuncRandRange:
		return KindInt
	case FuncChoice:
		return KindCategorical
	case FuncShuffle, FuncSample, FuncChoices:
		return KindSequence
	case 0:
		return 0
	default:
		if f <= FuncWeibull {
			return KindReal
		}
		return 0
	}
}

type seqMode uint8

const (
	modeShuffle seqMode = iota + 1
	modeSample
	modeChoices
)

// support is the local search space derived from Func and Args.
type support struct {
	kind Kind

	// real: [min, max], span is the scale used by mutation, distance and
	// repair; anchor is the point repair aligns on.
	min, max, span, anchor float64

	// integer grid: lo, lo+step, ..., hi
	lo, hi, step int64

	// categorical candidates, or the population of a sequence kind
	seq  ir.List
	mode seqMode
	k    int
}

// deriveSupport validates args for fn and computes its support.
func deriveSupport(fn Func, args ir.List) (support, error) {
	switch fn.Kind() {
	case KindReal:
		return realSupport(fn, args)
	case KindInt:
		return intSupport(fn, args)
	case KindCategorical:
		if len(args) != 1 {
			return support{}, argCountError(fn, len(args), "1")
		}
		seq, ok := ir.AsList(args[0])
		if !ok || len(seq) == 0 {
			return support{}, fmt.Errorf("%w: %s needs a non-empty sequence", ErrInvalidArgs, fn)
		}
		return support{kind: KindCategorical, seq: seq}, nil
	case KindSequence:
		return seqSupport(fn, args)
	default:
		return support{}, fmt.Errorf("%w: unknown function %s", ErrInvalidArgs, fn)
	}
}

func realSupport(fn Func, args ir.List) (support, error) {
	a, err := realArgs(fn, args)
	if err != nil {
		return support{}, err
	}
	want := func(n ...int) error {
		for _, m := range n {
			if len(a) == m {
				return nil
			}
		}
		return argCountError(fn, len(a), fmt.Sprint(n))
	}
	positive := func(names ...string) error {
		for i, name := range names {
			if !(a[i] > 0) {
				return fmt.Errorf("%w: %s %s must be > 0, got %v", ErrInvalidArgs, fn, name, a[i])
			}
		}
		return nil
	}

	s := support{kind: KindReal}
	inf := math.Inf(1)
	switch fn {
	case FuncRandom:
		if err := want(0); err != nil {
			return s, err
		}
		s.min, s.max, s.span = 0, 1, 1
	case FuncUniform:
		if err := want(2); err != nil {
			return s, err
		}
		if a[0] > a[1] {
			return s, fmt.Errorf("%w: uniform needs a <= b, got %v > %v", ErrInvalidArgs, a[0], a[1])
		}
		s.min, s.max, s.span = a[0], a[1], a[1]-a[0]
	case FuncTriangular:
		if err := want(2, 3); err != nil {
			return s, err
		}
		if a[0] > a[1] {
			return s, fmt.Errorf("%w: triangular needs low <= high", ErrInvalidArgs)
		}
		if len(a) == 3 && (a[2] < a[0] || a[2] > a[1]) {
			return s, fmt.Errorf("%w: triangular mode %v outside [%v, %v]", ErrInvalidArgs, a[2], a[0], a[1])
		}
		s.min, s.max, s.span = a[0], a[1], a[1]-a[0]
	case FuncBeta:
		if err := want(2); err != nil {
			return s, err
		}
		if err := positive("alpha", "beta"); err != nil {
			return s, err
		}
		s.min, s.max, s.span = 0, 1, 1
	case FuncExpo:
		if err := want(1); err != nil {
			return s, err
		}
		if err := positive("lambda"); err != nil {
			return s, err
		}
		s.min, s.max, s.span = 0, inf, 2/a[0]
	case FuncGamma:
		if err := want(2); err != nil {
			return s, err
		}
		if err := positive("alpha", "beta"); err != nil {
			return s, err
		}
		s.min, s.max, s.span = 0, inf, 2*math.Sqrt(a[0])/a[1]
	case FuncGauss, FuncNormal:
		if err := want(2); err != nil {
			return s, err
		}
		if a[1] < 0 {
			return s, fmt.Errorf("%w: %s sigma must be >= 0", ErrInvalidArgs, fn)
		}
		s.min, s.max, s.span, s.anchor = -inf, inf, 2*a[1], a[0]
		return s, nil
	case FuncLogNormal:
		if err := want(2); err != nil {
			return s, err
		}
		if a[1] < 0 {
			return s, fmt.Errorf("%w: lognormal sigma must be >= 0", ErrInvalidArgs)
		}
		v := (math.Exp(a[1]*a[1]) - 1) * math.Exp(2*a[0]+a[1]*a[1])
		s.min, s.max, s.span = 0, inf, 2*math.Sqrt(v)
	case FuncPareto:
		if err := want(1); err != nil {
			return s, err
		}
		if err := positive("alpha"); err != nil {
			return s, err
		}
		// variance is only finite for alpha > 2
		al := a[0]
		s.min, s.max, s.span = 1, inf, 2*math.Sqrt(al/((al-1)*(al-1)*(al-2)))
	case FuncWeibull:
		if err := want(2); err != nil {
			return s, err
		}
		if err := positive("alpha", "beta"); err != nil {
			return s, err
		}
		g1 := math.Gamma(1 + 1/a[1])
		g2 := math.Gamma(1 + 2/a[1])
		s.min, s.max, s.span = 0, inf, 2*a[0]*math.Sqrt(g2-g1*g1)
	}
	if math.IsNaN(s.span) || math.IsInf(s.span, 0) || s.span <= 0 {
		// heavy tails or a degenerate interval: fall back to a unit scale
		// so mutation still moves and distance stays defined
		if s.max > s.min {
			s.span = 1
		} else {
			s.span = 0
		}
	}
	s.anchor = s.min
	return s, nil
}

func intSupport(fn Func, args ir.List) (support, error) {
	n := make([]int64, len(args))
	for i, arg := range args {
		v, ok := ir.AsInt(arg)
		if !ok {
			return support{}, fmt.Errorf("%w: %s argument %d must be an integer, got %s", ErrInvalidArgs, fn, i, ir.String(arg))
		}
		n[i] = v
	}

	s := support{kind: KindInt, step: 1}
	switch fn {
	case FuncRandInt:
		if len(n) != 2 {
			return s, argCountError(fn, len(n), "2")
		}
		if n[0] > n[1] {
			return s, fmt.Errorf("%w: randint needs a <= b, got %d > %d", ErrInvalidArgs, n[0], n[1])
		}
		s.lo, s.hi = n[0], n[1]
	case FuncRandRange:
		start, stop := int64(0), int64(0)
		switch len(n) {
		case 1:
			stop = n[0]
		case 2, 3:
			start, stop = n[0], n[1]
			if len(n) == 3 {
				s.step = n[2]
			}
		default:
			return s, argCountError(fn, len(n), "1, 2 or 3")
		}
		if s.step <= 0 {
			return s, fmt.Errorf("%w: randrange step must be > 0, got %d", ErrInvalidArgs, s.step)
		}
		if start >= stop {
			return s, fmt.Errorf("%w: empty randrange(%d, %d)", ErrInvalidArgs, start, stop)
		}
		last := (uint64(stop) - uint64(start) - 1) / uint64(s.step)
		s.lo, s.hi = start, int64(uint64(start)+last*uint64(s.step))
	}
	return s, nil
}

func seqSupport(fn Func, args ir.List) (support, error) {
	s := support{kind: KindSequence}
	if len(args) == 0 {
		return s, argCountError(fn, 0, "1 or 2")
	}
	pop, ok := ir.AsList(args[0])
	if !ok {
		return s, fmt.Errorf("%w: %s needs a sequence, got %s", ErrInvalidArgs, fn, ir.String(args[0]))
	}
	s.seq = pop

	if fn == FuncShuffle {
		if len(args) != 1 {
			return s, argCountError(fn, len(args), "1")
		}
		s.mode, s.k = modeShuffle, len(pop)
		return s, nil
	}

	if len(args) != 2 {
		return s, argCountError(fn, len(args), "2")
	}
	k, ok := ir.AsInt(args[1])
	if !ok || k < 0 {
		return s, fmt.Errorf("%w: %s k must be a non-negative integer, got %s", ErrInvalidArgs, fn, ir.String(args[1]))
	}
	s.k = int(k)
	switch fn {
	case FuncSample:
		if s.k > len(pop) {
			return s, fmt.Errorf("%w: sample larger than population (%d > %d)", ErrInvalidArgs, s.k, len(pop))
		}
		s.mode = modeSample
	case FuncChoices:
		if s.k > 0 && len(pop) == 0 {
			return s, fmt.Errorf("%w: choices from an empty population", ErrInvalidArgs)
		}
		s.mode = modeChoices
	}
	return s, nil
}

func realArgs(fn Func, args ir.List) ([]float64, error) {
	out := make([]float64, len(args))
	for i, arg := range args {
		f, ok := ir.AsReal(arg)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s argument %d must be a finite number, got %s", ErrInvalidArgs, fn, i, ir.String(arg))
		}
		out[i] = f
	}
	return out, nil
}

func argCountError(fn Func, got int, want string) error {
	return fmt.Errorf("%w: %s takes %s arguments, got %d", ErrInvalidArgs, fn, want, got)
}

package ir

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the values a trace can record.
// Only Null, Str, Int, Real, Bool, List and Object implement it.
type Value interface {
	irValue()
}

// Null is the absent value. A distribution that has never been sampled
// holds Null.
type Null struct{}

func (Null) irValue() {}

// Str is a string value.
type Str string

func (Str) irValue() {}

// Int is an integer value.
type Int int64

func (Int) irValue() {}

// Real is a floating point value.
type Real float64

func (Real) irValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) irValue() {}

// List is an ordered sequence of values.
type List []Value

func (List) irValue() {}

// Object maps string keys to values. Use SortedKeys for deterministic
// iteration.
type Object map[string]Value

func (Object) irValue() {}

// Ints builds a List of Int values.
func Ints(ns ...int64) List {
	out := make(List, len(ns))
	for i, n := range ns {
		out[i] = Int(n)
	}
	return out
}

// Reals builds a List of Real values.
func Reals(fs ...float64) List {
	out := make(List, len(fs))
	for i, f := range fs {
		out[i] = Real(f)
	}
	return out
}

// Strs builds a List of Str values.
func Strs(ss ...string) List {
	out := make(List, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}

// Range builds the List Int(0) .. Int(n-1).
func Range(n int) List {
	out := make(List, n)
	for i := range out {
		out[i] = Int(i)
	}
	return out
}

// Equal reports whether a and b are structurally identical.
// Reals are compared by bit pattern so NaN equals itself and 0 differs
// from -0.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Real:
		bv, ok := b.(Real)
		return ok && math.Float64bits(float64(av)) == math.Float64bits(float64(bv))
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch val := v.(type) {
	case List:
		return val.Clone()
	case Object:
		out := make(Object, len(val))
		for k, e := range val {
			out[k] = Clone(e)
		}
		return out
	default:
		// scalars are immutable
		return v
	}
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, e := range l {
		out[i] = Clone(e)
	}
	return out
}

// Index returns the position of the first element equal to v, or -1.
func (l List) Index(v Value) int {
	for i, e := range l {
		if Equal(e, v) {
			return i
		}
	}
	return -1
}

// Contains reports whether v is an element of the list.
func (l List) Contains(v Value) bool {
	return l.Index(v) >= 0
}

// Distinct returns the elements of l without repeats, in first-seen order.
func (l List) Distinct() List {
	out := make(List, 0, len(l))
	for _, e := range l {
		if !out.Contains(e) {
			out = append(out, e)
		}
	}
	return out
}

// AsReal converts a numeric value to float64.
func AsReal(v Value) (float64, bool) {
	switch n := v.(type) {
	case Real:
		return float64(n), true
	case Int:
		return float64(n), true
	default:
		return 0, false
	}
}

// AsInt converts an Int value to int64.
func AsInt(v Value) (int64, bool) {
	n, ok := v.(Int)
	return int64(n), ok
}

// AsList converts a List value.
func AsList(v Value) (List, bool) {
	l, ok := v.(List)
	return l, ok
}

// FromGo converts a plain Go value (as produced by YAML or JSON decoding)
// into a Value.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return Str(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		return Real(val), nil
	case float32:
		return Real(val), nil
	case bool:
		return Bool(val), nil
	case []any:
		out := make(List, len(val))
		for i, e := range val {
			iv, err := FromGo(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = iv
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(val))
		for k, e := range val {
			iv, err := FromGo(e)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = iv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Value into plain Go values (string, int64, float64,
// bool, []any, map[string]any, nil).
func ToGo(v Value) any {
	switch val := v.(type) {
	case Str:
		return string(val)
	case Int:
		return int64(val)
	case Real:
		return float64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = ToGo(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = ToGo(e)
		}
		return out
	default:
		return nil
	}
}

// String renders a value for logs and CLI output. It is not canonical.
func String(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Str:
		return strconv.Quote(string(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Real:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case List:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = String(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case Object:
		keys := val.SortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + String(val[k])
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's string comparison is UTF-8 and orders some keys differently.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// Package invariant holds debug-only assertions for the trace runtime.
//
// Checks compile to nothing unless the binary is built with the ptodebug
// tag. A failed check panics with *Violation: a violation is a programming
// error in an operator, never a condition callers are expected to handle.
package invariant

import "fmt"

// Value is implemented by anything whose immutability can be asserted.
// Snapshot must return a deep copy that shares no mutable storage with the
// receiver. Same reports structural equality with a snapshot.
type Value interface {
	Snapshot() Value
	Same(Value) bool
}

// Violation describes a broken invariant.
type Violation struct {
	Op      string
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", v.Op, v.Message)
}

// Immutable snapshots vals and returns a function that panics with a
// *Violation if any of them changed in between. Use with defer:
//
//	defer invariant.Immutable("Crossover", a, b)()
//
// Nil values are skipped.
func Immutable(op string, vals ...Value) func() {
	if !Enabled {
		return noop
	}
	snaps := make([]Value, len(vals))
	for i, v := range vals {
		if v != nil {
			snaps[i] = v.Snapshot()
		}
	}
	return func() {
		for i, v := range vals {
			if v == nil {
				continue
			}
			if !v.Same(snaps[i]) {
				panic(&Violation{Op: op, Message: fmt.Sprintf("operand %d was modified", i)})
			}
		}
	}
}

// Check panics with a *Violation when cond is false.
func Check(cond bool, op, format string, args ...any) {
	if !Enabled || cond {
		return
	}
	panic(&Violation{Op: op, Message: fmt.Sprintf(format, args...)})
}

func noop() {}

package trace

import (
	"fmt"
	"iter"
	"strings"

	"github.com/Program-Trace-Optimisation/PTO/internal/dist"
	"github.com/Program-Trace-Optimisation/PTO/internal/invariant"
	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
)

// formatVersion is written into every encoded trace.
const formatVersion = 1

// Trace is an ordered mapping from name to recorded distribution. It is the
// genotype of a solution.
//
// Distributions held by a trace are treated as immutable: code that needs a
// different value builds a new Dist and Sets it. This lets Copy share
// entries between traces.
type Trace struct {
	names   []string
	entries map[string]*dist.Dist
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{entries: make(map[string]*dist.Dist)}
}

// Len returns the number of entries.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the entry names in recording order.
func (t *Trace) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// Get returns the entry recorded under name.
func (t *Trace) Get(name string) (*dist.Dist, bool) {
	if t == nil {
		return nil, false
	}
	d, ok := t.entries[name]
	return d, ok
}

// Has reports whether name is recorded.
func (t *Trace) Has(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// Set records d under name. A new name is appended; an existing name keeps
// its position.
func (t *Trace) Set(name string, d *dist.Dist) {
	if _, ok := t.entries[name]; !ok {
		t.names = append(t.names, name)
	}
	t.entries[name] = d
}

// All iterates entries in recording order.
func (t *Trace) All() iter.Seq2[string, *dist.Dist] {
	return func(yield func(string, *dist.Dist) bool) {
		if t == nil {
			return
		}
		for _, n := range t.names {
			if !yield(n, t.entries[n]) {
				return
			}
		}
	}
}

// Copy returns a new trace sharing t's distributions.
func (t *Trace) Copy() *Trace {
	c := NewTrace()
	for n, d := range t.All() {
		c.Set(n, d)
	}
	return c
}

// Clone returns a deep copy of t.
func (t *Trace) Clone() *Trace {
	c := NewTrace()
	for n, d := range t.All() {
		c.Set(n, d.Clone())
	}
	return c
}

// Union returns a trace holding t's entries followed by the entries of
// others whose names are not already present. Entries are shared.
func (t *Trace) Union(others ...*Trace) *Trace {
	u := t.Copy()
	for _, o := range others {
		for n, d := range o.All() {
			if !u.Has(n) {
				u.Set(n, d)
			}
		}
	}
	return u
}

// Equal reports whether t and o hold equal entries under the same names in
// the same order.
func (t *Trace) Equal(o *Trace) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i, n := range t.names {
		if o.names[i] != n || !t.entries[n].Equal(o.entries[n]) {
			return false
		}
	}
	return true
}

// Snapshot implements invariant.Value.
func (t *Trace) Snapshot() invariant.Value {
	return t.Clone()
}

// Same implements invariant.Value.
func (t *Trace) Same(v invariant.Value) bool {
	o, ok := v.(*Trace)
	return ok && t.Equal(o)
}

func (t *Trace) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, n := range t.names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", n, t.entries[n])
	}
	b.WriteString("}")
	return b.String()
}

// Value returns the trace as an ir.Value in its encoded shape:
//
//	{"entries": [{"name", "fn", "args", "val", "coarse"?}, ...], "version": 1}
func (t *Trace) Value() ir.Value {
	entries := make(ir.List, 0, t.Len())
	for n, d := range t.All() {
		e := ir.Object{
			"name": ir.Str(n),
			"fn":   ir.Str(d.Fn.String()),
			"args": d.Args,
			"val":  d.Val,
		}
		if d.Coarse {
			e["coarse"] = ir.Bool(true)
		}
		entries = append(entries, e)
	}
	return ir.Object{"entries": entries, "version": ir.Int(formatVersion)}
}

// MarshalJSON encodes t as canonical JSON.
func (t *Trace) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical(t.Value())
}

// UnmarshalJSON decodes a trace produced by MarshalJSON. Every entry is
// revalidated through dist.New and its value checked against the support.
func (t *Trace) UnmarshalJSON(data []byte) error {
	v, err := ir.UnmarshalCanonical(data)
	if err != nil {
		return err
	}
	decoded, err := FromValue(v)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// FromValue rebuilds a trace from the shape returned by Value.
func FromValue(v ir.Value) (*Trace, error) {
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("decode trace: expected object, got %s", ir.String(v))
	}
	if ver, _ := ir.AsInt(obj["version"]); ver != formatVersion {
		return nil, fmt.Errorf("decode trace: unsupported version %s", ir.String(obj["version"]))
	}
	entries, ok := ir.AsList(obj["entries"])
	if !ok {
		return nil, fmt.Errorf("decode trace: missing entries")
	}

	out := NewTrace()
	for i, raw := range entries {
		e, ok := raw.(ir.Object)
		if !ok {
			return nil, fmt.Errorf("decode trace: entry %d is not an object", i)
		}
		name, ok := e["name"].(ir.Str)
		if !ok {
			return nil, fmt.Errorf("decode trace: entry %d has no name", i)
		}
		if out.Has(string(name)) {
			return nil, fmt.Errorf("decode trace: duplicate name %q", name)
		}
		fnName, _ := e["fn"].(ir.Str)
		fn, err := dist.ParseFunc(string(fnName))
		if err != nil {
			return nil, fmt.Errorf("decode trace: entry %q: %w", name, err)
		}
		args, _ := ir.AsList(e["args"])
		var d *dist.Dist
		if coarse, _ := e["coarse"].(ir.Bool); coarse {
			d, err = dist.NewCoarse(fn, args...)
		} else {
			d, err = dist.New(fn, args...)
		}
		if err != nil {
			return nil, fmt.Errorf("decode trace: entry %q: %w", name, err)
		}
		if val, ok := e["val"]; ok {
			if !d.Contains(val) {
				return nil, fmt.Errorf("decode trace: entry %q: %s is outside the support of %s(%s)",
					name, ir.String(val), fn, ir.String(args))
			}
			d.Val = val
		}
		out.Set(string(name), d)
	}
	return out, nil
}

// Fingerprint returns a content hash of the encoded trace. Equal traces
// have equal fingerprints.
func (t *Trace) Fingerprint() (string, error) {
	return ir.Hash(ir.DomainTrace, t.Value())
}

// Package naming supplies the names a tracer records sampling calls under.
//
// A name must be stable for the same control-flow path through a
// generator: replaying a trace pairs each sampling call with the recorded
// entry of the same name. Two suppliers are provided. Sequential numbers
// calls in order of execution. Stack derives the name from the generator's
// call path, so inserting a call on one branch does not rename calls on
// another.
package naming

import (
	"runtime"
	"slices"
	"strconv"
	"strings"
)

// Namer hands out one name per sampling call. Reset is called at the start
// of every replay.
type Namer interface {
	Reset()
	Next() string
}

// Sequential names calls "0", "1", "2", ... in execution order.
type Sequential struct {
	n int
}

// NewSequential returns a Sequential namer.
func NewSequential() *Sequential {
	return &Sequential{}
}

func (s *Sequential) Reset() { s.n = 0 }

func (s *Sequential) Next() string {
	name := strconv.Itoa(s.n)
	s.n++
	return name
}

const modulePath = "github.com/Program-Trace-Optimisation/PTO"

// DefaultInternal lists the function-name prefixes Stack treats as
// belonging to the runtime rather than to the generator.
var DefaultInternal = []string{
	"runtime.",
	modulePath + "/internal/naming.",
	modulePath + "/internal/trace.",
}

const maxStackDepth = 64

// Stack names a call by the generator frames above it, outermost first,
// each written as function:line, followed by an occurrence counter for the
// path. The walk starts at the first frame outside the internal prefixes
// and stops at the next internal frame, which is the replay entry point.
type Stack struct {
	internal []string
	counts   map[string]int
}

// NewStack returns a Stack namer. With no prefixes it uses DefaultInternal.
func NewStack(internal ...string) *Stack {
	if len(internal) == 0 {
		internal = DefaultInternal
	}
	return &Stack{internal: internal, counts: make(map[string]int)}
}

func (s *Stack) Reset() { clear(s.counts) }

func (s *Stack) Next() string {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var path []string
	for {
		f, more := frames.Next()
		if s.isInternal(f.Function) {
			if len(path) > 0 {
				break
			}
		} else {
			path = append(path, shortFunc(f.Function)+":"+strconv.Itoa(f.Line))
		}
		if !more {
			break
		}
	}
	slices.Reverse(path)

	key := strings.Join(path, "/")
	i := s.counts[key]
	s.counts[key] = i + 1
	return key + "#" + strconv.Itoa(i)
}

func (s *Stack) isInternal(fn string) bool {
	for _, p := range s.internal {
		if strings.HasPrefix(fn, p) {
			return true
		}
	}
	return false
}

// shortFunc strips the import path: "a/b/pkg.F.func1" becomes "pkg.F.func1".
func shortFunc(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		return fn[i+1:]
	}
	return fn
}

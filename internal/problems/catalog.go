package problems

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
	"github.com/Program-Trace-Optimisation/PTO/internal/search"
	"github.com/Program-Trace-Optimisation/PTO/internal/trace"
)

func init() {
	register(Definition{
		Name:        "onemax",
		Description: "maximise the number of ones in a bit string",
		Better:      search.Maximise,
		Defaults:    Params{Size: 10},
		Build:       buildOnemax,
	})
	register(Definition{
		Name:        "sphere",
		Description: "minimise the squared distance of a real vector to (0.5, ..., 0.5)",
		Better:      search.Minimise,
		Defaults:    Params{Size: 10},
		Build:       buildSphere,
	})
	register(Definition{
		Name:        "tsp",
		Description: "shortest tour over a random asymmetric distance matrix",
		Better:      search.Minimise,
		Defaults:    Params{Size: 15},
		Build:       buildTSP,
	})
	register(Definition{
		Name:        "subset",
		Description: "shortest tour visiting exactly k of the cities (k-TSP)",
		Better:      search.Minimise,
		Defaults:    Params{Size: 15, K: 5},
		Build:       buildSubset,
	})
	register(Definition{
		Name:        "assignment",
		Description: "generalised assignment of tasks to capacity-limited agents",
		Better:      search.Minimise,
		Defaults:    Params{Size: 20, Agents: 10},
		Build:       buildAssignment,
	})
	register(Definition{
		Name:        "helloworld",
		Description: "match a target string letter by letter",
		Better:      search.Maximise,
		Defaults:    Params{Target: "HELLO WORLD", Alphabet: " ABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		Build:       buildHelloWorld,
	})
}

// instanceRand is the source for problem data. It is separate from the
// search's source so the instance does not depend on the replicate.
func instanceRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0x5eed))
}

func positive(name string, v int) error {
	if v < 1 {
		return fmt.Errorf("%s must be positive, got %d", name, v)
	}
	return nil
}

func toInts(l ir.List) []int {
	out := make([]int, len(l))
	for i, v := range l {
		n, _ := ir.AsInt(v)
		out[i] = int(n)
	}
	return out
}

func buildOnemax(p Params) (Instance, error) {
	if err := positive("size", p.Size); err != nil {
		return nil, err
	}
	bits := ir.Ints(0, 1)
	gen := func(r *trace.Random) []int {
		out := make([]int, p.Size)
		for i := range out {
			v, _ := ir.AsInt(r.Choice(bits))
			out[i] = int(v)
		}
		return out
	}
	fitness := func(xs []int) float64 {
		total := 0
		for _, x := range xs {
			total += x
		}
		return float64(total)
	}
	return &typed[[]int]{name: "onemax", better: search.Maximise, params: p, gen: gen, fitness: fitness}, nil
}

func buildSphere(p Params) (Instance, error) {
	if err := positive("size", p.Size); err != nil {
		return nil, err
	}
	gen := func(r *trace.Random) []float64 {
		out := make([]float64, p.Size)
		for i := range out {
			out[i] = r.Uniform(-1, 1)
		}
		return out
	}
	return &typed[[]float64]{name: "sphere", better: search.Minimise, params: p, gen: gen, fitness: Sphere}, nil
}

// Sphere is the squared distance to (0.5, ..., 0.5). The optimum is off
// the values some operators are biased towards (-1, 0, 1).
func Sphere(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += (x - 0.5) * (x - 0.5)
	}
	return total
}

// DistanceMatrix returns an n x n matrix of uniform [0, 1) distances.
func DistanceMatrix(n int, seed uint64) [][]float64 {
	r := instanceRand(seed)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = r.Float64()
		}
	}
	return m
}

// TourLength is the length of the closed tour through the listed cities.
func TourLength(tour []int, dist [][]float64) float64 {
	n := len(tour)
	total := 0.0
	for i, c := range tour {
		total += dist[c][tour[(i+1)%n]]
	}
	return total
}

func buildTSP(p Params) (Instance, error) {
	if err := positive("size", p.Size); err != nil {
		return nil, err
	}
	dist := DistanceMatrix(p.Size, p.InstanceSeed)
	cities := ir.Range(p.Size)
	gen := func(r *trace.Random) []int {
		return toInts(r.Shuffle(cities))
	}
	fitness := func(tour []int) float64 { return TourLength(tour, dist) }
	return &typed[[]int]{name: "tsp", better: search.Minimise, params: p, gen: gen, fitness: fitness}, nil
}

func buildSubset(p Params) (Instance, error) {
	if err := positive("size", p.Size); err != nil {
		return nil, err
	}
	if err := positive("k", p.K); err != nil {
		return nil, err
	}
	if p.K > p.Size {
		return nil, fmt.Errorf("k (%d) exceeds size (%d)", p.K, p.Size)
	}
	dist := DistanceMatrix(p.Size, p.InstanceSeed)
	cities := make([]int, p.Size)
	for i := range cities {
		cities[i] = i
	}
	gen := func(r *trace.Random) []int {
		return trace.SampleOf(r, cities, p.K)
	}
	fitness := func(tour []int) float64 { return TourLength(tour, dist) }
	return &typed[[]int]{name: "subset", better: search.Minimise, params: p, gen: gen, fitness: fitness}, nil
}

// Assignment is a generalised assignment instance: Cost[a][t] and
// Resource[a][t] for agent a doing task t, and per-agent Capacity.
type Assignment struct {
	Cost     [][]int
	Resource [][]int
	Capacity []int
}

// overloadPenalty is charged per unit of resource above an agent's capacity.
const overloadPenalty = 1000

// NewAssignment draws costs in [10, 50], resources in [1, 10] and
// capacities within a quarter of the average load per agent.
func NewAssignment(agents, tasks int, seed uint64) Assignment {
	r := instanceRand(seed)
	a := Assignment{
		Cost:     make([][]int, agents),
		Resource: make([][]int, agents),
		Capacity: make([]int, agents),
	}
	totalRes := 0
	for i := range agents {
		a.Cost[i] = make([]int, tasks)
		a.Resource[i] = make([]int, tasks)
		for j := range tasks {
			a.Cost[i][j] = 10 + r.IntN(41)
			a.Resource[i][j] = 1 + r.IntN(10)
			totalRes += a.Resource[i][j]
		}
	}
	avgRes := float64(totalRes) / float64(agents*tasks)
	base := int(float64(tasks) / float64(agents) * avgRes)
	spread := base / 4
	for i := range a.Capacity {
		a.Capacity[i] = base - spread
		if spread > 0 {
			a.Capacity[i] += r.IntN(2 * spread)
		}
	}
	return a
}

// Fitness is total cost plus the overload penalty. assign[t] is the agent
// doing task t.
func (a Assignment) Fitness(assign []int) float64 {
	load := make([]int, len(a.Capacity))
	cost := 0
	for task, agent := range assign {
		cost += a.Cost[agent][task]
		load[agent] += a.Resource[agent][task]
	}
	penalty := 0
	for i, l := range load {
		penalty += max(0, l-a.Capacity[i]) * overloadPenalty
	}
	return float64(cost + penalty)
}

func buildAssignment(p Params) (Instance, error) {
	if err := positive("size", p.Size); err != nil {
		return nil, err
	}
	if err := positive("agents", p.Agents); err != nil {
		return nil, err
	}
	inst := NewAssignment(p.Agents, p.Size, p.InstanceSeed)
	agents := ir.Range(p.Agents)
	gen := func(r *trace.Random) []int {
		return toInts(r.Choices(agents, p.Size))
	}
	return &typed[[]int]{name: "assignment", better: search.Minimise, params: p, gen: gen, fitness: inst.Fitness}, nil
}

func buildHelloWorld(p Params) (Instance, error) {
	if p.Target == "" {
		return nil, fmt.Errorf("target must not be empty")
	}
	alphabet := []rune(p.Alphabet)
	if len(alphabet) == 0 {
		return nil, fmt.Errorf("alphabet must not be empty")
	}
	target := []rune(p.Target)
	gen := func(r *trace.Random) string {
		var b strings.Builder
		for range target {
			b.WriteRune(trace.ChoiceOf(r, alphabet))
		}
		return b.String()
	}
	fitness := func(s string) float64 {
		hits := 0
		for i, c := range []rune(s) {
			if i < len(target) && c == target[i] {
				hits++
			}
		}
		return float64(hits)
	}
	return &typed[string]{
		name:     "helloworld",
		better:   search.Maximise,
		params:   p,
		gen:      gen,
		fitness:  fitness,
		describe: func(s string) string { return fmt.Sprintf("%q", s) },
	}, nil
}

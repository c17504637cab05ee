package search

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/sourcegraph/conc/pool"
)

// ReplicateFunc runs replicate i with its own random source.
type ReplicateFunc[R any] func(ctx context.Context, i int, rng *rand.Rand) (R, error)

// ReplicateRand returns the random source RunReplicates hands to replicate
// i. The same (seed, i) always yields the same stream.
func ReplicateRand(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)))
}

// RunReplicates runs n independent replicates on up to workers goroutines
// and returns their results in replicate order. Replicates share nothing;
// each gets its own random source and must build its own tracer.
//
// The first error cancels the context passed to the remaining replicates
// and is returned.
func RunReplicates[R any](ctx context.Context, n int, seed uint64, workers int, fn ReplicateFunc[R]) ([]R, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative replicate count %d", n)
	}
	workers = max(1, min(workers, n))

	results := make([]R, n)
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(workers).
		WithCancelOnError().
		WithFirstError()
	for i := range n {
		p.Go(func(ctx context.Context) error {
			r, err := fn(ctx, i, ReplicateRand(seed, i))
			if err != nil {
				return fmt.Errorf("replicate %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

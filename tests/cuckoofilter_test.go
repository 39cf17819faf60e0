package tests

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ashlab/cuckoofilter/builder"
	"github.com/ashlab/cuckoofilter/funnel"
)

// TestConcurrentSaturationAcrossDisjointRanges drives 16 goroutines, each
// inserting a disjoint range of keys up to 80% of the configured capacity,
// then has every goroutine verify its own range is still present. No insert
// may be silently lost: a Put that returns true must be found by
// MightContain once every goroutine has finished inserting.
func TestConcurrentSaturationAcrossDisjointRanges(t *testing.T) {
	const (
		goroutines = 16
		maxKeys    = 100_000_000
		perWorker  = (maxKeys * 8 / 10) / goroutines
	)

	f, err := builder.New[uint64](funnel.Uint64Funnel{}, maxKeys).
		FPP(0.01).
		Concurrency(goroutines).
		Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	accepted := make([][]uint64, goroutines)

	for w := 0; w < goroutines; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			base := uint64(worker) * perWorker
			mine := make([]uint64, 0, perWorker)
			for i := uint64(0); i < perWorker; i++ {
				key := base + i
				if f.Put(key) {
					mine = append(mine, key)
				}
			}
			accepted[worker] = mine
		}(w)
	}
	wg.Wait()

	var wg2 sync.WaitGroup
	for w := 0; w < goroutines; w++ {
		wg2.Add(1)
		go func(worker int) {
			defer wg2.Done()
			for _, key := range accepted[worker] {
				require.True(t, f.MightContain(key), "accepted key %d vanished after concurrent saturation", key)
			}
		}(w)
	}
	wg2.Wait()

	require.LessOrEqual(t, f.Count(), uint64(maxKeys))
	require.Greater(t, f.LoadFactor(), 0.0)
}

// TestFalseDeleteRateStaysBelowBound inserts a large population, then
// attempts to delete a disjoint set of keys that were never inserted. A
// cuckoo filter cannot distinguish a false-positive membership check from a
// true one, so a small fraction of these deletes are expected to report
// success (removing someone else's colliding fingerprint); the rate must
// stay close to the configured false-positive probability.
func TestFalseDeleteRateStaysBelowBound(t *testing.T) {
	const (
		inserted = 100_000
		probes   = 10_000
		fpp      = 0.01
	)

	f, err := builder.New[uint64](funnel.Uint64Funnel{}, inserted*4).FPP(fpp).Build()
	require.NoError(t, err)

	for i := uint64(0); i < inserted; i++ {
		require.True(t, f.Put(i))
	}

	var falseDeletes int
	for i := uint64(inserted); i < inserted+probes; i++ {
		if f.Delete(i) {
			falseDeletes++
		}
	}

	rate := float64(falseDeletes) / float64(probes)
	require.Less(t, rate, 0.02, "false-delete rate %f exceeded bound", rate)
}

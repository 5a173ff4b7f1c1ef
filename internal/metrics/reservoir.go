package metrics

import (
	"math/rand"
	"sort"
)

// reservoir is a bounded-memory sample of observed latencies. Below capacity
// it holds every observation, so quantiles are exact; past capacity it keeps a
// uniform random sample (Vitter's algorithm R). Quantiles read from one sorted
// copy, so p50 <= p95 <= p99 always holds.
type reservoir struct {
	capacity int
	seen     int64
	samples  []float64
	rng      *rand.Rand
}

func newReservoir(capacity int) *reservoir {
	return &reservoir{
		capacity: capacity,
		samples:  make([]float64, 0, capacity),
		rng:      rand.New(rand.NewSource(1)),
	}
}

// add records one observation; caller holds the collector lock
func (r *reservoir) add(v float64) {
	r.seen++
	if len(r.samples) < r.capacity {
		r.samples = append(r.samples, v)
		return
	}
	if idx := r.rng.Int63n(r.seen); idx < int64(r.capacity) {
		r.samples[idx] = v
	}
}

// quantile estimates the q-th quantile (0 < q < 1) of observed values
func (r *reservoir) quantile(q float64) float64 {
	n := len(r.samples)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, r.samples)
	sort.Float64s(sorted)

	idx := int(q * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

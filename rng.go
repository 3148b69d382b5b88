package voteensemble

import (
	"math/rand"
)

// rng is the ensemble's owned random source. It is used exclusively by
// the orchestrating code: subsample index sets are drawn serially
// before workers are dispatched, so the source is never shared across
// goroutines. Keeping the construction-time seed allows Reset to
// reproduce a run exactly.
type rng struct {
	rand *rand.Rand
	seed int64
}

func newRNG(seed int64) *rng {
	return &rng{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// reset rewinds the source to its construction-time seed.
func (r *rng) reset() {
	r.rand.Seed(r.seed)
}

// sampleIndices draws k distinct indices from [0, n) without
// replacement using selection sampling, which emits the chosen indices
// in ascending order.
func (r *rng) sampleIndices(n, k int) []int {
	out := make([]int, 0, k)
	remaining := k
	for i := 0; i < n && remaining > 0; i++ {
		if r.rand.Float64()*float64(n-i) < float64(remaining) {
			out = append(out, i)
			remaining--
		}
	}
	return out
}

// sampleFrom draws k distinct elements from pool without replacement,
// preserving pool order.
func (r *rng) sampleFrom(pool []int, k int) []int {
	out := make([]int, 0, k)
	remaining := k
	n := len(pool)
	for i := 0; i < n && remaining > 0; i++ {
		if r.rand.Float64()*float64(n-i) < float64(remaining) {
			out = append(out, pool[i])
			remaining--
		}
	}
	return out
}

package gen

import "math/rand"

// Source is the pseudo-random stream consumed by the sampler and the
// feasibility policies. *rand.Rand satisfies it; tests may substitute a
// fixed sequence.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// NewSource returns a deterministic Source for seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// uniform draws from [lo, hi).
func uniform(rng Source, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// uniformInt draws from [lo, hi], both inclusive. hi must be >= lo.
func uniformInt(rng Source, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

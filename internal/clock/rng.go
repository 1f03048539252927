package clock

import (
	"math"
	"math/rand"
)

// deterministicRNG wraps math/rand.Rand, seeded explicitly by the caller.
// No part of this package ever touches the global rand source — backtests
// must be reproducible given the same seed, so every sample traces back
// to a Rand instance the caller controls.
type deterministicRNG struct {
	r *rand.Rand
}

func newDeterministicRNG(seed int64) *deterministicRNG {
	return &deterministicRNG{r: rand.New(rand.NewSource(seed))}
}

func (d *deterministicRNG) Int63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return d.r.Int63n(n)
}

func (d *deterministicRNG) NormFloat64() float64 {
	return d.r.NormFloat64()
}

// Poisson draws a Poisson-distributed integer sample with mean lambda
// using Knuth's algorithm.
func (d *deterministicRNG) Poisson(lambda float64) int64 {
	if lambda <= 0 {
		return 0
	}
	k := int64(0)
	p := 1.0
	threshold := math.Exp(-lambda)
	for {
		k++
		p *= d.r.Float64()
		if p <= threshold || k > 1_000_000 {
			// The k bound guards pathologically large lambda; never hit
			// in practice for the latency magnitudes this model samples.
			break
		}
	}
	return k - 1
}

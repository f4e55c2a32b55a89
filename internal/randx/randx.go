// Package randx holds the random variate generators shared by the peers
// commands.
package randx

import (
	"math"
	"math/rand/v2"
)

// New returns a generator seeded with seed, or with a random seed when seed
// is nil.
func New(seed *uint64) *rand.Rand {
	if seed == nil {
		s := rand.Uint64()
		seed = &s
	}
	return rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
}

// Weighted draws an index with probability proportional to weights. The
// weights need not be normalized. It returns -1 if they do not add up to a
// positive number.
func Weighted(weights []float64, rng *rand.Rand) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 || math.IsNaN(total) {
		return -1
	}
	u := rng.Float64() * total
	var acc float64
	for i, w := range weights {
		acc += w
		if u < acc {
			return i
		}
	}
	// Rounding left u at the very top of the range.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}

// Poisson draws from a Poisson distribution with mean lambda.
func Poisson(lambda float64, rng *rand.Rand) int {
	if lambda <= 0 {
		return 0
	}
	n := 0
	// Knuth's method loses precision for large means; split them up.
	for lambda > 30 {
		n += poissonKnuth(30, rng)
		lambda -= 30
	}
	return n + poissonKnuth(lambda, rng)
}

func poissonKnuth(lambda float64, rng *rand.Rand) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

// Package lhd generates Latin hypercube designs.
//
// A design of n points in m dimensions places exactly one point in every
// row of an n-cell grid along each axis. Points are returned either as grid
// indices or, when ranges are given, as the centres of the grid cells within
// those ranges.
package lhd

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
)

// DesignError reports design parameters that cannot produce a design.
type DesignError struct {
	Msg string
}

func (e *DesignError) Error() string { return e.Msg }

// Kind implements the interface used to name masked errors.
func (e *DesignError) Kind() string { return "ValueError" }

func designErrorf(format string, args ...interface{}) error {
	return &DesignError{Msg: fmt.Sprintf(format, args...)}
}

// Range is an interval along one axis. Min may be larger than Max.
type Range struct {
	Min, Max float64
}

// Design is a set of points together with their minimum pairwise distance.
type Design struct {
	Points  [][]float64
	MinDist float64
}

// Generate returns a random design of n points in m dimensions. When ranges
// is not nil it must hold one Range per dimension.
func Generate(rng *rand.Rand, m, n int, ranges []Range) (Design, error) {
	if err := validate(m, n, ranges); err != nil {
		return Design{}, err
	}
	return generate(rng, m, n, ranges), nil
}

// Maximin draws num designs and keeps the one with the largest minimum
// pairwise distance.
func Maximin(ctx context.Context, rng *rand.Rand, m, n, num int, ranges []Range) (Design, error) {
	if err := validate(m, n, ranges); err != nil {
		return Design{}, err
	}
	if err := validateNum(num); err != nil {
		return Design{}, err
	}
	best := Design{MinDist: -1}
	for i := 0; i < num; i++ {
		if err := ctx.Err(); err != nil {
			return Design{}, err
		}
		d := generate(rng, m, n, ranges)
		if d.MinDist > best.MinDist {
			best = d
		}
	}
	return best, nil
}

func validate(m, n int, ranges []Range) error {
	if m < 1 {
		return designErrorf("number of dimensions must be positive, got %d", m)
	}
	if n < 2 {
		return designErrorf("at least 2 points are needed, got %d", n)
	}
	if ranges != nil && len(ranges) != m {
		return designErrorf("expecting %d ranges", m)
	}
	return nil
}

func validateNum(num int) error {
	if num < 1 {
		return designErrorf("number of designs must be positive, got %d", num)
	}
	return nil
}

func generate(rng *rand.Rand, m, n int, ranges []Range) Design {
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, m)
	}
	for d := 0; d < m; d++ {
		perm := rng.Perm(n)
		for i, k := range perm {
			points[i][d] = float64(k)
		}
	}
	if ranges != nil {
		for _, p := range points {
			for d, r := range ranges {
				step := (r.Max - r.Min) / float64(n)
				p[d] = r.Min + (p[d]+0.5)*step
			}
		}
	}
	return Design{Points: points, MinDist: MinDistance(points)}
}

// MinDistance returns the smallest Euclidean distance between two points.
func MinDistance(points [][]float64) float64 {
	closest := math.Inf(1)
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			var s float64
			for d := range points[i] {
				x := points[i][d] - points[j][d]
				s += x * x
			}
			if s < closest {
				closest = s
			}
		}
	}
	return math.Sqrt(closest)
}

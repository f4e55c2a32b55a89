package truncated

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// ModelError reports data or parameters the model cannot work with.
type ModelError struct {
	Msg string
}

func (e *ModelError) Error() string { return e.Msg }

// Kind implements the interface used to name masked errors.
func (e *ModelError) Kind() string { return "ValueError" }

func modelErrorf(format string, args ...interface{}) error {
	return &ModelError{Msg: fmt.Sprintf(format, args...)}
}

// Model is a mixture of truncated normals sharing the bounds Lo and Hi.
type Model struct {
	Weights []float64
	Means   []float64
	Sigmas  []float64
	Lo, Hi  float64
}

// Components returns the number of mixture components.
func (m Model) Components() int { return len(m.Weights) }

// PDF returns the mixture density at x.
func (m Model) PDF(x float64) float64 {
	var p float64
	for i, w := range m.Weights {
		p += w * PDF(x, m.Means[i], m.Sigmas[i], m.Lo, m.Hi)
	}
	return p
}

// CDF returns the mixture distribution function at x.
func (m Model) CDF(x float64) float64 {
	var p float64
	for i, w := range m.Weights {
		p += w * CDF(x, m.Means[i], m.Sigmas[i], m.Lo, m.Hi)
	}
	return p
}

// LogLike returns the log-likelihood of data.
func (m Model) LogLike(data []float64) float64 {
	var ll float64
	for _, x := range data {
		ll += math.Log(m.PDF(x))
	}
	return ll
}

// Identify sorts the components by increasing mean, so that fits of the same
// data can be compared component by component.
func (m *Model) Identify() {
	idx := make([]int, len(m.Means))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return m.Means[idx[a]] < m.Means[idx[b]] })
	w, mu, s := make([]float64, len(idx)), make([]float64, len(idx)), make([]float64, len(idx))
	for i, j := range idx {
		w[i], mu[i], s[i] = m.Weights[j], m.Means[j], m.Sigmas[j]
	}
	m.Weights, m.Means, m.Sigmas = w, mu, s
}

// Options control the EM iterations.
type Options struct {
	// Iterations is the maximum number of iterations, including the
	// initial one.
	Iterations int

	// Threshold stops the iterations once the log-likelihood changes by
	// less than it.
	Threshold float64

	// Trace, if set, is called with the iteration number, the
	// log-likelihood and the current weights.
	Trace func(iter int, loglike float64, weights []float64)
}

// DefaultOptions returns 100 iterations and a threshold of 0.01.
func DefaultOptions() Options {
	return Options{Iterations: 100, Threshold: 1e-2}
}

// Fit is the outcome of EM.
type Fit struct {
	Model
	LogLike   []float64
	Converged bool

	// N is the number of observations within the bounds.
	N int
}

// initAttempts bounds the number of k-means restarts used to find an
// initial partition with enough points in each component.
const initAttempts = 100

// EM fits a mixture of k truncated normals to data. When bounds is nil the
// data range is used; otherwise data outside bounds is discarded first.
func EM(ctx context.Context, rng *rand.Rand, data []float64, k int, bounds *[2]float64, opts Options) (Fit, error) {
	if k < 1 {
		return Fit{}, modelErrorf("number of components must be positive, got %d", k)
	}
	if opts.Iterations < 1 {
		return Fit{}, modelErrorf("number of iterations must be positive, got %d", opts.Iterations)
	}

	var lo, hi float64
	if bounds != nil {
		lo, hi = bounds[0], bounds[1]
		if lo > hi {
			return Fit{}, modelErrorf("bounds (a, b) must be a <= b")
		}
		kept := make([]float64, 0, len(data))
		for _, x := range data {
			if x >= lo && x <= hi {
				kept = append(kept, x)
			}
		}
		data = kept
	} else if len(data) > 0 {
		lo, hi = data[0], data[0]
		for _, x := range data {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
	}
	if len(data) < 2*k {
		return Fit{}, modelErrorf("need at least %d observations for %d components, got %d", 2*k, k, len(data))
	}

	m, err := initialize(rng, data, k)
	if err != nil {
		return Fit{}, err
	}
	m.Lo, m.Hi = lo, hi

	fit := Fit{N: len(data)}
	ll := m.LogLike(data)
	fit.LogLike = append(fit.LogLike, ll)
	if opts.Trace != nil {
		opts.Trace(0, ll, m.Weights)
	}

	gamma := make([][]float64, len(data))
	for i := range gamma {
		gamma[i] = make([]float64, k)
	}
	for it := 1; it < opts.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return Fit{}, err
		}
		responsibilities(data, m, gamma)
		if m, err = maximize(data, m, gamma); err != nil {
			return Fit{}, err
		}
		ll = m.LogLike(data)
		fit.LogLike = append(fit.LogLike, ll)
		if opts.Trace != nil {
			opts.Trace(it, ll, m.Weights)
		}
		if math.Abs(fit.LogLike[it-1]-ll) < opts.Threshold {
			fit.Converged = true
			break
		}
	}
	fit.Model = m
	return fit, nil
}

// initialize partitions data with k-means and uses the clusters' sizes,
// means and standard deviations as the starting point.
func initialize(rng *rand.Rand, data []float64, k int) (Model, error) {
	n := float64(len(data))
	for attempt := 0; attempt < initAttempts; attempt++ {
		assign := kmeans(rng, data, k, 5)

		m := Model{
			Weights: make([]float64, k),
			Means:   make([]float64, k),
			Sigmas:  make([]float64, k),
		}
		counts := make([]int, k)
		for i, x := range data {
			counts[assign[i]]++
			m.Means[assign[i]] += x
		}
		ok := true
		for j := range counts {
			if counts[j] < 2 {
				ok = false
				break
			}
			m.Means[j] /= float64(counts[j])
			m.Weights[j] = float64(counts[j]) / n
		}
		if !ok {
			continue
		}
		for i, x := range data {
			d := x - m.Means[assign[i]]
			m.Sigmas[assign[i]] += d * d
		}
		for j := range m.Sigmas {
			m.Sigmas[j] = math.Sqrt(m.Sigmas[j] / float64(counts[j]-1))
			if m.Sigmas[j] == 0 {
				ok = false
			}
		}
		if ok {
			return m, nil
		}
	}
	return Model{}, modelErrorf("cannot find %d components with distinct values in the data", k)
}

// kmeans runs iter Lloyd iterations from k centres drawn from data and
// returns the cluster of every observation.
func kmeans(rng *rand.Rand, data []float64, k, iter int) []int {
	centres := make([]float64, k)
	for j, i := range rng.Perm(len(data))[:k] {
		centres[j] = data[i]
	}
	assign := make([]int, len(data))
	sums := make([]float64, k)
	counts := make([]int, k)
	for it := 0; it < iter; it++ {
		for i, x := range data {
			best := 0
			for j := 1; j < k; j++ {
				if math.Abs(x-centres[j]) < math.Abs(x-centres[best]) {
					best = j
				}
			}
			assign[i] = best
		}
		for j := range sums {
			sums[j], counts[j] = 0, 0
		}
		for i, x := range data {
			sums[assign[i]] += x
			counts[assign[i]]++
		}
		for j := range centres {
			if counts[j] > 0 {
				centres[j] = sums[j] / float64(counts[j])
			}
		}
	}
	return assign
}

// responsibilities is the E-step: gamma[i][j] is the posterior probability
// that observation i comes from component j.
func responsibilities(data []float64, m Model, gamma [][]float64) {
	k := m.Components()
	for i, x := range data {
		var sum float64
		for j := 0; j < k; j++ {
			g := m.Weights[j] * PDF(x, m.Means[j], m.Sigmas[j], m.Lo, m.Hi)
			gamma[i][j] = g
			sum += g
		}
		for j := 0; j < k; j++ {
			if sum > 0 {
				gamma[i][j] /= sum
			} else {
				gamma[i][j] = 1 / float64(k)
			}
		}
	}
}

// maximize is the M-step. Sample moments of each component are corrected for
// the truncation to estimate the parameters of the untruncated normal.
func maximize(data []float64, m Model, gamma [][]float64) (Model, error) {
	k := m.Components()
	next := Model{
		Weights: make([]float64, k),
		Means:   make([]float64, k),
		Sigmas:  make([]float64, k),
		Lo:      m.Lo,
		Hi:      m.Hi,
	}
	n := float64(len(data))
	for j := 0; j < k; j++ {
		var g, mean float64
		for i, x := range data {
			g += gamma[i][j]
			mean += gamma[i][j] * x
		}
		if g == 0 {
			return Model{}, modelErrorf("component %d is empty", j+1)
		}
		mean /= g
		var ss float64
		for i, x := range data {
			d := x - mean
			ss += gamma[i][j] * d * d
		}
		sd := math.Sqrt(ss / g)

		vf := varFactor(m.Means[j], m.Sigmas[j], m.Lo, m.Hi)
		if !(vf > 0) {
			return Model{}, modelErrorf("component %d: truncation variance factor is %g", j+1, vf)
		}
		next.Weights[j] = g / n
		next.Means[j] = mean - meanShift(m.Means[j], m.Sigmas[j], m.Lo, m.Hi)
		next.Sigmas[j] = sd / math.Sqrt(vf)
		if next.Sigmas[j] == 0 || math.IsNaN(next.Sigmas[j]) {
			return Model{}, modelErrorf("component %d collapsed", j+1)
		}
	}
	return next, nil
}

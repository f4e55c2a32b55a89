package truncated

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/peers-abm/peers/internal/randx"
)

// Intervals are the half-widths of the confidence intervals of the
// parameters of a fitted model, component by component.
type Intervals struct {
	Level     float64
	Means     []float64
	Variances []float64
	Weights   []float64

	// Samples is the number of bootstrap samples that could be fitted.
	Samples int
}

// Bootstrap estimates confidence intervals at the given level for a
// k-component model of data by refitting samples resamplings of it, at most
// jobs at a time. Samples whose fit fails are left out.
func Bootstrap(ctx context.Context, rng *rand.Rand, data []float64, k int, bounds *[2]float64, opts Options, samples, jobs int, level float64) (Intervals, error) {
	if samples < 2 {
		return Intervals{}, modelErrorf("need at least 2 bootstrap samples, got %d", samples)
	}
	if !(level > 0 && level < 1) {
		return Intervals{}, modelErrorf("confidence level must be in (0, 1), got %g", level)
	}
	if jobs < 1 {
		jobs = runtime.GOMAXPROCS(0)
	}
	opts.Trace = nil

	// Seeds are drawn up front so that the outcome does not depend on
	// scheduling.
	seeds := make([]uint64, samples)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}

	fits := make([]*Model, samples)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range seeds {
		g.Go(func() error {
			r := randx.New(&seeds[i])
			sample := make([]float64, len(data))
			for j := range sample {
				sample[j] = data[r.IntN(len(data))]
			}
			fit, err := EM(ctx, r, sample, k, bounds, opts)
			if err != nil {
				var me *ModelError
				if errors.As(err, &me) {
					return nil
				}
				return err
			}
			fit.Identify()
			fits[i] = &fit.Model
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Intervals{}, err
	}

	var ok []*Model
	for _, m := range fits {
		if m != nil {
			ok = append(ok, m)
		}
	}
	if len(ok) < 2 {
		return Intervals{}, modelErrorf("only %d of %d bootstrap samples could be fitted", len(ok), samples)
	}

	alpha := normPPF(1 - (1-level)/2)
	ci := Intervals{
		Level:     level,
		Means:     make([]float64, k),
		Variances: make([]float64, k),
		Weights:   make([]float64, k),
		Samples:   len(ok),
	}
	col := make([]float64, len(ok))
	for j := 0; j < k; j++ {
		for i, m := range ok {
			col[i] = m.Means[j]
		}
		ci.Means[j] = alpha * stddev(col)
		for i, m := range ok {
			col[i] = m.Sigmas[j] * m.Sigmas[j]
		}
		ci.Variances[j] = alpha * stddev(col)
		for i, m := range ok {
			col[i] = m.Weights[j]
		}
		ci.Weights[j] = alpha * stddev(col)
	}
	return ci, nil
}

// stddev is the sample standard deviation of x, with n-1 degrees of freedom.
func stddev(x []float64) float64 {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(x)-1))
}

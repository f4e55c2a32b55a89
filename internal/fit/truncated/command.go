package truncated

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/peers-abm/peers"
	"github.com/peers-abm/peers/internal/dataio"
	"github.com/peers-abm/peers/internal/randx"
)

// Command is the "truncated" command.
type Command struct {
	bounds     []float64
	verbose    bool
	iterations int
	log        bool
	seed       int64
	delim      string
	bootstrap  int
	level      float64
	jobs       int
}

// NewCommand returns a new "truncated" command.
func NewCommand() *Command { return &Command{} }

// Usage implements peers.Usager.
func (c *Command) Usage() string { return "data components" }

// Flags implements peers.Command.
func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.SortFlags = false
	fs.Float64SliceVarP(&c.bounds, "bounds", "b", nil, "truncate data to the interval `a,b` (default: data min and max)")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "print log-likelihood and priors at each iteration")
	fs.IntVar(&c.iterations, "iterations", 100, "maximum number of EM iterations")
	fs.BoolVarP(&c.log, "log", "l", false, "take log of data")
	fs.Int64Var(&c.seed, "seed", -1, "seed of the random number generator (negative: random)")
	fs.StringVarP(&c.delim, "delimiter", "d", ",", "input file delimiter")
	fs.IntVar(&c.bootstrap, "bootstrap", 0, "estimate confidence intervals from `N` bootstrap samples")
	fs.Float64Var(&c.level, "level", 0.95, "confidence level of the bootstrap intervals")
	fs.IntVarP(&c.jobs, "jobs", "j", 0, "number of concurrent bootstrap fits (default: number of CPUs)")
}

// Run implements peers.Command.
func (c *Command) Run(ctx context.Context, env *peers.Env, args []string) error {
	if len(args) != 2 {
		return peers.ArgError("expected 2 arguments (data components), got %d", len(args))
	}
	k, err := strconv.Atoi(args[1])
	if err != nil {
		return peers.ArgError("argument components: invalid int value: '%s'", args[1])
	}
	var bounds *[2]float64
	if c.bounds != nil {
		if len(c.bounds) != 2 {
			return peers.ArgError("argument -b/--bounds: expected 2 values, got %d", len(c.bounds))
		}
		bounds = &[2]float64{c.bounds[0], c.bounds[1]}
	}

	table, err := dataio.ReadFile(args[0], c.delim)
	if err != nil {
		return err
	}
	data := table.Flatten()
	if len(data) == 0 {
		return modelErrorf("%s: no data", args[0])
	}
	if c.log {
		for i, x := range data {
			if x <= 0 {
				return modelErrorf("cannot take log of non-positive value %g", x)
			}
			data[i] = math.Log(x)
		}
	}

	var seed *uint64
	if c.seed >= 0 {
		s := uint64(c.seed)
		seed = &s
	}
	rng := randx.New(seed)

	w := bufio.NewWriter(env.Stdout)
	defer w.Flush()

	opts := DefaultOptions()
	opts.Iterations = c.iterations
	if c.verbose {
		opts.Trace = func(it int, ll float64, weights []float64) {
			fmt.Fprintf(w, "%d) LogLike = %g, Priors = %v\n", it, ll, weights)
		}
	}
	fit, err := EM(ctx, rng, data, k, bounds, opts)
	if err != nil {
		return err
	}
	fit.Identify()
	env.Log.Debug("mixture fitted",
		zap.Int("components", k),
		zap.Int("iterations", len(fit.LogLike)),
		zap.Bool("converged", fit.Converged))

	var ci *Intervals
	if c.bootstrap > 0 {
		iv, err := Bootstrap(ctx, rng, data, k, bounds, opts, c.bootstrap, c.jobs, c.level)
		if err != nil {
			return err
		}
		if iv.Samples < c.bootstrap {
			env.Log.Warn("some bootstrap samples could not be fitted",
				zap.Int("fitted", iv.Samples), zap.Int("samples", c.bootstrap))
		}
		ci = &iv
	}

	WriteFit(w, fit, ci, data)
	return w.Flush()
}

// WriteFit prints the components of fit with their log-normal summaries,
// followed by the fit statistics. data is the sample fit was computed from,
// on the log scale.
func WriteFit(w io.Writer, fit Fit, ci *Intervals, data []float64) {
	fmt.Fprintln(w)
	for i := range fit.Weights {
		m, s := fit.Means[i], fit.Sigmas[i]
		v := s * s
		fmt.Fprintf(w, "Component %d:\n", i+1)
		fmt.Fprintln(w, "---------------")
		fmt.Fprintf(w, "prob. = %g, mean = %g, st.dev = %g\n", fit.Weights[i], m, s)
		if ci != nil {
			fmt.Fprintf(w, "%g%% conf. int.: prob. ± %g, mean ± %g, variance ± %g\n",
				100*ci.Level, ci.Weights[i], ci.Means[i], ci.Variances[i])
		}
		lnvar := (math.Exp(v) - 1) * math.Exp(2*m+v)
		fmt.Fprintf(w, "(Lognorm) mean = %s (1 s.d. = %s)\n",
			FormatDays(math.Exp(m+v/2)), FormatDays(math.Sqrt(lnvar)))
		fmt.Fprintf(w, "(Lognorm) median = %s, mode = %s\n",
			FormatDays(math.Exp(m)), FormatDays(math.Exp(m-v)))
		fmt.Fprintln(w)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range data {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	fmt.Fprintf(w, "Data points: %d\n", len(data))
	fmt.Fprintf(w, "Log-Likelihood: %g\n", fit.LogLike[len(fit.LogLike)-1])
	fmt.Fprintf(w, "Minimum value: %s\n", FormatDays(math.Exp(lo)))
	fmt.Fprintf(w, "Maximum value: %s\n", FormatDays(math.Exp(hi)))
	if ci != nil {
		fmt.Fprintf(w, "Bootstrap samples: %d\n", ci.Samples)
	}
	fmt.Fprintln(w)
	if fit.Converged {
		fmt.Fprintf(w, "EM converged in %d iterations.\n", len(fit.LogLike))
	} else {
		fmt.Fprintln(w, "EM did NOT converge! Try more iterations.")
	}
}

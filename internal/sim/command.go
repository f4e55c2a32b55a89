package sim

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/peers-abm/peers"
)

// Verbosity levels.
const (
	verbosityQuiet = iota
	verbosityNoBanner
	verbosityFull
)

// Command is the "sim" command.
type Command struct {
	p Params

	dryRun      bool
	infoFile    string
	profile     bool
	profileFile string
	noBanner    bool
	quiet       bool
}

// NewCommand returns a Command with the default parameters.
func NewCommand() *Command {
	return &Command{p: DefaultParams()}
}

// Usage implements peers.Usager.
func (c *Command) Usage() string { return "time [seed]" }

// FromFilePrefix implements peers.FromFiler: arguments can be stored in
// files and passed as @file.
func (c *Command) FromFilePrefix() string { return "@" }

// Flags implements peers.Command.
func (c *Command) Flags(fs *pflag.FlagSet) {
	p := &c.p
	fs.SortFlags = false
	nonNegFloatVarP(fs, &p.Transient, "transient", "T", p.Transient, "transient duration in days")
	nonNegFloatVarP(fs, &p.DailySessions, "daily-sessions", "a", p.DailySessions, "daily number of sessions")
	nonNegFloatVarP(fs, &p.HourlyEdits, "hourly-edits", "e", p.HourlyEdits, "hourly number of edits")
	nonNegIntVarP(fs, &p.SessionEdits, "edits", "E", p.SessionEdits, "edits per session")
	nonNegFloatVarP(fs, &p.LongLife, "long-life", "L", p.LongLife, "user long-term lifespan in days")
	nonNegFloatVarP(fs, &p.ShortLife, "short-life", "l", p.ShortLife, "user short-term lifespan in days")
	nonNegIntVarP(fs, &p.NumUsers, "users", "u", p.NumUsers, "initial number of users")
	nonNegIntVarP(fs, &p.NumPages, "pages", "p", p.NumPages, "initial number of pages")
	nonNegFloatVarP(fs, &p.DailyUsers, "daily-users", "U", p.DailyUsers, "daily rate of new users")
	nonNegFloatVarP(fs, &p.DailyPages, "daily-pages", "P", p.DailyPages, "daily rate of new pages")
	fs.Float64VarP(&p.Confidence, "confidence", "c", p.Confidence, "confidence parameter")
	fs.Float64VarP(&p.Speed, "speed", "s", p.Speed, "opinion averaging speed")
	nonNegFloatVarP(fs, &p.ConstSucc, "const-succ", "", p.ConstSucc, "base user successes")
	nonNegFloatVarP(fs, &p.ConstPop, "const-pop", "", p.ConstPop, "base page popularity")
	fs.Float64VarP(&p.RollbackProb, "rollback-prob", "r", p.RollbackProb, "roll-back probability")

	fs.BoolVarP(&c.dryRun, "dry-run", "n", false, "do not simulate, just print parameters defaults")
	fs.StringVarP(&c.infoFile, "info", "i", "", "write simulation information to `FILE`")
	fs.BoolVar(&c.profile, "profile", false, "write a CPU profile")
	fs.StringVar(&c.profileFile, "profile-file", "sim.prof", "store profiling information in `FILE`")
	fs.BoolVar(&c.noBanner, "no-banner", false, "do not print banner")
	fs.BoolVarP(&c.quiet, "quiet", "q", false, "do not print the banner nor timings")
}

func (c *Command) verbosity() int {
	switch {
	case c.quiet:
		return verbosityQuiet
	case c.noBanner:
		return verbosityNoBanner
	}
	return verbosityFull
}

func (c *Command) parseArgs(args []string) error {
	if len(args) < 1 {
		return peers.ArgError("the following arguments are required: time")
	}
	if len(args) > 2 {
		return peers.ArgError("unrecognized arguments: %s", strings.Join(args[2:], " "))
	}
	t, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return peers.ArgError("argument time: invalid float value: '%s'", args[0])
	}
	c.p.Time = t
	if len(args) == 2 {
		seed, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return peers.ArgError("argument seed: invalid non-negative int value: '%s'", args[1])
		}
		c.p.Seed = &seed
	}
	return nil
}

// Run implements peers.Command.
func (c *Command) Run(ctx context.Context, env *peers.Env, args []string) error {
	if err := c.parseArgs(args); err != nil {
		return err
	}
	if err := c.p.Check(); err != nil {
		return err
	}
	for _, w := range c.p.Warnings() {
		env.Log.Warn("parameter warning", zap.String("warning", w))
	}
	if c.verbosity() > verbosityNoBanner {
		c.p.WriteBanner(env.Stderr, env.Width, c.infoFile)
	}
	if c.dryRun {
		return nil
	}

	s := New(c.p)
	s.Edits = env.Stdout
	if c.infoFile != "" {
		f, err := os.Create(c.infoFile)
		if err != nil {
			return errors.Wrap(err, "info file")
		}
		defer f.Close()
		s.Info = f
	}

	if c.profile {
		f, err := os.Create(c.profileFile)
		if err != nil {
			return errors.Wrap(err, "profile file")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "start profile")
		}
		defer func() {
			pprof.StopCPUProfile()
			fmt.Fprintf(env.Stderr, "profiling data saved in %s\n", c.profileFile)
		}()
	}

	return c.simulate(ctx, env, s)
}

func (c *Command) simulate(ctx context.Context, env *peers.Env, s *Simulation) error {
	if c.p.Transient > 0 {
		start := time.Now()
		n, err := s.Run(ctx, 0, c.p.Transient, false)
		if err != nil {
			return err
		}
		c.report(env, "Transient", n, time.Since(start))
	}

	start := time.Now()
	n, err := s.Run(ctx, c.p.Transient, c.p.Transient+c.p.Time, true)
	if err != nil {
		return err
	}
	c.report(env, "Simulation", n, time.Since(start))
	env.Log.Debug("simulation finished",
		zap.Int("edits", n),
		zap.Int("users", len(s.Users())),
		zap.Int("pages", len(s.Pages())))
	return nil
}

func (c *Command) report(env *peers.Env, phase string, n int, d time.Duration) {
	if c.verbosity() < verbosityNoBanner {
		return
	}
	secs := d.Seconds()
	rate := 0.0
	if secs > 0 {
		rate = float64(n) / secs
	}
	fmt.Fprintf(env.Stderr, "%s done in %.2gs (%g events/s)\n", phase, secs, rate)
}

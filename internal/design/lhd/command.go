package lhd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/peers-abm/peers"
	"github.com/peers-abm/peers/internal/randx"
)

// Command is the "lhd" command.
type Command struct {
	ranges  []string
	num     int
	maximin bool
	seed    int64
	delim   string
}

// NewCommand returns a new "lhd" command.
func NewCommand() *Command { return &Command{} }

// Usage implements peers.Usager.
func (c *Command) Usage() string { return "m n" }

// Flags implements peers.Command.
func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&c.ranges, "range", "r", nil, "map centres into the interval `a,b` (once per dimension)")
	fs.IntVar(&c.num, "num", 1, "number of designs to generate")
	fs.BoolVar(&c.maximin, "maximin", false, "print only the design with the largest minimum distance")
	fs.Int64Var(&c.seed, "seed", -1, "seed of the random number generator (negative: random)")
	fs.StringVarP(&c.delim, "delimiter", "d", " ", "output field delimiter")
}

func parseRange(s string) (Range, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Range{}, peers.ArgError("argument -r/--range: expected a,b, got '%s'", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Range{}, peers.ArgError("argument -r/--range: invalid float value: '%s'", parts[0])
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Range{}, peers.ArgError("argument -r/--range: invalid float value: '%s'", parts[1])
	}
	return Range{Min: a, Max: b}, nil
}

// Run implements peers.Command.
func (c *Command) Run(ctx context.Context, env *peers.Env, args []string) error {
	if len(args) != 2 {
		return peers.ArgError("expected 2 arguments (m n), got %d", len(args))
	}
	m, err := strconv.Atoi(args[0])
	if err != nil {
		return peers.ArgError("argument m: invalid int value: '%s'", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return peers.ArgError("argument n: invalid int value: '%s'", args[1])
	}

	var ranges []Range
	for _, s := range c.ranges {
		r, err := parseRange(s)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}

	var seed *uint64
	if c.seed >= 0 {
		s := uint64(c.seed)
		seed = &s
	}
	rng := randx.New(seed)

	if err := validateNum(c.num); err != nil {
		return err
	}

	var designs []Design
	switch {
	case c.maximin:
		d, err := Maximin(ctx, rng, m, n, c.num, ranges)
		if err != nil {
			return err
		}
		designs = append(designs, d)
	default:
		for i := 0; i < c.num; i++ {
			d, err := Generate(rng, m, n, ranges)
			if err != nil {
				return err
			}
			designs = append(designs, d)
		}
	}
	env.Log.Debug("designs generated", zap.Int("count", len(designs)), zap.Int("dims", m), zap.Int("points", n))

	w := bufio.NewWriter(env.Stdout)
	for i, d := range designs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		Write(w, d, c.delim)
	}
	return w.Flush()
}

// Write prints the points of d, one per line, followed by a comment line
// holding the minimum distance.
func Write(w *bufio.Writer, d Design, delim string) {
	for _, p := range d.Points {
		for j, x := range p {
			if j > 0 {
				w.WriteString(delim)
			}
			w.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		w.WriteByte('\n')
	}
	fmt.Fprintf(w, "# min-dist: %g\n", d.MinDist)
}

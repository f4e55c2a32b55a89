package regression

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/peers-abm/peers"
	"github.com/peers-abm/peers/internal/dataio"
)

// Command is the "regression" command.
type Command struct {
	paramsFile string
	delim      string
	withError  bool
}

// NewCommand returns a new "regression" command.
func NewCommand() *Command { return &Command{} }

// Usage implements peers.Usager.
func (c *Command) Usage() string { return "FILE" }

// Flags implements peers.Command.
func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.paramsFile, "parameters", "p", "", "read comma-separated list of parameter names from `FILE`")
	fs.StringVarP(&c.delim, "delimiter", "d", ",", "input data fields are separated by `CHAR`")
	fs.BoolVarP(&c.withError, "with-error", "e", false, "interpret the last field as measurement standard errors")
}

// Run implements peers.Command.
func (c *Command) Run(ctx context.Context, env *peers.Env, args []string) error {
	if len(args) != 1 {
		return peers.ArgError("expected one data file, got %d arguments", len(args))
	}
	data, err := dataio.ReadFile(args[0], c.delim)
	if err != nil {
		return err
	}
	x, y, _, err := data.Split(1, c.withError)
	if err != nil {
		return err
	}
	if x.Cols() == 0 {
		return errors.New("data file has no input columns")
	}

	names, err := c.names(x.Cols())
	if err != nil {
		return err
	}

	res, err := SRC(x, y.Column(0))
	if err != nil {
		return err
	}
	env.Log.Debug("regression fitted", zap.Int("observations", res.N), zap.Float64("r2", res.R2))
	return Write(env.Stdout, names, res)
}

func (c *Command) names(k int) ([]string, error) {
	names := make([]string, k)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i+1)
	}
	if c.paramsFile == "" {
		return names, nil
	}

	f, err := os.Open(c.paramsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrap(err, c.paramsFile)
		}
		return nil, errors.Errorf("%s: no parameter names", c.paramsFile)
	}
	fields := strings.Split(strings.TrimSpace(sc.Text()), ",")
	if len(fields) != k {
		return nil, errors.Errorf("%s: expected %d parameter names, got %d", c.paramsFile, k, len(fields))
	}
	for i, f := range fields {
		names[i] = strings.TrimSpace(f)
	}
	return names, nil
}

// Write prints the coefficient table.
func Write(w io.Writer, names []string, res Result) error {
	fmt.Fprintf(w, "Standardized regression coefficients (N = %d, R-squared = %.3f)\n\n", res.N, res.R2)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tcoef\tstd err\tt\t")
	for i, name := range names {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.3f\t\n", name, res.Coef[i], res.StdErr[i], res.T[i])
	}
	return tw.Flush()
}

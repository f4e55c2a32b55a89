package peers

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Usager may be implemented by a Command to describe its positional
// arguments in usage messages, e.g. "time [seed]".
type Usager interface {
	Usage() string
}

// FromFiler may be implemented by a Command whose arguments can be read from
// files: an argument starting with the returned prefix is replaced by the
// white-space separated tokens of the named file.
type FromFiler interface {
	FromFilePrefix() string
}

// Dispatcher routes a command line to one of the commands of a Registry.
type Dispatcher struct {
	// The program name used in usage and error messages.
	Prog string

	// Text printed under the usage line of the top-level help.
	Description string

	Registry *Registry

	Stdout io.Writer
	Stderr io.Writer

	// Width overrides the detected terminal width when positive.
	Width int

	// Debug is the default of the -D/--debug flag.
	Debug bool

	// LogLevel is used to build a logger when Log is nil.
	LogLevel string
	Log      *zap.Logger

	// Signals that interrupt a running command. Defaults to SIGINT and
	// SIGTERM.
	Signals []os.Signal
}

// New returns a Dispatcher for r that writes to the standard streams and
// takes its defaults from cfg.
func New(prog, description string, r *Registry, cfg Config) *Dispatcher {
	return &Dispatcher{
		Prog:        prog,
		Description: description,
		Registry:    r,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Width:       cfg.Width(),
		Debug:       cfg.Debug,
		LogLevel:    cfg.LogLevel,
	}
}

type topFlags struct {
	help  bool
	debug bool
}

func (d *Dispatcher) flagSet(tf *topFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(d.Prog, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	fs.BoolVarP(&tf.help, "help", "h", false, "show this help message and exit")
	fs.BoolVarP(&tf.debug, "debug", "D", d.Debug, "do not mask errors raised by commands")
	return fs
}

func (d *Dispatcher) usage() string {
	return fmt.Sprintf("usage: %s [-h] [-D] command ...", d.Prog)
}

func (d *Dispatcher) width() int {
	if d.Width > 0 {
		return clampWidth(d.Width)
	}
	return clampWidth(TerminalWidth())
}

// PrintHelp writes the top-level help: the usage line, the description, the
// registered commands and the top-level options.
func (d *Dispatcher) PrintHelp(w io.Writer) error {
	width := d.width()
	fmt.Fprintln(w, d.usage())
	if d.Description != "" {
		fmt.Fprintln(w)
		for _, l := range Wrap(d.Description, width) {
			fmt.Fprintln(w, l)
		}
	}
	fmt.Fprintln(w, "\ncommands:")
	if err := WriteCommands(w, d.Registry, width); err != nil {
		return err
	}
	fmt.Fprintln(w, "\noptions:")
	var tf topFlags
	_, err := io.WriteString(w, d.flagSet(&tf).FlagUsagesWrapped(width))
	return err
}

// Run parses args, which must not include the program name, and runs the
// selected command.
//
// The returned error is nil on success. Help requests and explicit exits are
// reported as *ExitError, problems with the command line (including masked
// command errors) as *UsageError and interruptions as ErrInterrupted. When
// debugging is enabled, errors returned by the command come back unchanged
// and panics are re-raised after the stack of the panicking command is
// written to Stderr.
func (d *Dispatcher) Run(ctx context.Context, args []string) error {
	var tf topFlags
	fs := d.flagSet(&tf)
	if err := fs.Parse(args); err != nil {
		return d.usageError(err)
	}
	if tf.help {
		if err := d.PrintHelp(d.Stdout); err != nil {
			return err
		}
		return Exit(2)
	}
	if fs.NArg() == 0 {
		return d.usageError(errors.New("the following arguments are required: command"))
	}

	name := fs.Arg(0)
	rest := append([]string(nil), fs.Args()[1:]...)

	entry, ok := d.Registry.Lookup(name)
	if !ok {
		return d.usageError(&UnknownCommandError{Name: name, Known: d.Registry.Names()})
	}

	log := d.Log
	if log == nil {
		l, err := NewLogger(tf.debug, d.LogLevel)
		if err != nil {
			return d.usageError(err)
		}
		log = l
		defer func() { _ = log.Sync() }()
	}
	log = log.With(zap.String("command", name))

	cmd, err := resolve(entry)
	if err != nil {
		log.Debug("resolve failed", zap.Error(err))
		return d.usageError(err)
	}

	width := d.width()
	cfs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	cfs.SetOutput(io.Discard)
	cfs.Usage = func() {}
	cmd.Flags(cfs)
	cmdUsage := d.commandUsage(name, cmd)
	parseArgs := rest
	if ff, ok := cmd.(FromFiler); ok {
		expanded, err := ExpandArgFiles(parseArgs, ff.FromFilePrefix())
		if err != nil {
			return &UsageError{Prog: d.Prog + " " + name, Usage: cmdUsage, Err: err}
		}
		parseArgs = expanded
	}
	if err := cfs.Parse(parseArgs); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			d.printCommandHelp(d.Stdout, cmdUsage, entry, cfs, width)
			return Exit(0)
		}
		return &UsageError{Prog: d.Prog + " " + name, Usage: cmdUsage, Err: err}
	}

	env := &Env{
		Stdout: d.Stdout,
		Stderr: d.Stderr,
		Log:    log,
		Width:  width,
		Debug:  tf.debug,
	}
	log.Debug("dispatching", zap.Strings("args", rest))

	res, err := d.run(ctx, cmd, env, cfs.Args())
	if err != nil {
		log.Debug("interrupted")
		return err
	}
	if res.panicked {
		if tf.debug {
			fmt.Fprintf(d.Stderr, "panic in command %s: %v\n\n%s\n", name, res.value, res.stack)
			panic(res.value)
		}
		res.err = &PanicError{Value: res.value}
	}
	if res.err == nil {
		return nil
	}

	var (
		exit  *ExitError
		usage *UsageError
	)
	if errors.As(res.err, &exit) {
		return exit
	}
	if errors.As(res.err, &usage) {
		if usage.Prog == "" {
			usage.Prog = d.Prog + " " + name
			usage.Usage = cmdUsage
		}
		return usage
	}
	if tf.debug {
		return res.err
	}
	log.Debug("masking command error", zap.Error(res.err))
	return d.usageError(&SubmoduleRuntimeError{Name: name, Kind: Kind(res.err), Err: res.err})
}

type result struct {
	err      error
	panicked bool
	value    interface{}

	// stack is the trace of the command's goroutine at the panic site.
	stack []byte
}

// run calls cmd.Run on its own goroutine so that an interrupt ends the
// dispatch even when the command does not watch its context.
func (d *Dispatcher) run(ctx context.Context, cmd Command, env *Env, args []string) (result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := d.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, signals...)
	defer signal.Stop(sig)

	done := make(chan result, 1)
	go func() {
		var res result
		defer func() {
			if p := recover(); p != nil {
				res = result{panicked: true, value: p, stack: debug.Stack()}
			}
			done <- res
		}()
		res.err = cmd.Run(ctx, env, args)
	}()

	select {
	case res := <-done:
		if ctx.Err() != nil {
			return result{}, ErrInterrupted
		}
		select {
		case <-sig:
			return result{}, ErrInterrupted
		default:
		}
		return res, nil
	case <-sig:
		return result{}, ErrInterrupted
	case <-ctx.Done():
		return result{}, ErrInterrupted
	}
}

func resolve(e Entry) (cmd Command, err error) {
	if e.New == nil {
		return nil, &ModuleResolutionError{Name: e.Name, Err: errors.New("no constructor")}
	}
	defer func() {
		if p := recover(); p != nil {
			cmd, err = nil, &ModuleResolutionError{Name: e.Name, Err: errors.Errorf("%v", p)}
		}
	}()
	cmd = e.New()
	if cmd == nil {
		return nil, &ModuleResolutionError{Name: e.Name, Err: errors.New("constructor returned nil")}
	}
	return cmd, nil
}

func (d *Dispatcher) usageError(err error) error {
	return &UsageError{Prog: d.Prog, Usage: d.usage(), Err: err}
}

func (d *Dispatcher) commandUsage(name string, cmd Command) string {
	s := fmt.Sprintf("usage: %s %s [options]", d.Prog, name)
	if u, ok := cmd.(Usager); ok && u.Usage() != "" {
		s += " " + u.Usage()
	}
	return s
}

func (d *Dispatcher) printCommandHelp(w io.Writer, usage string, e Entry, fs *pflag.FlagSet, width int) {
	fmt.Fprintln(w, usage)
	if e.Description != "" {
		fmt.Fprintln(w)
		for _, l := range Wrap(e.Description, width) {
			fmt.Fprintln(w, l)
		}
	}
	if fs.HasFlags() {
		fmt.Fprintln(w, "\noptions:")
		fmt.Fprint(w, fs.FlagUsagesWrapped(width))
	}
}

// Main runs args and reports the outcome on the dispatcher's streams. It
// returns the process exit status: 0 on success, 1 when interrupted or when
// an unmasked error reaches it, 2 for help and usage errors.
func (d *Dispatcher) Main(ctx context.Context, args []string) int {
	return d.Report(d.Run(ctx, args))
}

// Report prints err the way Main does and returns the matching exit status.
func (d *Dispatcher) Report(err error) int {
	if err == nil {
		return 0
	}

	var (
		exit  *ExitError
		usage *UsageError
	)
	switch {
	case errors.Is(err, ErrInterrupted):
		fmt.Fprintln(d.Stderr, "Cancelled by user")
		return 1
	case errors.As(err, &exit):
		return exit.Code
	case errors.As(err, &usage):
		fmt.Fprintln(d.Stderr, usage.Usage)
		fmt.Fprintf(d.Stderr, "%s: error: %s\n", usage.Prog, usage.Err)
		return 2
	}
	fmt.Fprintf(d.Stderr, "%+v\n", err)
	return 1
}

package peers

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Command is the capability every registered command provides.
type Command interface {
	// Flags registers the command's options on fs. It is called once, on a
	// fresh flag set, before the remaining arguments are parsed.
	Flags(fs *pflag.FlagSet)

	// Run executes the command. args holds the positional arguments left
	// over after flag parsing.
	Run(ctx context.Context, env *Env, args []string) error
}

// Env is what the dispatcher hands to a running command.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.Logger

	// Width of the terminal in columns.
	Width int

	// Debug is set when error masking is disabled.
	Debug bool
}

// PanicError carries the value of a recovered panic.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string { return fmt.Sprint(e.Value) }

// Kind implements the interface consulted by Kind.
func (e *PanicError) Kind() string { return "Panic" }

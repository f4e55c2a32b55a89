package peers

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// UnknownCommandError is returned when the command token does not name a
// registered command.
type UnknownCommandError struct {
	Name  string
	Known []string
}

func (e *UnknownCommandError) Error() string {
	quoted := make([]string, len(e.Known))
	for i, n := range e.Known {
		quoted[i] = fmt.Sprintf("'%s'", n)
	}
	return fmt.Sprintf("argument command: invalid choice: '%s' (choose from %s)",
		e.Name, strings.Join(quoted, ", "))
}

// ModuleResolutionError is returned when a registered entry cannot produce
// its Command.
type ModuleResolutionError struct {
	Name string
	Err  error
}

func (e *ModuleResolutionError) Error() string {
	return fmt.Sprintf("cannot load command %q: %v", e.Name, e.Err)
}

func (e *ModuleResolutionError) Unwrap() error { return e.Err }

// SubmoduleRuntimeError is the masked form of an error raised while a command
// was running.
type SubmoduleRuntimeError struct {
	Name string
	Kind string
	Err  error
}

func (e *SubmoduleRuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *SubmoduleRuntimeError) Unwrap() error { return e.Err }

// UsageError is reported together with the usage line of the program (or of
// the command named by Prog) and leads to exit status 2.
type UsageError struct {
	Prog  string
	Usage string
	Err   error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// ExitError asks the dispatcher to end the process with Code. It is never
// masked.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// Exit returns an *ExitError for code.
func Exit(code int) error { return &ExitError{Code: code} }

// ErrInterrupted is returned by the dispatcher when the command was stopped
// by a signal.
var ErrInterrupted = errors.New("interrupted")

// Kind returns a short name describing err for masked error reports. An error
// implementing
//
//	interface{ Kind() string }
//
// anywhere in its chain names itself; otherwise the exported type name of the
// root cause is used, falling back to "Error".
func Kind(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	t := reflect.TypeOf(errors.Cause(err))
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "Error"
	}
	name := t.Name()
	if r := []rune(name); !unicode.IsUpper(r[0]) {
		return "Error"
	}
	return name
}

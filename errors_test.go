package peers

import (
	"io/fs"
	"os"
	"testing"

	"github.com/pkg/errors"
)

type kindedError struct{}

func (kindedError) Error() string { return "kinded" }
func (kindedError) Kind() string  { return "ValueError" }

type ParseFailure struct{ Msg string }

func (e *ParseFailure) Error() string { return e.Msg }

func TestKind(t *testing.T) {
	_, statErr := os.Stat("/does/not/exist")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"kind method", kindedError{}, "ValueError"},
		{"wrapped kind method", errors.Wrap(kindedError{}, "context"), "ValueError"},
		{"exported type", &ParseFailure{Msg: "bad"}, "ParseFailure"},
		{"wrapped exported type", errors.Wrap(&ParseFailure{Msg: "bad"}, "context"), "ParseFailure"},
		{"path error", statErr, "PathError"},
		{"unexported type", errors.New("plain"), "Error"},
		{"panic", &PanicError{Value: 42}, "Panic"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("%s: Kind = %q, want %q", tt.name, got, tt.want)
		}
	}
	if !errors.Is(statErr, fs.ErrNotExist) {
		t.Fatal("unexpected stat error")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&UnknownCommandError{Name: "x", Known: []string{"a", "b"}}, "argument command: invalid choice: 'x' (choose from 'a', 'b')"},
		{&ModuleResolutionError{Name: "sim", Err: errors.New("no constructor")}, `cannot load command "sim": no constructor`},
		{&SubmoduleRuntimeError{Name: "sim", Kind: "ValueError", Err: errors.Wrap(errors.New("bad value"), "check")}, "ValueError: check: bad value"},
		{Exit(3), "exit status 3"},
		{&PanicError{Value: "oops"}, "oops"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

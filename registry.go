package peers

import (
	"sort"

	"github.com/pkg/errors"
)

// Entry describes a registered command.
type Entry struct {
	// The name of the command, as typed on the command line.
	Name string

	// A brief, single line description of the command.
	Description string

	// New returns the Command to run. A new value is requested for every
	// dispatch so flag values never leak between runs.
	New func() Command
}

// Registry is a read-only table of commands, keyed by name.
type Registry struct {
	entries map[string]Entry
	names   []string
}

// NewRegistry builds a Registry from entries. It fails if a name is empty or
// used more than once.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, errors.New("cannot register nameless command")
		}
		if _, ok := r.entries[e.Name]; ok {
			return nil, errors.Errorf("command %s already registered", e.Name)
		}
		r.entries[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. It is meant for
// package-level tables.
func MustRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the registered names in lexicographic order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.names) }

package peers

import (
	"os"

	"golang.org/x/term"
)

const (
	// DefaultWidth is used when the terminal size cannot be determined.
	DefaultWidth = 80

	// MinWidth is the narrowest width the help renderer supports.
	MinWidth = 40
)

// TerminalWidth returns the number of columns of the terminal attached to
// standard output (or, failing that, standard error). It returns DefaultWidth
// when neither is a terminal.
func TerminalWidth() int {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		fd := int(f.Fd())
		if !term.IsTerminal(fd) {
			continue
		}
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return DefaultWidth
}

func clampWidth(w int) int {
	if w < MinWidth {
		return MinWidth
	}
	return w
}

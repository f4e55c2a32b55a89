package peers

import (
	"io"
	"strings"
	"unicode/utf8"
)

const (
	helpIndent    = "  "
	helpSeparator = "  "
)

// Wrap breaks text into lines of at most width characters. Words longer than
// width are split.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	var (
		lines []string
		line  strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			lines = append(lines, line.String())
			line.Reset()
			n = 0
		}
	}
	for _, word := range strings.Fields(text) {
		r := []rune(word)
		for len(r) > width {
			flush()
			lines = append(lines, string(r[:width]))
			r = r[width:]
		}
		if len(r) == 0 {
			continue
		}
		if n > 0 {
			if n+1+len(r) > width {
				flush()
			} else {
				line.WriteByte(' ')
				n++
			}
		}
		line.WriteString(string(r))
		n += len(r)
	}
	flush()
	return lines
}

// WriteCommands prints every command in r, sorted by name, with its
// description wrapped so that no line is wider than width. Continuation lines
// are aligned under the first line of the description. The name column takes
// at most half of the line; a name that does not fit in it is printed on a
// line of its own and its description starts on the next one.
func WriteCommands(w io.Writer, r *Registry, width int) error {
	names := r.Names()

	col := 0
	for _, name := range names {
		if n := utf8.RuneCountInString(name); n > col {
			col = n
		}
	}
	col++

	avail := width - len(helpIndent) - len(helpSeparator)
	col = max(min(col, avail/2), 1)
	descWidth := max(avail-col, 1)
	pad := strings.Repeat(" ", len(helpIndent)+col+len(helpSeparator))

	var b strings.Builder
	for _, name := range names {
		e, _ := r.Lookup(name)
		lines := Wrap(e.Description, descWidth)

		if n := utf8.RuneCountInString(name); n < col {
			b.WriteString(helpIndent + name)
			if len(lines) > 0 {
				b.WriteString(strings.Repeat(" ", col-n) + helpSeparator + lines[0])
				lines = lines[1:]
			}
			b.WriteByte('\n')
		} else {
			for _, l := range Wrap(name, width-len(helpIndent)) {
				b.WriteString(helpIndent + l + "\n")
			}
		}
		for _, l := range lines {
			b.WriteString(pad + l + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

package peers

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ArgError returns a usage error for the running command. The dispatcher
// reports it with the command's usage line, as it does for flag errors.
func ArgError(format string, args ...interface{}) error {
	return &UsageError{Err: errors.Errorf(format, args...)}
}

// ExpandArgFiles replaces every argument that starts with prefix by the
// arguments read from the file it names, one per line. Lines are taken
// verbatim, spaces included, and blank lines are skipped. Files may
// themselves refer to other files. Arguments after "--" are left alone.
func ExpandArgFiles(args []string, prefix string) ([]string, error) {
	return expandArgFiles(args, prefix, 0)
}

const maxArgFileDepth = 16

func expandArgFiles(args []string, prefix string, depth int) ([]string, error) {
	if prefix == "" {
		return args, nil
	}
	if depth > maxArgFileDepth {
		return nil, errors.New("argument files nested too deeply")
	}
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			out = append(out, args[i:]...)
			break
		}
		if !strings.HasPrefix(a, prefix) || len(a) == len(prefix) {
			out = append(out, a)
			continue
		}
		path := a[len(prefix):]
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "can't open '%s'", path)
		}
		nested, err := expandArgFiles(argLines(string(data)), prefix, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func argLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

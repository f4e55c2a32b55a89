// Package dataio reads the delimited numeric text files consumed by the
// analysis commands.
package dataio

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Table is a rectangular matrix of observations, one row per line.
type Table [][]float64

// ReadTable parses r. Fields are separated by delim; an empty delimiter or a
// single space splits on runs of white space. Blank lines and lines starting
// with '#' are skipped. Every row must have the same number of fields.
func ReadTable(r io.Reader, delim string) (Table, error) {
	var records [][]string
	if strings.TrimSpace(delim) == "" {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "read")
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			records = append(records, strings.Fields(line))
		}
	} else {
		comma, size := utf8.DecodeRuneInString(delim)
		if size != len(delim) {
			return nil, errors.Errorf("delimiter must be a single character, got %q", delim)
		}
		cr := csv.NewReader(r)
		cr.Comma = comma
		cr.Comment = '#'
		cr.TrimLeadingSpace = true
		cr.FieldsPerRecord = -1
		var err error
		records, err = cr.ReadAll()
		if err != nil {
			return nil, errors.Wrap(err, "parse")
		}
	}

	t := make(Table, 0, len(records))
	for i, rec := range records {
		if len(t) > 0 && len(rec) != len(t[0]) {
			return nil, errors.Errorf("line %d: expected %d fields, got %d", i+1, len(t[0]), len(rec))
		}
		row := make([]float64, len(rec))
		for j, f := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d, field %d", i+1, j+1)
			}
			row[j] = v
		}
		t = append(t, row)
	}
	return t, nil
}

// ReadFile opens path and reads it with ReadTable.
func ReadFile(path, delim string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadTable(f, delim)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return t, nil
}

// Cols returns the number of columns, or 0 for an empty table.
func (t Table) Cols() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Column returns a copy of column j.
func (t Table) Column(j int) []float64 {
	out := make([]float64, len(t))
	for i, row := range t {
		out[i] = row[j]
	}
	return out
}

// Slice returns a copy of columns [from, to).
func (t Table) Slice(from, to int) Table {
	out := make(Table, len(t))
	for i, row := range t {
		out[i] = append([]float64(nil), row[from:to]...)
	}
	return out
}

// Flatten returns all values in row-major order.
func (t Table) Flatten() []float64 {
	out := make([]float64, 0, len(t)*t.Cols())
	for _, row := range t {
		out = append(out, row...)
	}
	return out
}

// Split separates input variables from responses: the last responses
// columns are the responses. When withErrors is set each response column is
// followed by its standard error, returned in ye.
func (t Table) Split(responses int, withErrors bool) (x, y, ye Table, err error) {
	tail := responses
	if withErrors {
		tail *= 2
	}
	if responses < 1 || t.Cols() < tail {
		return nil, nil, nil, errors.Errorf("expecting at least %d columns, got %d", tail, t.Cols())
	}
	x = t.Slice(0, t.Cols()-tail)
	if !withErrors {
		return x, t.Slice(t.Cols()-tail, t.Cols()), nil, nil
	}
	y = make(Table, len(t))
	ye = make(Table, len(t))
	for i, row := range t {
		rest := row[len(row)-tail:]
		for k := 0; k < responses; k++ {
			y[i] = append(y[i], rest[2*k])
			ye[i] = append(ye[i], rest[2*k+1])
		}
	}
	return x, y, ye, nil
}

package sim

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var errNegative = errors.New("must be non-negative")

// nonNegFloat is a float64 flag that rejects negative values.
type nonNegFloat float64

func newNonNegFloat(val float64, p *float64) *nonNegFloat {
	*p = val
	return (*nonNegFloat)(p)
}

func (f *nonNegFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if v < 0 {
		return errNegative
	}
	*f = nonNegFloat(v)
	return nil
}

func (f *nonNegFloat) Type() string { return "float" }

func (f *nonNegFloat) String() string { return strconv.FormatFloat(float64(*f), 'g', -1, 64) }

// nonNegInt is an int flag that rejects negative values.
type nonNegInt int

func newNonNegInt(val int, p *int) *nonNegInt {
	*p = val
	return (*nonNegInt)(p)
}

func (i *nonNegInt) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < 0 {
		return errNegative
	}
	*i = nonNegInt(v)
	return nil
}

func (i *nonNegInt) Type() string { return "int" }

func (i *nonNegInt) String() string { return strconv.Itoa(int(*i)) }

func nonNegFloatVarP(fs *pflag.FlagSet, p *float64, name, short string, value float64, usage string) {
	fs.VarP(newNonNegFloat(value, p), name, short, usage)
}

func nonNegIntVarP(fs *pflag.FlagSet, p *int, name, short string, value int, usage string) {
	fs.VarP(newNonNegInt(value, p), name, short, usage)
}

// Package regression computes sensitivity indices as standardized linear
// regression coefficients (SRC): inputs and response are centred and scaled
// to unit variance, and the least squares coefficients of the response on
// the inputs measure how much each input drives the output.
package regression

import (
	"math"

	"github.com/pkg/errors"
)

// Result holds the fitted coefficients.
type Result struct {
	Coef   []float64
	StdErr []float64
	T      []float64

	// R2 is the coefficient of determination.
	R2 float64

	// N is the number of observations.
	N int
}

// Standardize scales x in place to zero mean and unit (population)
// variance.
func Standardize(x []float64) error {
	if len(x) == 0 {
		return errors.New("empty column")
	}
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / float64(len(x)))
	if sd == 0 {
		return errors.New("zero variance")
	}
	for i := range x {
		x[i] = (x[i] - mean) / sd
	}
	return nil
}

// SRC standardizes the columns of x and y and fits the response by least
// squares. x holds one row per observation.
func SRC(x [][]float64, y []float64) (Result, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return Result{}, errors.Errorf("expected as many observations as responses, got %d and %d", n, len(y))
	}
	k := len(x[0])
	if k == 0 {
		return Result{}, errors.New("no input variables")
	}
	if n <= k {
		return Result{}, errors.Errorf("need more than %d observations, got %d", k, n)
	}

	cols := make([][]float64, k)
	for j := range cols {
		cols[j] = make([]float64, n)
		for i := range x {
			cols[j][i] = x[i][j]
		}
		if err := Standardize(cols[j]); err != nil {
			return Result{}, errors.Wrapf(err, "input %d", j+1)
		}
	}
	ys := append([]float64(nil), y...)
	if err := Standardize(ys); err != nil {
		return Result{}, errors.Wrap(err, "response")
	}
	return OLS(cols, ys)
}

// OLS fits y on the columns cols without intercept.
func OLS(cols [][]float64, y []float64) (Result, error) {
	k, n := len(cols), len(y)

	xtx := make([][]float64, k)
	xty := make([]float64, k)
	for a := 0; a < k; a++ {
		xtx[a] = make([]float64, k)
		for b := 0; b < k; b++ {
			xtx[a][b] = dot(cols[a], cols[b])
		}
		xty[a] = dot(cols[a], y)
	}
	inv, err := invert(xtx)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Coef:   make([]float64, k),
		StdErr: make([]float64, k),
		T:      make([]float64, k),
		N:      n,
	}
	for a := 0; a < k; a++ {
		for b := 0; b < k; b++ {
			res.Coef[a] += inv[a][b] * xty[b]
		}
	}

	var rss, tss float64
	for i := 0; i < n; i++ {
		var fit float64
		for a := 0; a < k; a++ {
			fit += res.Coef[a] * cols[a][i]
		}
		rss += (y[i] - fit) * (y[i] - fit)
		tss += y[i] * y[i]
	}
	if tss > 0 {
		res.R2 = 1 - rss/tss
	}
	sigma2 := rss / float64(n-k)
	for a := 0; a < k; a++ {
		res.StdErr[a] = math.Sqrt(sigma2 * inv[a][a])
		if res.StdErr[a] > 0 {
			res.T[a] = res.Coef[a] / res.StdErr[a]
		} else {
			res.T[a] = math.Inf(1)
		}
	}
	return res, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// invert returns the inverse of the square matrix m by Gauss-Jordan
// elimination with partial pivoting. m is left untouched.
func invert(m [][]float64) ([][]float64, error) {
	k := len(m)
	a := make([][]float64, k)
	for i := range m {
		a[i] = make([]float64, 2*k)
		copy(a[i], m[i])
		a[i][k+i] = 1
	}
	for c := 0; c < k; c++ {
		p := c
		for r := c + 1; r < k; r++ {
			if math.Abs(a[r][c]) > math.Abs(a[p][c]) {
				p = r
			}
		}
		if math.Abs(a[p][c]) < 1e-12 {
			return nil, errors.New("inputs are collinear")
		}
		a[c], a[p] = a[p], a[c]
		pivot := a[c][c]
		for j := range a[c] {
			a[c][j] /= pivot
		}
		for r := 0; r < k; r++ {
			if r == c || a[r][c] == 0 {
				continue
			}
			f := a[r][c]
			for j := range a[r] {
				a[r][j] -= f * a[c][j]
			}
		}
	}
	inv := make([][]float64, k)
	for i := range a {
		inv[i] = a[i][k:]
	}
	return inv, nil
}

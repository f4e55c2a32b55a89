// Package truncated fits mixtures of univariate normal distributions
// truncated to a common interval, using the EM algorithm.
package truncated

import "math"

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

func normPDF(x float64) float64 {
	if math.IsInf(x, 0) {
		return 0
	}
	return invSqrt2Pi * math.Exp(-x*x/2)
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normPPF is the quantile function of the standard normal.
func normPPF(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

// PDF is the density at x of a normal with parameters mu and sigma truncated
// to [lo, hi].
func PDF(x, mu, sigma, lo, hi float64) float64 {
	z := (x - mu) / sigma
	l := (lo - mu) / sigma
	u := (hi - mu) / sigma
	if z < l || z > u {
		return 0
	}
	c := normCDF(u) - normCDF(l)
	return normPDF(z) / (c * sigma)
}

// CDF is the distribution function of the same truncated normal.
func CDF(x, mu, sigma, lo, hi float64) float64 {
	z := (x - mu) / sigma
	l := (lo - mu) / sigma
	u := (hi - mu) / sigma
	switch {
	case z < l:
		return 0
	case z > u:
		return 1
	}
	return (normCDF(z) - normCDF(l)) / (normCDF(u) - normCDF(l))
}

// meanShift is the difference between the mean of the truncated normal and
// mu.
func meanShift(mu, sigma, lo, hi float64) float64 {
	l := (lo - mu) / sigma
	u := (hi - mu) / sigma
	return sigma * (normPDF(l) - normPDF(u)) / (normCDF(u) - normCDF(l))
}

// varFactor is the ratio between the variance of the truncated normal and
// sigma².
func varFactor(mu, sigma, lo, hi float64) float64 {
	l := (lo - mu) / sigma
	u := (hi - mu) / sigma
	// x·φ(x) vanishes at infinity.
	var ul, ll float64
	if !math.IsInf(u, 0) {
		ul = u * normPDF(u)
	}
	if !math.IsInf(l, 0) {
		ll = l * normPDF(l)
	}
	d := normCDF(u) - normCDF(l)
	n2 := normPDF(u) - normPDF(l)
	return 1 - (ul-ll)/d - (n2/d)*(n2/d)
}

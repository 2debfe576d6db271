package testutil

import "math"

// Factorial returns k! as a float64.
func Factorial(k int) float64 {
	f := 1.0
	for i := 2; i <= k; i++ {
		f *= float64(i)
	}
	return f
}

// ExpSeries returns the Taylor coefficients of x0*exp(a*s) up to s^n.
func ExpSeries(x0, a float64, n int) []float64 {
	c := make([]float64, n+1)
	for k := range c {
		c[k] = x0 * math.Pow(a, float64(k)) / Factorial(k)
	}
	return c
}

// PolyMul returns the product of two coefficient lists truncated to n+1
// terms.
func PolyMul(a, b []float64, n int) []float64 {
	c := make([]float64, n+1)
	for i := 0; i < len(a) && i <= n; i++ {
		for j := 0; j < len(b) && i+j <= n; j++ {
			c[i+j] += a[i] * b[j]
		}
	}
	return c
}

// SinSeries returns the Taylor coefficients of sin(x0 + s) up to s^n.
func SinSeries(x0 float64, n int) []float64 {
	c := make([]float64, n+1)
	s, co := math.Sin(x0), math.Cos(x0)
	cycle := [4]float64{s, co, -s, -co}
	for k := range c {
		c[k] = cycle[k%4] / Factorial(k)
	}
	return c
}

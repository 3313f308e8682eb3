package likelihoods

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// defaultGHPoints is enough for probit expectations to be accurate to
// well below the convergence tolerances used in training.
const defaultGHPoints = 20

// hermite evaluates Gaussian expectations with fixed Gauss-Hermite nodes.
//
// With nodes x_i and weights w_i for the weight function e^{-x^2},
//
//	E_{N(f; m, v)}[g(f)] ~= 1/sqrt(pi) * sum_i w_i g(m + sqrt(2 v) x_i)
type hermite struct {
	x, w []float64
}

func newHermite(n int) *hermite {
	h := &hermite{
		x: make([]float64, n),
		w: make([]float64, n),
	}
	quad.Hermite{}.FixedLocations(h.x, h.w, math.Inf(-1), math.Inf(1))
	return h
}

func (h *hermite) expect(g func(f float64) float64, m, v float64) float64 {
	if v < 0 {
		v = 0
	}
	c := math.Sqrt(2 * v)
	s := 0.0
	for i := range h.x {
		s += h.w[i] * g(m+c*h.x[i])
	}
	return s / math.SqrtPi
}

// Package kernels implements stationary covariance functions for Gaussian
// process models.
//
// Hyperparameters (variance and lengthscale) are stored log-transformed in
// optim.Param values so that Euclidean optimizers can update them without
// positivity constraints. Every kernel also exposes analytic derivative
// matrices with respect to its log hyperparameters, which is what enables
// exact marginal-likelihood gradients without automatic differentiation.
package kernels

import (
	"math"

	"github.com/vargo-ml/vargo/internal/optim"
	"github.com/vargo-ml/vargo/internal/parallel"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Kernel is a positive-definite covariance function over rows of input
// matrices.
type Kernel interface {
	// Matrix fills dst with k(x, x). dst must be n-by-n for n rows of x.
	Matrix(dst *mat.SymDense, x *mat.Dense)

	// Cross fills dst with k(x, z). dst must be len(x)-by-len(z).
	Cross(dst *mat.Dense, x, z *mat.Dense)

	// Diag fills dst with the diagonal of k(x, x).
	Diag(dst []float64, x *mat.Dense)

	// Params returns the trainable hyperparameters in a fixed order:
	// log variance first, then log lengthscale.
	Params() []*optim.Param

	// ParamDeriv fills dst with the derivative of k(x, x) with respect to
	// the i-th entry of Params(), in log space.
	ParamDeriv(dst *mat.SymDense, x *mat.Dense, i int)
}

// stationary carries the hyperparameters and fill machinery shared by all
// isotropic kernels. Concrete kernels supply a radial profile f(r) and its
// log-lengthscale derivative.
type stationary struct {
	logVariance    *optim.Param
	logLengthscale *optim.Param
	par            parallel.Config
}

func newStationary(variance, lengthscale float64) stationary {
	return stationary{
		logVariance:    optim.NewParam("kernel.variance", math.Log(variance)),
		logLengthscale: optim.NewParam("kernel.lengthscale", math.Log(lengthscale)),
		par:            parallel.DefaultConfig(),
	}
}

// Variance returns the signal variance sigma^2.
func (s *stationary) Variance() float64 {
	return math.Exp(s.logVariance.Value())
}

// Lengthscale returns the lengthscale.
func (s *stationary) Lengthscale() float64 {
	return math.Exp(s.logLengthscale.Value())
}

func (s *stationary) Params() []*optim.Param {
	return []*optim.Param{s.logVariance, s.logLengthscale}
}

func (s *stationary) matrix(dst *mat.SymDense, x *mat.Dense, f func(r float64) float64) {
	n, _ := x.Dims()
	parallel.For(n, func(i int) {
		xi := x.RawRowView(i)
		for j := i; j < n; j++ {
			dst.SetSym(i, j, f(floats.Distance(xi, x.RawRowView(j), 2)))
		}
	}, s.par)
}

func (s *stationary) cross(dst *mat.Dense, x, z *mat.Dense, f func(r float64) float64) {
	n, _ := x.Dims()
	m, _ := z.Dims()
	parallel.For(n, func(i int) {
		xi := x.RawRowView(i)
		for j := 0; j < m; j++ {
			dst.Set(i, j, f(floats.Distance(xi, z.RawRowView(j), 2)))
		}
	}, s.par)
}

func (s *stationary) diag(dst []float64, x *mat.Dense, f func(r float64) float64) {
	n, _ := x.Dims()
	v := f(0)
	for i := 0; i < n; i++ {
		dst[i] = v
	}
}

// paramDeriv dispatches on the Params() index: 0 is log variance, for
// which dK/d(log sigma^2) = K; 1 is log lengthscale.
func (s *stationary) paramDeriv(dst *mat.SymDense, x *mat.Dense, i int, f, dl func(r float64) float64) {
	switch i {
	case 0:
		s.matrix(dst, x, f)
	case 1:
		s.matrix(dst, x, dl)
	default:
		panic("kernels: hyperparameter index out of range")
	}
}

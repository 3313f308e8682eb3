// Package gauss implements the multivariate Gaussian in the three
// exponential-family coordinate systems used by natural-gradient
// variational inference.
//
// A variational Gaussian q(u) = N(mu, S S^T) is stored as its mean vector
// and the lower-triangular factor S of its covariance. The package provides
// closed-form conversions between this mean parameterization, the natural
// parameters (Sigma^{-1} mu, -1/2 Sigma^{-1}), and gradients expressed in
// the expectation parameters (mu, Sigma + mu mu^T). The Fisher metric of
// the Gaussian family is exactly the Jacobian between natural and
// expectation parameters, which is what makes these conversions sufficient
// to compute natural gradients without any metric inversion.
package gauss

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Gaussian is a variational Gaussian distribution N(Mu, Sqrt Sqrt^T).
//
// Sqrt is the lower-triangular covariance factor. Both fields are mutated
// in place by optimizers; the struct itself is never replaced during a
// model's lifetime.
type Gaussian struct {
	Mu   *mat.VecDense
	Sqrt *mat.TriDense
}

// New returns a standard Gaussian N(0, I) of the given dimension.
func New(dim int) *Gaussian {
	g := &Gaussian{
		Mu:   mat.NewVecDense(dim, nil),
		Sqrt: mat.NewTriDense(dim, mat.Lower, nil),
	}
	for i := 0; i < dim; i++ {
		g.Sqrt.SetTri(i, i, 1)
	}
	return g
}

// Dim returns the dimension of the distribution.
func (g *Gaussian) Dim() int {
	return g.Mu.Len()
}

// Clone returns a deep copy.
func (g *Gaussian) Clone() *Gaussian {
	n := g.Dim()
	c := &Gaussian{
		Mu:   mat.NewVecDense(n, nil),
		Sqrt: mat.NewTriDense(n, mat.Lower, nil),
	}
	c.Mu.CopyVec(g.Mu)
	copyTri(c.Sqrt, g.Sqrt)
	return c
}

// Set overwrites the parameters in place.
func (g *Gaussian) Set(mu *mat.VecDense, sqrt *mat.TriDense) {
	g.Mu.CopyVec(mu)
	copyTri(g.Sqrt, sqrt)
}

// Cov returns the covariance Sqrt Sqrt^T as a fresh symmetric matrix.
func (g *Gaussian) Cov() *mat.SymDense {
	n := g.Dim()
	sigma := mat.NewSymDense(n, nil)
	sigma.SymOuterK(1, g.Sqrt)
	return sigma
}

// KLToStandardNormal returns KL(N(Mu, Sqrt Sqrt^T) || N(0, I)).
//
// This is the prior term of the evidence lower bound in the whitened
// representation, where the process prior over the latent values is the
// standard normal.
func (g *Gaussian) KLToStandardNormal() float64 {
	n := g.Dim()
	trace := 0.0
	logdet := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := g.Sqrt.At(i, j)
			trace += v * v
		}
		logdet += 2 * math.Log(math.Abs(g.Sqrt.At(i, i)))
	}
	return 0.5 * (trace + mat.Dot(g.Mu, g.Mu) - float64(n) - logdet)
}

// copyTri copies the lower triangle of src into dst.
func copyTri(dst, src *mat.TriDense) {
	n, _ := src.Triangle()
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			dst.SetTri(i, j, src.At(i, j))
		}
	}
}

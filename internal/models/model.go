// Package models implements Gaussian process models: exact regression
// (GPR), dense variational inference (VGP), the collapsed sparse bound
// (SGPR), and sparse variational inference (SVGP).
//
// The variational models use the whitened representation: the approximate
// posterior is a Gaussian over whitened latent values v with f = L v, where
// L is the Cholesky factor of the (inducing-point) kernel matrix. The prior
// over v is then the standard normal, which keeps the KL term simple and
// makes the conjugate case exactly solvable by a single natural-gradient
// step of size one.
package models

import (
	"math"

	"github.com/vargo-ml/vargo/internal/gauss"
	"github.com/vargo-ml/vargo/internal/natgrad"
	"gonum.org/v1/gonum/mat"
)

// defaultJitter is added to kernel matrix diagonals before factorization.
const defaultJitter = 1e-6

const log2pi = 1.8378770664093454835606594728112353

// varianceFloor guards marginal variances against cancellation; the
// whitened marginals subtract two nearly equal quantities when the
// conditioning inputs coincide with the query inputs.
const varianceFloor = 1e-12

// whitenedMarginals returns the per-point marginal mean and variance of
// f = L v at query points, given a = L^{-1} k(Z, X) (m-by-n), the prior
// diagonal kdiag (n), and the whitened posterior q.
//
//	fmu_i  = a_i^T q_mu
//	fvar_i = kdiag_i - |a_i|^2 + |S^T a_i|^2
func whitenedMarginals(a *mat.Dense, kdiag []float64, q *gauss.Gaussian) (fmu, fvar []float64) {
	m, n := a.Dims()
	fmu = make([]float64, n)
	fvar = make([]float64, n)

	var b mat.Dense // S^T a
	b.Mul(q.Sqrt.T(), a)

	for i := 0; i < n; i++ {
		mean, priorPart, postPart := 0.0, 0.0, 0.0
		for k := 0; k < m; k++ {
			aki := a.At(k, i)
			bki := b.At(k, i)
			mean += aki * q.Mu.AtVec(k)
			priorPart += aki * aki
			postPart += bki * bki
		}
		fmu[i] = mean
		v := kdiag[i] - priorPart + postPart
		if v < varianceFloor {
			v = varianceFloor
		}
		fvar[i] = v
	}
	return fmu, fvar
}

// whitenedGradient assembles the gradient of the negative ELBO with
// respect to one output's (q_mu, q_sqrt), given the per-point expectation
// derivatives dm = dVE/dfmu and dv = dVE/dfvar, the data scale (N over
// batch size), and the conditioning matrix a = L^{-1} k(Z, X).
//
// The expected-likelihood part chains through the marginals; the KL part
// is the gradient of KL(q || N(0, I)).
func whitenedGradient(a *mat.Dense, dm, dv []float64, scale float64, q *gauss.Gaussian) natgrad.Gradient {
	m, n := a.Dims()

	// dMu = -scale * a dm + q_mu.
	dMu := mat.NewVecDense(m, nil)
	for k := 0; k < m; k++ {
		s := 0.0
		for i := 0; i < n; i++ {
			s += a.At(k, i) * dm[i]
		}
		dMu.SetVec(k, -scale*s+q.Mu.AtVec(k))
	}

	// W = a diag(dv) a^T, then dSqrt = -2 scale tril(W S) + S - diag(1/S_ii).
	ad := mat.NewDense(m, n, nil)
	for k := 0; k < m; k++ {
		for i := 0; i < n; i++ {
			ad.Set(k, i, a.At(k, i)*dv[i])
		}
	}
	var w mat.Dense
	w.Mul(ad, a.T())
	var ws mat.Dense
	ws.Mul(&w, q.Sqrt)

	dSqrt := mat.NewTriDense(m, mat.Lower, nil)
	for i := 0; i < m; i++ {
		for j := 0; j <= i; j++ {
			g := -2*scale*ws.At(i, j) + q.Sqrt.At(i, j)
			if i == j {
				g -= 1 / q.Sqrt.At(i, i)
			}
			dSqrt.SetTri(i, j, g)
		}
	}
	return natgrad.Gradient{DMu: dMu, DSqrt: dSqrt}
}

// jitteredCholesky factors k(x, x) + jitter I and returns the lower factor
// together with the jittered diagonal.
func jitteredCholesky(k *mat.SymDense) (*mat.TriDense, []float64, error) {
	n, _ := k.Dims()
	kd := make([]float64, n)
	for i := 0; i < n; i++ {
		k.SetSym(i, i, k.At(i, i)+defaultJitter)
		kd[i] = k.At(i, i)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		return nil, nil, &gauss.NumericalError{Op: "cholesky", Msg: "kernel matrix is not positive definite"}
	}
	l := mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(l)
	return l, kd, nil
}

// column extracts column j of a matrix as a slice.
func column(m *mat.Dense, j int) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = m.At(i, j)
	}
	return out
}

// frobSquared is the squared Frobenius norm helper used by the collapsed
// bound.
func frobSquared(m *mat.Dense) float64 {
	r, c := m.Dims()
	s := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			s += v * v
		}
	}
	return s
}

// sum returns the sum of a slice.
func sum(s []float64) float64 {
	t := 0.0
	for _, v := range s {
		t += v
	}
	return t
}

// finite reports whether v is a usable number.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package models

import (
	"math"

	"github.com/vargo-ml/vargo/internal/gauss"
	"github.com/vargo-ml/vargo/internal/kernels"
	"github.com/vargo-ml/vargo/internal/likelihoods"
	"gonum.org/v1/gonum/mat"
)

// SGPR is sparse GP regression with the collapsed (Titsias) bound: the
// variational posterior over the inducing values is optimized out
// analytically, so the bound depends only on the hyperparameters. It is
// the value an SVGP with the same inducing inputs and a Gaussian
// likelihood reaches after one full-batch natural-gradient step of size
// one.
type SGPR struct {
	x, y *mat.Dense
	z    *mat.Dense
	kern kernels.Kernel
	lik  *likelihoods.Gaussian
}

// NewSGPR creates an SGPR model with inducing inputs z.
func NewSGPR(x, y *mat.Dense, kern kernels.Kernel, z *mat.Dense, noiseVariance float64) *SGPR {
	return &SGPR{
		x:    x,
		y:    y,
		z:    z,
		kern: kern,
		lik:  likelihoods.NewGaussian(noiseVariance),
	}
}

// Likelihood returns the model's Gaussian likelihood.
func (s *SGPR) Likelihood() *likelihoods.Gaussian { return s.lik }

// factors computes the shared quantities of the collapsed bound:
//
//	A  = Lz^{-1} Kzx / sigma
//	B  = I + A A^T,  LB = chol(B)
//	c  = LB^{-1} A Y / sigma
func (s *SGPR) factors() (a *mat.Dense, lb *mat.TriDense, c *mat.Dense, err error) {
	n, _ := s.x.Dims()
	m, _ := s.z.Dims()
	sigma := math.Sqrt(s.lik.Variance())

	kzz := mat.NewSymDense(m, nil)
	s.kern.Matrix(kzz, s.z)
	lz, _, err := jitteredCholesky(kzz)
	if err != nil {
		return nil, nil, nil, err
	}

	kzx := mat.NewDense(m, n, nil)
	s.kern.Cross(kzx, s.z, s.x)
	a = mat.NewDense(m, n, nil)
	if err := gauss.TriSolve(a, lz, kzx, false); err != nil {
		return nil, nil, nil, err
	}
	a.Scale(1/sigma, a)

	b := mat.NewSymDense(m, nil)
	b.SymOuterK(1, a)
	for i := 0; i < m; i++ {
		b.SetSym(i, i, b.At(i, i)+1)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(b); !ok {
		return nil, nil, nil, &gauss.NumericalError{Op: "sgpr", Msg: "B = I + A A^T is not positive definite"}
	}
	lb = mat.NewTriDense(m, mat.Lower, nil)
	chol.LTo(lb)

	var ay mat.Dense
	ay.Mul(a, s.y)
	ay.Scale(1/sigma, &ay)
	_, p := s.y.Dims()
	c = mat.NewDense(m, p, nil)
	if err := gauss.TriSolve(c, lb, &ay, false); err != nil {
		return nil, nil, nil, err
	}
	return a, lb, c, nil
}

// ELBO returns the collapsed lower bound on the log marginal likelihood.
func (s *SGPR) ELBO() (float64, error) {
	n, _ := s.x.Dims()
	m, _ := s.z.Dims()
	_, p := s.y.Dims()
	s2 := s.lik.Variance()

	a, lb, c, err := s.factors()
	if err != nil {
		return 0, err
	}

	logdetB := 0.0
	for i := 0; i < m; i++ {
		logdetB += math.Log(lb.At(i, i))
	}

	kd := make([]float64, n)
	s.kern.Diag(kd, s.x)

	var yFrob float64
	{
		_, cols := s.y.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < cols; j++ {
				v := s.y.At(i, j)
				yFrob += v * v
			}
		}
	}

	bound := float64(p) * (-0.5*float64(n)*log2pi - logdetB - 0.5*float64(n)*math.Log(s2))
	bound += -0.5 * yFrob / s2
	bound += 0.5 * frobSquared(c)
	bound += -0.5 * float64(p) * (sum(kd)/s2 - frobSquared(a))
	return bound, nil
}

// Predict returns the collapsed posterior mean and variance of the latent
// function at the query inputs.
func (s *SGPR) Predict(xnew *mat.Dense) (mean, variance *mat.Dense, err error) {
	m, _ := s.z.Dims()
	ns, _ := xnew.Dims()
	_, p := s.y.Dims()

	kzz := mat.NewSymDense(m, nil)
	s.kern.Matrix(kzz, s.z)
	lz, _, err := jitteredCholesky(kzz)
	if err != nil {
		return nil, nil, err
	}
	_, lb, c, err := s.factors()
	if err != nil {
		return nil, nil, err
	}

	kzs := mat.NewDense(m, ns, nil)
	s.kern.Cross(kzs, s.z, xnew)
	tmp1 := mat.NewDense(m, ns, nil)
	if err := gauss.TriSolve(tmp1, lz, kzs, false); err != nil {
		return nil, nil, err
	}
	tmp2 := mat.NewDense(m, ns, nil)
	if err := gauss.TriSolve(tmp2, lb, tmp1, false); err != nil {
		return nil, nil, err
	}

	kd := make([]float64, ns)
	s.kern.Diag(kd, xnew)

	mean = mat.NewDense(ns, p, nil)
	variance = mat.NewDense(ns, p, nil)
	for i := 0; i < ns; i++ {
		prior, post := 0.0, 0.0
		for k := 0; k < m; k++ {
			prior += tmp1.At(k, i) * tmp1.At(k, i)
			post += tmp2.At(k, i) * tmp2.At(k, i)
		}
		vi := kd[i] - prior + post
		if vi < varianceFloor {
			vi = varianceFloor
		}
		for j := 0; j < p; j++ {
			s2v := 0.0
			for k := 0; k < m; k++ {
				s2v += tmp2.At(k, i) * c.At(k, j)
			}
			mean.Set(i, j, s2v)
			variance.Set(i, j, vi)
		}
	}
	return mean, variance, nil
}

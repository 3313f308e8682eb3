package models

import (
	"github.com/vargo-ml/vargo/internal/gauss"
	"github.com/vargo-ml/vargo/internal/kernels"
	"github.com/vargo-ml/vargo/internal/likelihoods"
	"github.com/vargo-ml/vargo/internal/natgrad"
	"gonum.org/v1/gonum/mat"
)

// SVGP is the sparse variational GP: a whitened variational Gaussian over
// the latent values at a set of inducing inputs, with an evidence lower
// bound that decomposes over data points so it can be estimated from
// minibatches. The per-batch likelihood term is rescaled by N over the
// batch size to keep the bound unbiased.
type SVGP struct {
	z       *mat.Dense
	kern    kernels.Kernel
	lik     likelihoods.Likelihood
	numData int

	lz *mat.TriDense // chol(Kzz + jitter I)
	q  []*gauss.Gaussian
}

// NewSVGP creates an SVGP model with inducing inputs z, for a dataset of
// numData observations and the given number of output dimensions. The
// posterior starts at N(0, I) in whitened space.
func NewSVGP(kern kernels.Kernel, lik likelihoods.Likelihood, z *mat.Dense, numData, outputs int) (*SVGP, error) {
	m, _ := z.Dims()
	s := &SVGP{z: z, kern: kern, lik: lik, numData: numData}
	s.q = make([]*gauss.Gaussian, outputs)
	for j := 0; j < outputs; j++ {
		s.q[j] = gauss.New(m)
	}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh refactorizes the inducing-point kernel matrix. Call after a
// Euclidean optimizer has moved the kernel hyperparameters.
func (s *SVGP) Refresh() error {
	m, _ := s.z.Dims()
	kzz := mat.NewSymDense(m, nil)
	s.kern.Matrix(kzz, s.z)
	lz, _, err := jitteredCholesky(kzz)
	if err != nil {
		return err
	}
	s.lz = lz
	return nil
}

// Q returns the per-output variational posteriors.
func (s *SVGP) Q() []*gauss.Gaussian { return s.q }

// Pairs returns the natural-gradient update targets, one per output.
func (s *SVGP) Pairs(xi natgrad.Xi) []natgrad.Pair {
	pairs := make([]natgrad.Pair, len(s.q))
	for j, q := range s.q {
		pairs[j] = natgrad.Pair{Mu: q.Mu, Sqrt: q.Sqrt, Xi: xi}
	}
	return pairs
}

// conditioning computes a = Lz^{-1} k(Z, X) and the prior diagonal for a
// batch of inputs.
func (s *SVGP) conditioning(x *mat.Dense) (*mat.Dense, []float64, error) {
	m, _ := s.z.Dims()
	n, _ := x.Dims()
	kzx := mat.NewDense(m, n, nil)
	s.kern.Cross(kzx, s.z, x)
	a := mat.NewDense(m, n, nil)
	if err := gauss.TriSolve(a, s.lz, kzx, false); err != nil {
		return nil, nil, err
	}
	kd := make([]float64, n)
	s.kern.Diag(kd, x)
	return a, kd, nil
}

func (s *SVGP) elboParts(x, y *mat.Dense, withGrads bool) (float64, []natgrad.Gradient, error) {
	n, _ := x.Dims()
	scale := float64(s.numData) / float64(n)

	a, kd, err := s.conditioning(x)
	if err != nil {
		return 0, nil, err
	}

	elbo := 0.0
	var grads []natgrad.Gradient
	if withGrads {
		grads = make([]natgrad.Gradient, len(s.q))
	}
	for j, q := range s.q {
		fmu, fvar := whitenedMarginals(a, kd, q)
		ve, dm, dv := s.lik.VariationalExpectations(fmu, fvar, column(y, j))
		elbo += scale*sum(ve) - q.KLToStandardNormal()
		if withGrads {
			grads[j] = whitenedGradient(a, dm, dv, scale, q)
		}
	}
	return elbo, grads, nil
}

// ELBO returns the (minibatch-rescaled) evidence lower bound on the batch.
func (s *SVGP) ELBO(x, y *mat.Dense) (float64, error) {
	elbo, _, err := s.elboParts(x, y, false)
	return elbo, err
}

// VariationalGradients returns the negative ELBO on the batch and its
// gradients with respect to each output's (q_mu, q_sqrt).
func (s *SVGP) VariationalGradients(x, y *mat.Dense) (float64, []natgrad.Gradient, error) {
	elbo, grads, err := s.elboParts(x, y, true)
	return -elbo, grads, err
}

// LossClosure adapts the model into the closure form the natural-gradient
// optimizer consumes. next is called exactly once per closure invocation
// to draw the batch, so each optimizer step sees one fresh minibatch.
func (s *SVGP) LossClosure(next func() (x, y *mat.Dense)) natgrad.LossClosure {
	return func() (float64, []natgrad.Gradient, error) {
		x, y := next()
		return s.VariationalGradients(x, y)
	}
}

// Predict returns the approximate posterior mean and variance of the
// latent function at the query inputs.
func (s *SVGP) Predict(xnew *mat.Dense) (mean, variance *mat.Dense, err error) {
	ns, _ := xnew.Dims()
	a, kd, err := s.conditioning(xnew)
	if err != nil {
		return nil, nil, err
	}
	p := len(s.q)
	mean = mat.NewDense(ns, p, nil)
	variance = mat.NewDense(ns, p, nil)
	for j, q := range s.q {
		fmu, fvar := whitenedMarginals(a, kd, q)
		for i := 0; i < ns; i++ {
			mean.Set(i, j, fmu[i])
			variance.Set(i, j, fvar[i])
		}
	}
	return mean, variance, nil
}

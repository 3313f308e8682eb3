package models

import (
	"github.com/vargo-ml/vargo/internal/gauss"
	"github.com/vargo-ml/vargo/internal/kernels"
	"github.com/vargo-ml/vargo/internal/likelihoods"
	"github.com/vargo-ml/vargo/internal/natgrad"
	"gonum.org/v1/gonum/mat"
)

// VGP approximates the posterior over the latent function values at the
// training inputs with one whitened variational Gaussian per output
// dimension. With a Gaussian likelihood its evidence lower bound touches
// the exact GPR marginal likelihood at the variational optimum, and a
// single natural-gradient step of size one lands there.
type VGP struct {
	x, y *mat.Dense
	kern kernels.Kernel
	lik  likelihoods.Likelihood

	l     *mat.TriDense // chol(Kxx + jitter I)
	a     *mat.Dense    // L^T: conditioning matrix onto the training inputs
	kdiag []float64
	q     []*gauss.Gaussian
}

// NewVGP creates a VGP model with the posterior initialized to N(0, I) in
// whitened space for every output dimension.
func NewVGP(x, y *mat.Dense, kern kernels.Kernel, lik likelihoods.Likelihood) (*VGP, error) {
	n, _ := x.Dims()
	_, p := y.Dims()
	v := &VGP{x: x, y: y, kern: kern, lik: lik}
	v.q = make([]*gauss.Gaussian, p)
	for j := 0; j < p; j++ {
		v.q[j] = gauss.New(n)
	}
	if err := v.Refresh(); err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh refactorizes the kernel matrix. Call after a Euclidean optimizer
// has moved the kernel hyperparameters.
func (v *VGP) Refresh() error {
	n, _ := v.x.Dims()
	k := mat.NewSymDense(n, nil)
	v.kern.Matrix(k, v.x)
	l, kd, err := jitteredCholesky(k)
	if err != nil {
		return err
	}
	v.l = l
	v.kdiag = kd
	v.a = mat.NewDense(n, n, nil)
	v.a.Copy(l.T())
	return nil
}

// Q returns the per-output variational posteriors.
func (v *VGP) Q() []*gauss.Gaussian { return v.q }

// Pairs returns the natural-gradient update targets, one per output, all
// using the given coordinate transform (nil for the default).
func (v *VGP) Pairs(xi natgrad.Xi) []natgrad.Pair {
	pairs := make([]natgrad.Pair, len(v.q))
	for j, q := range v.q {
		pairs[j] = natgrad.Pair{Mu: q.Mu, Sqrt: q.Sqrt, Xi: xi}
	}
	return pairs
}

// elboParts evaluates the bound and, when withGrads is set, the gradient
// of its negative with respect to every output's variational parameters.
func (v *VGP) elboParts(withGrads bool) (float64, []natgrad.Gradient) {
	elbo := 0.0
	var grads []natgrad.Gradient
	if withGrads {
		grads = make([]natgrad.Gradient, len(v.q))
	}
	for j, q := range v.q {
		fmu, fvar := whitenedMarginals(v.a, v.kdiag, q)
		ve, dm, dv := v.lik.VariationalExpectations(fmu, fvar, column(v.y, j))
		elbo += sum(ve) - q.KLToStandardNormal()
		if withGrads {
			grads[j] = whitenedGradient(v.a, dm, dv, 1, q)
		}
	}
	return elbo, grads
}

// ELBO returns the evidence lower bound on the log marginal likelihood.
func (v *VGP) ELBO() float64 {
	elbo, _ := v.elboParts(false)
	return elbo
}

// VariationalGradients returns the negative ELBO and its gradients with
// respect to each output's (q_mu, q_sqrt).
func (v *VGP) VariationalGradients() (float64, []natgrad.Gradient) {
	elbo, grads := v.elboParts(true)
	return -elbo, grads
}

// LossClosure adapts the model into the closure form the natural-gradient
// optimizer consumes.
func (v *VGP) LossClosure() natgrad.LossClosure {
	return func() (float64, []natgrad.Gradient, error) {
		loss, grads := v.VariationalGradients()
		return loss, grads, nil
	}
}

// Predict returns the approximate posterior mean and variance of the
// latent function at the query inputs.
func (v *VGP) Predict(xnew *mat.Dense) (mean, variance *mat.Dense, err error) {
	n, _ := v.x.Dims()
	ns, _ := xnew.Dims()
	p := len(v.q)

	ks := mat.NewDense(n, ns, nil)
	v.kern.Cross(ks, v.x, xnew)
	as := mat.NewDense(n, ns, nil)
	if err := gauss.TriSolve(as, v.l, ks, false); err != nil {
		return nil, nil, err
	}
	kd := make([]float64, ns)
	v.kern.Diag(kd, xnew)

	mean = mat.NewDense(ns, p, nil)
	variance = mat.NewDense(ns, p, nil)
	for j, q := range v.q {
		fmu, fvar := whitenedMarginals(as, kd, q)
		for i := 0; i < ns; i++ {
			mean.Set(i, j, fmu[i])
			variance.Set(i, j, fvar[i])
		}
	}
	return mean, variance, nil
}

package models

import (
	"fmt"

	"github.com/vargo-ml/vargo/internal/gauss"
	"github.com/vargo-ml/vargo/internal/kernels"
	"github.com/vargo-ml/vargo/internal/likelihoods"
	"github.com/vargo-ml/vargo/internal/optim"
	"gonum.org/v1/gonum/mat"
)

// GPR is exact Gaussian process regression with a Gaussian likelihood.
//
// Its log marginal likelihood is available in closed form, which makes it
// both the baseline the variational models are measured against and the
// natural home for hyperparameter optimization: LossAndGradients fills in
// exact analytic gradients for every kernel hyperparameter and the noise
// variance, which a Euclidean optimizer such as Adam then consumes.
type GPR struct {
	x, y *mat.Dense
	kern kernels.Kernel
	lik  *likelihoods.Gaussian
}

// NewGPR creates a GPR model over the given data.
func NewGPR(x, y *mat.Dense, kern kernels.Kernel, noiseVariance float64) *GPR {
	return &GPR{
		x:    x,
		y:    y,
		kern: kern,
		lik:  likelihoods.NewGaussian(noiseVariance),
	}
}

// Likelihood returns the model's Gaussian likelihood.
func (g *GPR) Likelihood() *likelihoods.Gaussian { return g.lik }

// Kernel returns the model's kernel.
func (g *GPR) Kernel() kernels.Kernel { return g.kern }

// Params returns the trainable hyperparameters: kernel parameters followed
// by the noise variance.
func (g *GPR) Params() []*optim.Param {
	return append(g.kern.Params(), g.lik.Params()...)
}

// factorize builds K + s2 I and its Cholesky decomposition.
func (g *GPR) factorize() (*mat.SymDense, *mat.Cholesky, error) {
	n, _ := g.x.Dims()
	k := mat.NewSymDense(n, nil)
	g.kern.Matrix(k, g.x)
	s2 := g.lik.Variance()
	for i := 0; i < n; i++ {
		k.SetSym(i, i, k.At(i, i)+s2)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		return nil, nil, &gauss.NumericalError{Op: "gpr", Msg: "K + noise I is not positive definite"}
	}
	return k, &chol, nil
}

// LogMarginalLikelihood returns log p(Y | X, hyperparameters), summed over
// output dimensions.
func (g *GPR) LogMarginalLikelihood() (float64, error) {
	n, _ := g.x.Dims()
	_, p := g.y.Dims()
	_, chol, err := g.factorize()
	if err != nil {
		return 0, err
	}
	logdet := chol.LogDet()

	lml := 0.0
	alpha := mat.NewVecDense(n, nil)
	for j := 0; j < p; j++ {
		yj := g.y.ColView(j)
		if err := chol.SolveVecTo(alpha, yj); err != nil {
			return 0, fmt.Errorf("models: gpr solve: %w", err)
		}
		lml += -0.5*mat.Dot(yj, alpha) - 0.5*logdet - 0.5*float64(n)*log2pi
	}
	return lml, nil
}

// LossAndGradients returns the negative log marginal likelihood and writes
// its exact gradient into every hyperparameter's gradient slot, using
//
//	d lml / d theta = 1/2 sum_j tr((alpha_j alpha_j^T - K^{-1}) dK/dtheta)
func (g *GPR) LossAndGradients() (float64, error) {
	n, _ := g.x.Dims()
	_, p := g.y.Dims()
	_, chol, err := g.factorize()
	if err != nil {
		return 0, err
	}
	logdet := chol.LogDet()

	alphas := make([]*mat.VecDense, p)
	lml := 0.0
	for j := 0; j < p; j++ {
		yj := g.y.ColView(j)
		a := mat.NewVecDense(n, nil)
		if err := chol.SolveVecTo(a, yj); err != nil {
			return 0, fmt.Errorf("models: gpr solve: %w", err)
		}
		alphas[j] = a
		lml += -0.5*mat.Dot(yj, a) - 0.5*logdet - 0.5*float64(n)*log2pi
	}

	kinv := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(kinv); err != nil {
		return 0, fmt.Errorf("models: gpr inverse: %w", err)
	}

	dk := mat.NewSymDense(n, nil)
	for i, param := range g.kern.Params() {
		g.kern.ParamDeriv(dk, g.x, i)
		param.SetGrad([]float64{-g.traceTerm(dk, kinv, alphas, p)})
	}

	// Noise in log space: dK/d(log s2) = s2 I.
	s2 := g.lik.Variance()
	noiseTerm := 0.0
	for j := 0; j < p; j++ {
		noiseTerm += 0.5 * s2 * mat.Dot(alphas[j], alphas[j])
	}
	trKinv := 0.0
	for i := 0; i < n; i++ {
		trKinv += kinv.At(i, i)
	}
	noiseTerm -= 0.5 * float64(p) * s2 * trKinv
	g.lik.Params()[0].SetGrad([]float64{-noiseTerm})

	return -lml, nil
}

// traceTerm evaluates 1/2 sum_j tr((alpha_j alpha_j^T - K^{-1}) dK).
func (g *GPR) traceTerm(dk, kinv *mat.SymDense, alphas []*mat.VecDense, p int) float64 {
	n, _ := dk.Dims()
	term := 0.0
	for _, a := range alphas {
		tmp := mat.NewVecDense(n, nil)
		tmp.MulVec(dk, a)
		term += 0.5 * mat.Dot(a, tmp)
	}
	trProd := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			trProd += kinv.At(i, j) * dk.At(i, j)
		}
	}
	term -= 0.5 * float64(p) * trProd
	return term
}

// Predict returns the latent function's posterior mean and variance at the
// query inputs; the variance column is shared across outputs.
func (g *GPR) Predict(xnew *mat.Dense) (mean, variance *mat.Dense, err error) {
	n, _ := g.x.Dims()
	ns, _ := xnew.Dims()
	_, p := g.y.Dims()

	_, chol, err := g.factorize()
	if err != nil {
		return nil, nil, err
	}
	l := mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(l)

	kxs := mat.NewDense(n, ns, nil)
	g.kern.Cross(kxs, g.x, xnew)

	mean = mat.NewDense(ns, p, nil)
	alpha := mat.NewVecDense(n, nil)
	for j := 0; j < p; j++ {
		if err := chol.SolveVecTo(alpha, g.y.ColView(j)); err != nil {
			return nil, nil, fmt.Errorf("models: gpr predict: %w", err)
		}
		for i := 0; i < ns; i++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += kxs.At(k, i) * alpha.AtVec(k)
			}
			mean.Set(i, j, s)
		}
	}

	v := mat.NewDense(n, ns, nil)
	if err := gauss.TriSolve(v, l, kxs, false); err != nil {
		return nil, nil, err
	}
	kd := make([]float64, ns)
	g.kern.Diag(kd, xnew)

	variance = mat.NewDense(ns, p, nil)
	for i := 0; i < ns; i++ {
		red := 0.0
		for k := 0; k < n; k++ {
			red += v.At(k, i) * v.At(k, i)
		}
		vi := kd[i] - red
		if vi < varianceFloor {
			vi = varianceFloor
		}
		for j := 0; j < p; j++ {
			variance.Set(i, j, vi)
		}
	}
	return mean, variance, nil
}

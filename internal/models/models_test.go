package models_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/vargo-ml/vargo/internal/data"
	"github.com/vargo-ml/vargo/internal/kernels"
	"github.com/vargo-ml/vargo/internal/likelihoods"
	"github.com/vargo-ml/vargo/internal/models"
	"github.com/vargo-ml/vargo/internal/natgrad"
	"github.com/vargo-ml/vargo/internal/optim"
)

const testNoise = 0.1

// regressionData draws n inputs uniformly on [0, 1) and evaluates
// y = sin(10 x) column-wise, giving p output dimensions.
func regressionData(n, d, p int, seed uint64) (x, y *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x = mat.NewDense(n, d, nil)
	y = mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			x.Set(i, j, rng.Float64())
		}
		for j := 0; j < p; j++ {
			y.Set(i, j, math.Sin(10*x.At(i, j%d)))
		}
	}
	return x, y
}

func inducingSubset(x *mat.Dense, m int) *mat.Dense {
	_, d := x.Dims()
	z := mat.NewDense(m, d, nil)
	z.Copy(x.Slice(0, m, 0, d))
	return z
}

// TestVGP_OneStepMatchesGPR: with a conjugate likelihood a single
// natural-gradient step of size one drives the VGP bound onto the exact
// GPR log marginal likelihood.
func TestVGP_OneStepMatchesGPR(t *testing.T) {
	x, y := regressionData(25, 2, 2, 1)

	gpr := models.NewGPR(x, y, kernels.NewMatern52(1, 1), testNoise)
	lml, err := gpr.LogMarginalLikelihood()
	require.NoError(t, err)

	vgp, err := models.NewVGP(x, y, kernels.NewMatern52(1, 1), likelihoods.NewGaussian(testNoise))
	require.NoError(t, err)

	before := vgp.ELBO()
	assert.Less(t, before, lml, "initial ELBO must sit below the marginal likelihood")

	opt := natgrad.New(1.0)
	require.NoError(t, opt.Minimize(vgp.LossClosure(), vgp.Pairs(nil)))

	// The residual gap comes from the jitter on the kernel factorization.
	assert.InDelta(t, lml, vgp.ELBO(), 1e-3)

	// A second step stays at the optimum.
	require.NoError(t, opt.Minimize(vgp.LossClosure(), vgp.Pairs(nil)))
	assert.InDelta(t, lml, vgp.ELBO(), 1e-3)
}

// TestVGP_RefreshTracksHyperparameters: after moving the kernel
// hyperparameters, Refresh refactorizes and one more unit step lands on
// the new marginal likelihood.
func TestVGP_RefreshTracksHyperparameters(t *testing.T) {
	x, y := regressionData(20, 1, 1, 2)

	kernV := kernels.NewMatern52(1, 1)
	vgp, err := models.NewVGP(x, y, kernV, likelihoods.NewGaussian(testNoise))
	require.NoError(t, err)

	// Move the log lengthscale, as a Euclidean optimizer would.
	kernV.Params()[1].SetValue(kernV.Params()[1].Value() - 0.3)
	require.NoError(t, vgp.Refresh())

	opt := natgrad.New(1.0)
	require.NoError(t, opt.Minimize(vgp.LossClosure(), vgp.Pairs(nil)))

	kernG := kernels.NewMatern52(1, 1)
	kernG.Params()[1].SetValue(kernG.Params()[1].Value() - 0.3)
	gpr := models.NewGPR(x, y, kernG, testNoise)
	lml, err := gpr.LogMarginalLikelihood()
	require.NoError(t, err)

	assert.InDelta(t, lml, vgp.ELBO(), 1e-3)
}

// TestSVGP_OneStepMatchesSGPR: one full-batch natural-gradient step of
// size one takes the SVGP bound to the collapsed SGPR bound, which is the
// analytic optimum over the variational parameters.
func TestSVGP_OneStepMatchesSGPR(t *testing.T) {
	x, y := regressionData(40, 1, 1, 3)
	z := inducingSubset(x, 8)

	sgpr := models.NewSGPR(x, y, kernels.NewMatern52(1, 1), z, testNoise)
	bound, err := sgpr.ELBO()
	require.NoError(t, err)

	svgp, err := models.NewSVGP(kernels.NewMatern52(1, 1), likelihoods.NewGaussian(testNoise), z, 40, 1)
	require.NoError(t, err)

	full := func() (*mat.Dense, *mat.Dense) { return x, y }
	opt := natgrad.New(1.0)
	require.NoError(t, opt.Minimize(svgp.LossClosure(full), svgp.Pairs(nil)))

	elbo, err := svgp.ELBO(x, y)
	require.NoError(t, err)
	assert.InDelta(t, bound, elbo, 1e-6)
}

// TestSGPR_BoundBelowLML: the collapsed bound can never exceed the exact
// marginal likelihood and approaches it as inducing points cover the data.
func TestSGPR_BoundBelowLML(t *testing.T) {
	x, y := regressionData(30, 1, 1, 4)

	gpr := models.NewGPR(x, y, kernels.NewMatern52(1, 1), testNoise)
	lml, err := gpr.LogMarginalLikelihood()
	require.NoError(t, err)

	sparse := models.NewSGPR(x, y, kernels.NewMatern52(1, 1), inducingSubset(x, 5), testNoise)
	loose, err := sparse.ELBO()
	require.NoError(t, err)
	assert.Less(t, loose, lml)

	dense := models.NewSGPR(x, y, kernels.NewMatern52(1, 1), inducingSubset(x, 30), testNoise)
	tight, err := dense.ELBO()
	require.NoError(t, err)
	assert.Less(t, tight, lml+1e-6)
	assert.Greater(t, tight, loose)
	assert.InDelta(t, lml, tight, 1e-2)
}

// TestVGP_VariationalGradients_FiniteDifference checks the whitened
// gradient assembly against central finite differences of the ELBO.
func TestVGP_VariationalGradients_FiniteDifference(t *testing.T) {
	x, y := regressionData(6, 1, 1, 5)
	vgp, err := models.NewVGP(x, y, kernels.NewRBF(1, 0.8), likelihoods.NewGaussian(0.3))
	require.NoError(t, err)

	// Move off the N(0, I) initialization so the gradients are nontrivial.
	q := vgp.Q()[0]
	for i := 0; i < q.Dim(); i++ {
		q.Mu.SetVec(i, 0.1*float64(i)-0.2)
		q.Sqrt.SetTri(i, i, 1+0.05*float64(i))
		if i > 0 {
			q.Sqrt.SetTri(i, i-1, 0.03)
		}
	}

	loss, grads := vgp.VariationalGradients()
	require.Len(t, grads, 1)
	assert.InDelta(t, -vgp.ELBO(), loss, 1e-12)

	const eps = 1e-6
	for i := 0; i < q.Dim(); i++ {
		orig := q.Mu.AtVec(i)
		q.Mu.SetVec(i, orig+eps)
		up := -vgp.ELBO()
		q.Mu.SetVec(i, orig-eps)
		down := -vgp.ELBO()
		q.Mu.SetVec(i, orig)
		assert.InDelta(t, (up-down)/(2*eps), grads[0].DMu.AtVec(i), 1e-5, "dMu[%d]", i)
	}
	for i := 0; i < q.Dim(); i++ {
		for j := 0; j <= i; j++ {
			orig := q.Sqrt.At(i, j)
			q.Sqrt.SetTri(i, j, orig+eps)
			up := -vgp.ELBO()
			q.Sqrt.SetTri(i, j, orig-eps)
			down := -vgp.ELBO()
			q.Sqrt.SetTri(i, j, orig)
			assert.InDelta(t, (up-down)/(2*eps), grads[0].DSqrt.At(i, j), 1e-5, "dSqrt[%d,%d]", i, j)
		}
	}
}

// TestGPR_LossAndGradients_FiniteDifference checks the analytic
// hyperparameter gradients against central finite differences of the
// negative log marginal likelihood.
func TestGPR_LossAndGradients_FiniteDifference(t *testing.T) {
	x, y := regressionData(12, 2, 1, 6)
	gpr := models.NewGPR(x, y, kernels.NewMatern32(1.2, 0.7), 0.2)

	nll, err := gpr.LossAndGradients()
	require.NoError(t, err)

	lml, err := gpr.LogMarginalLikelihood()
	require.NoError(t, err)
	assert.InDelta(t, -lml, nll, 1e-10)

	const eps = 1e-6
	for _, p := range gpr.Params() {
		grad := p.Grad()
		require.NotNil(t, grad, "gradient missing for %s", p.Name())

		orig := p.Value()
		p.SetValue(orig + eps)
		up, err := gpr.LogMarginalLikelihood()
		require.NoError(t, err)
		p.SetValue(orig - eps)
		down, err := gpr.LogMarginalLikelihood()
		require.NoError(t, err)
		p.SetValue(orig)

		fd := -(up - down) / (2 * eps)
		assert.InDelta(t, fd, grad[0], 1e-5, "gradient for %s", p.Name())
	}
}

// TestGPR_AdamImprovesMarginalLikelihood runs a few analytic-gradient
// Adam steps and expects the fit to improve.
func TestGPR_AdamImprovesMarginalLikelihood(t *testing.T) {
	x, y := regressionData(20, 1, 1, 7)
	gpr := models.NewGPR(x, y, kernels.NewRBF(1, 1), 0.5)

	before, err := gpr.LogMarginalLikelihood()
	require.NoError(t, err)

	opt := optim.NewAdam(gpr.Params(), optim.AdamConfig{LR: 0.05})
	for i := 0; i < 50; i++ {
		opt.ZeroGrad()
		_, err := gpr.LossAndGradients()
		require.NoError(t, err)
		opt.Step()
	}

	after, err := gpr.LogMarginalLikelihood()
	require.NoError(t, err)
	assert.Greater(t, after, before)
}

// TestSVGP_MinibatchDeterminism: two runs with identical seeds must end
// with bit-identical variational parameters.
func TestSVGP_MinibatchDeterminism(t *testing.T) {
	x, y := regressionData(30, 1, 1, 8)
	z := inducingSubset(x, 6)

	run := func() *models.SVGP {
		svgp, err := models.NewSVGP(kernels.NewMatern52(1, 1), likelihoods.NewGaussian(testNoise), z, 30, 1)
		require.NoError(t, err)

		ds, err := data.New(x, y)
		require.NoError(t, err)
		batcher := data.NewBatcher(ds, 10, 99)

		opt := natgrad.New(0.2)
		loss := svgp.LossClosure(batcher.Next)
		pairs := svgp.Pairs(nil)
		for i := 0; i < 20; i++ {
			require.NoError(t, opt.Minimize(loss, pairs))
		}
		return svgp
	}

	a := run()
	b := run()

	qa, qb := a.Q()[0], b.Q()[0]
	for i := 0; i < qa.Dim(); i++ {
		assert.Equal(t, qa.Mu.AtVec(i), qb.Mu.AtVec(i), "mu[%d]", i)
		for j := 0; j <= i; j++ {
			assert.Equal(t, qa.Sqrt.At(i, j), qb.Sqrt.At(i, j), "sqrt[%d,%d]", i, j)
		}
	}
}

// TestVGP_Bernoulli_NatgradImprovesELBO: damped natural-gradient steps on
// a non-conjugate classification model must increase the bound.
func TestVGP_Bernoulli_NatgradImprovesELBO(t *testing.T) {
	x, _ := regressionData(20, 1, 1, 9)
	n, _ := x.Dims()
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if x.At(i, 0) > 0.5 {
			y.Set(i, 0, 1)
		} else {
			y.Set(i, 0, -1)
		}
	}

	vgp, err := models.NewVGP(x, y, kernels.NewRBF(1, 0.5), likelihoods.NewBernoulli())
	require.NoError(t, err)

	before := vgp.ELBO()
	opt := natgrad.New(0.2)
	loss := vgp.LossClosure()
	pairs := vgp.Pairs(nil)
	for i := 0; i < 30; i++ {
		require.NoError(t, opt.Minimize(loss, pairs))
	}
	after := vgp.ELBO()

	assert.Greater(t, after, before)

	// Predictions should separate the classes away from the boundary.
	mean, variance, err := vgp.Predict(x)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.Greater(t, variance.At(i, 0), 0.0)
		if math.Abs(x.At(i, 0)-0.5) < 0.15 {
			continue
		}
		if y.At(i, 0) > 0 {
			assert.Greater(t, mean.At(i, 0), 0.0, "point %d", i)
		} else {
			assert.Less(t, mean.At(i, 0), 0.0, "point %d", i)
		}
	}
}

// TestPredict_AgreesAcrossModels: after solving the conjugate problem
// exactly, VGP predictions coincide with GPR predictions.
func TestPredict_AgreesAcrossModels(t *testing.T) {
	x, y := regressionData(25, 1, 1, 10)
	xs, _ := regressionData(7, 1, 1, 11)

	gpr := models.NewGPR(x, y, kernels.NewMatern52(1, 1), testNoise)
	gMean, gVar, err := gpr.Predict(xs)
	require.NoError(t, err)

	vgp, err := models.NewVGP(x, y, kernels.NewMatern52(1, 1), likelihoods.NewGaussian(testNoise))
	require.NoError(t, err)
	require.NoError(t, natgrad.New(1.0).Minimize(vgp.LossClosure(), vgp.Pairs(nil)))

	vMean, vVar, err := vgp.Predict(xs)
	require.NoError(t, err)

	ns, _ := xs.Dims()
	for i := 0; i < ns; i++ {
		assert.InDelta(t, gMean.At(i, 0), vMean.At(i, 0), 1e-3, "mean at %d", i)
		assert.InDelta(t, gVar.At(i, 0), vVar.At(i, 0), 1e-3, "variance at %d", i)
	}
}

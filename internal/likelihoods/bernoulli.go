package likelihoods

import (
	"math"

	"github.com/vargo-ml/vargo/internal/optim"
	"gonum.org/v1/gonum/stat/distuv"
)

// Bernoulli is a binary classification likelihood with a probit link and
// labels in {-1, +1}:
//
//	p(y|f) = Phi(y f)
//
// Its variational expectations have no closed form and are evaluated by
// Gauss-Hermite quadrature, with the derivative identities
//
//	d/dm  E[log p] = E[d log p / df]
//	d/dv  E[log p] = 1/2 E[d^2 log p / df^2]
type Bernoulli struct {
	gh   *hermite
	norm distuv.Normal
}

// NewBernoulli creates a probit Bernoulli likelihood.
func NewBernoulli() *Bernoulli {
	return &Bernoulli{
		gh:   newHermite(defaultGHPoints),
		norm: distuv.Normal{Mu: 0, Sigma: 1},
	}
}

// Params returns nil: the probit Bernoulli has no hyperparameters.
func (b *Bernoulli) Params() []*optim.Param { return nil }

func (b *Bernoulli) LogProb(f, y float64) float64 {
	return b.logCDF(y * f)
}

// logCDF is log Phi(z) with an asymptotic guard for the deep left tail,
// where the direct CDF underflows.
func (b *Bernoulli) logCDF(z float64) float64 {
	if z < -6 {
		return b.norm.LogProb(z) - math.Log(-z)
	}
	return math.Log(b.norm.CDF(z))
}

// millsInv is phi(z)/Phi(z), the inverse Mills ratio.
func (b *Bernoulli) millsInv(z float64) float64 {
	if z < -6 {
		return -z - 1/z
	}
	return b.norm.Prob(z) / b.norm.CDF(z)
}

// dLogProb is d log Phi(y f) / df.
func (b *Bernoulli) dLogProb(f, y float64) float64 {
	return y * b.millsInv(y*f)
}

// d2LogProb is d^2 log Phi(y f) / df^2.
func (b *Bernoulli) d2LogProb(f, y float64) float64 {
	z := y * f
	r := b.millsInv(z)
	return -r * (z + r)
}

func (b *Bernoulli) VariationalExpectations(fmu, fvar, y []float64) (ve, dmu, dvar []float64) {
	n := len(fmu)
	ve = make([]float64, n)
	dmu = make([]float64, n)
	dvar = make([]float64, n)
	for i := 0; i < n; i++ {
		yi := y[i]
		ve[i] = b.gh.expect(func(f float64) float64 { return b.LogProb(f, yi) }, fmu[i], fvar[i])
		dmu[i] = b.gh.expect(func(f float64) float64 { return b.dLogProb(f, yi) }, fmu[i], fvar[i])
		dvar[i] = 0.5 * b.gh.expect(func(f float64) float64 { return b.d2LogProb(f, yi) }, fmu[i], fvar[i])
	}
	return ve, dmu, dvar
}

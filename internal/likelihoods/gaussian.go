package likelihoods

import (
	"math"

	"github.com/vargo-ml/vargo/internal/optim"
)

const log2pi = 1.8378770664093454835606594728112353

// Gaussian is the conjugate observation model y = f + eps with
// eps ~ N(0, variance). Its variational expectations are closed-form:
//
//	E[log N(y; f, s2)] = log N(y; fmu, s2) - fvar / (2 s2)
type Gaussian struct {
	logVariance *optim.Param
}

// NewGaussian creates a Gaussian likelihood with the given noise variance.
func NewGaussian(variance float64) *Gaussian {
	return &Gaussian{logVariance: optim.NewParam("likelihood.variance", math.Log(variance))}
}

// Variance returns the noise variance.
func (g *Gaussian) Variance() float64 {
	return math.Exp(g.logVariance.Value())
}

// SetVariance overwrites the noise variance.
func (g *Gaussian) SetVariance(v float64) {
	g.logVariance.SetValue(math.Log(v))
}

func (g *Gaussian) Params() []*optim.Param {
	return []*optim.Param{g.logVariance}
}

func (g *Gaussian) LogProb(f, y float64) float64 {
	s2 := g.Variance()
	d := y - f
	return -0.5*log2pi - 0.5*math.Log(s2) - d*d/(2*s2)
}

func (g *Gaussian) VariationalExpectations(fmu, fvar, y []float64) (ve, dmu, dvar []float64) {
	n := len(fmu)
	ve = make([]float64, n)
	dmu = make([]float64, n)
	dvar = make([]float64, n)
	s2 := g.Variance()
	for i := 0; i < n; i++ {
		d := y[i] - fmu[i]
		ve[i] = -0.5*log2pi - 0.5*math.Log(s2) - (d*d+fvar[i])/(2*s2)
		dmu[i] = d / s2
		dvar[i] = -1 / (2 * s2)
	}
	return ve, dmu, dvar
}

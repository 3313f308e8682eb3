// Package likelihoods implements observation models p(y|f) and their
// variational expectations under Gaussian marginals of the latent function.
//
// The variational expectations E_{N(f; fmu, fvar)}[log p(y|f)] and their
// derivatives with respect to the marginal mean and variance are the only
// quantities a variational GP model needs from its likelihood. The Gaussian
// likelihood has closed forms; everything else falls back to Gauss-Hermite
// quadrature.
package likelihoods

import "github.com/vargo-ml/vargo/internal/optim"

// Likelihood is an observation model for scalar observations conditioned
// on a scalar latent function value.
type Likelihood interface {
	// LogProb returns log p(y|f).
	LogProb(f, y float64) float64

	// VariationalExpectations returns, per data point,
	//
	//	ve_i   = E_{N(f; fmu_i, fvar_i)}[log p(y_i|f)]
	//	dmu_i  = d ve_i / d fmu_i
	//	dvar_i = d ve_i / d fvar_i
	//
	// The derivative slices are what variational gradients chain through.
	VariationalExpectations(fmu, fvar, y []float64) (ve, dmu, dvar []float64)

	// Params returns the likelihood's trainable hyperparameters.
	Params() []*optim.Param
}

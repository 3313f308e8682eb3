package likelihoods_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vargo-ml/vargo/internal/likelihoods"
)

func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// TestGaussianVariationalExpectations checks the closed form
//
//	ve = log N(y; fmu, s2) - fvar/(2 s2)
//
// and its derivatives at a hand-computed point.
func TestGaussianVariationalExpectations(t *testing.T) {
	const s2 = 0.25
	lik := likelihoods.NewGaussian(s2)

	fmu := []float64{0.4}
	fvar := []float64{0.3}
	y := []float64{1.0}

	ve, dmu, dvar := lik.VariationalExpectations(fmu, fvar, y)

	wantVE := lik.LogProb(fmu[0], y[0]) - fvar[0]/(2*s2)
	if !floatEqual(ve[0], wantVE, 1e-12) {
		t.Errorf("ve = %g, want %g", ve[0], wantVE)
	}
	if !floatEqual(dmu[0], (y[0]-fmu[0])/s2, 1e-12) {
		t.Errorf("dmu = %g, want %g", dmu[0], (y[0]-fmu[0])/s2)
	}
	if !floatEqual(dvar[0], -1/(2*s2), 1e-12) {
		t.Errorf("dvar = %g, want %g", dvar[0], -1/(2*s2))
	}
}

// TestGaussianVariationalExpectations_Derivatives checks dmu and dvar
// against central finite differences of ve.
func TestGaussianVariationalExpectations_Derivatives(t *testing.T) {
	lik := likelihoods.NewGaussian(0.5)
	checkDerivatives(t, lik, 0.2, 0.4, 1.3)
}

// TestBernoulliLogProb checks the probit likelihood against the normal
// CDF on both labels, including the deep tail guard.
func TestBernoulliLogProb(t *testing.T) {
	lik := likelihoods.NewBernoulli()
	norm := distuv.Normal{Mu: 0, Sigma: 1}

	for _, f := range []float64{-2, -0.5, 0, 0.5, 2} {
		want := math.Log(norm.CDF(f))
		if got := lik.LogProb(f, 1); !floatEqual(got, want, 1e-10) {
			t.Errorf("LogProb(%g, +1) = %g, want %g", f, got, want)
		}
		want = math.Log(norm.CDF(-f))
		if got := lik.LogProb(f, -1); !floatEqual(got, want, 1e-10) {
			t.Errorf("LogProb(%g, -1) = %g, want %g", f, got, want)
		}
	}

	// Deep tail: log Phi(-20) is about -204, far below where the direct
	// CDF underflows to zero. The asymptotic branch must stay finite and
	// close to log phi(z) - log(-z).
	got := lik.LogProb(-20, 1)
	want := norm.LogProb(-20) - math.Log(20.0)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("LogProb(-20, +1) = %g, want finite", got)
	}
	if !floatEqual(got, want, 1e-2) {
		t.Errorf("LogProb(-20, +1) = %g, want about %g", got, want)
	}
}

// TestBernoulliVariationalExpectations_ZeroVariance: with fvar = 0 the
// quadrature must collapse to the point evaluation log Phi(y fmu).
func TestBernoulliVariationalExpectations_ZeroVariance(t *testing.T) {
	lik := likelihoods.NewBernoulli()

	fmu := []float64{0.8, -1.5}
	fvar := []float64{0, 0}
	y := []float64{1, -1}

	ve, _, _ := lik.VariationalExpectations(fmu, fvar, y)
	for i := range fmu {
		want := lik.LogProb(fmu[i], y[i])
		if !floatEqual(ve[i], want, 1e-10) {
			t.Errorf("ve[%d] = %g, want %g", i, ve[i], want)
		}
	}
}

// TestBernoulliVariationalExpectations_Derivatives checks the quadrature
// derivative identities against finite differences of ve.
func TestBernoulliVariationalExpectations_Derivatives(t *testing.T) {
	lik := likelihoods.NewBernoulli()
	checkDerivatives(t, lik, 0.3, 0.6, 1)
	checkDerivatives(t, lik, -1.1, 0.9, -1)
}

// checkDerivatives compares the reported dmu and dvar at a single point
// against central finite differences of the reported ve.
func checkDerivatives(t *testing.T, lik likelihoods.Likelihood, fmu, fvar, y float64) {
	t.Helper()
	const eps = 1e-5

	veAt := func(m, v float64) float64 {
		ve, _, _ := lik.VariationalExpectations([]float64{m}, []float64{v}, []float64{y})
		return ve[0]
	}

	_, dmu, dvar := lik.VariationalExpectations([]float64{fmu}, []float64{fvar}, []float64{y})

	fdMu := (veAt(fmu+eps, fvar) - veAt(fmu-eps, fvar)) / (2 * eps)
	if !floatEqual(dmu[0], fdMu, 1e-6) {
		t.Errorf("dmu at (%g, %g, %g) = %g, finite difference %g", fmu, fvar, y, dmu[0], fdMu)
	}

	fdVar := (veAt(fmu, fvar+eps) - veAt(fmu, fvar-eps)) / (2 * eps)
	if !floatEqual(dvar[0], fdVar, 1e-6) {
		t.Errorf("dvar at (%g, %g, %g) = %g, finite difference %g", fmu, fvar, y, dvar[0], fdVar)
	}
}

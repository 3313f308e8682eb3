package natgrad

import (
	"math"

	"github.com/vargo-ml/vargo/internal/gauss"
	"gonum.org/v1/gonum/mat"
)

// Xi identifies the coordinate system a step is expressed in. The step is
// always a natural-gradient step; the transform only changes which
// coordinates the update is applied to, which matters for finite step
// sizes but not at convergence.
type Xi interface {
	// propose computes the updated (mu, sqrt) from the current parameters
	// and the natural-gradient direction (dEta1, dEta2) without mutating
	// anything.
	propose(mu *mat.VecDense, sqrt *mat.TriDense, dEta1 *mat.VecDense, dEta2 *mat.SymDense, gamma float64) (*mat.VecDense, *mat.TriDense, error)
}

// XiNat is the default transform: the step is taken directly on the natural
// parameters and the result converted back to (q_mu, q_sqrt).
type XiNat struct{}

func (XiNat) propose(mu *mat.VecDense, sqrt *mat.TriDense, dEta1 *mat.VecDense, dEta2 *mat.SymDense, gamma float64) (*mat.VecDense, *mat.TriDense, error) {
	theta1, theta2, err := gauss.NaturalFromMeanSqrt(mu, sqrt)
	if err != nil {
		return nil, nil, err
	}
	n := mu.Len()
	theta1.AddScaledVec(theta1, -gamma, dEta1)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			theta2.SetSym(i, j, theta2.At(i, j)-gamma*dEta2.At(i, j))
		}
	}
	return gauss.MeanSqrtFromNatural(theta1, theta2)
}

// XiSqrtMeanVar expresses the step in mean/sqrt-covariance coordinates via
// the closed-form Jacobian-vector product from natural parameters. It is
// mathematically equivalent to XiNat at convergence but has different step
// geometry at finite gamma, which can help on non-conjugate problems.
type XiSqrtMeanVar struct{}

func (XiSqrtMeanVar) propose(mu *mat.VecDense, sqrt *mat.TriDense, dEta1 *mat.VecDense, dEta2 *mat.SymDense, gamma float64) (*mat.VecDense, *mat.TriDense, error) {
	dMu, dSqrt, err := gauss.MeanSqrtDirectional(mu, sqrt, dEta1, dEta2)
	if err != nil {
		return nil, nil, err
	}
	n := mu.Len()
	muNew := mat.NewVecDense(n, nil)
	muNew.AddScaledVec(mu, -gamma, dMu)
	sqrtNew := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := sqrt.At(i, j) - gamma*dSqrt.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, &gauss.NumericalError{Op: "xi-sqrt-meanvar", Msg: "non-finite step"}
			}
			sqrtNew.SetTri(i, j, v)
		}
	}
	for i := 0; i < n; i++ {
		if sqrtNew.At(i, i) <= 0 {
			return nil, nil, &gauss.NumericalError{Op: "xi-sqrt-meanvar", Msg: "covariance factor lost positive diagonal"}
		}
	}
	for i := 0; i < n; i++ {
		if v := muNew.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, &gauss.NumericalError{Op: "xi-sqrt-meanvar", Msg: "non-finite step"}
		}
	}
	return muNew, sqrtNew, nil
}

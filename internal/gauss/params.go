package gauss

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// NaturalFromMeanSqrt converts mean parameters (mu, S) to the natural
// parameters of N(mu, S S^T):
//
//	theta1 = Sigma^{-1} mu
//	theta2 = -1/2 Sigma^{-1}
//
// The inputs are not mutated.
func NaturalFromMeanSqrt(mu *mat.VecDense, sqrt *mat.TriDense) (*mat.VecDense, *mat.SymDense, error) {
	n := mu.Len()

	// Sigma^{-1} mu via two triangular substitutions.
	w := mat.NewVecDense(n, nil)
	if err := TriSolveVec(w, sqrt, mu, false); err != nil {
		return nil, nil, err
	}
	theta1 := mat.NewVecDense(n, nil)
	if err := TriSolveVec(theta1, sqrt, w, true); err != nil {
		return nil, nil, err
	}

	// Sigma^{-1} = S^{-T} S^{-1}.
	eye := identity(n)
	sinv := mat.NewDense(n, n, nil)
	if err := TriSolve(sinv, sqrt, eye, false); err != nil {
		return nil, nil, err
	}
	theta2 := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += sinv.At(k, i) * sinv.At(k, j)
			}
			theta2.SetSym(i, j, -0.5*s)
		}
	}
	return theta1, theta2, nil
}

// MeanSqrtFromNatural converts natural parameters back to (mu, S). It fails
// with a NumericalError when -2*theta2 is not positive definite, which is
// how an overshooting natural-gradient step surfaces.
func MeanSqrtFromNatural(theta1 *mat.VecDense, theta2 *mat.SymDense) (*mat.VecDense, *mat.TriDense, error) {
	n := theta1.Len()

	prec := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			prec.SetSym(i, j, -2*theta2.At(i, j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(prec); !ok {
		return nil, nil, numErrf("natural-to-mean", "precision matrix is not positive definite")
	}

	mu := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(mu, theta1); err != nil {
		return nil, nil, numErrf("natural-to-mean", "solve for mean failed: %v", err)
	}

	sigma := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(sigma); err != nil {
		return nil, nil, numErrf("natural-to-mean", "inverse of precision failed: %v", err)
	}

	var sc mat.Cholesky
	if ok := sc.Factorize(sigma); !ok {
		return nil, nil, numErrf("natural-to-mean", "recovered covariance is not positive definite")
	}
	sqrt := mat.NewTriDense(n, mat.Lower, nil)
	sc.LTo(sqrt)

	if !finiteVec(mu) || !finiteTri(sqrt) {
		return nil, nil, numErrf("natural-to-mean", "non-finite values in recovered parameters")
	}
	return mu, sqrt, nil
}

// ExpectationGradient pulls a Euclidean gradient with respect to the stored
// parameters (q_mu, q_sqrt) back to the expectation parameters
// (mu, Sigma + mu mu^T). For the Gaussian family the result is exactly the
// natural gradient with respect to the natural parameters.
//
// The covariance part uses the reverse differential of S -> S S^T:
//
//	Sigma_bar = 1/2 S^{-T} (P + P^T) S^{-1},  P = Phi(S^T dSqrt)
//
// where dSqrt holds the gradient over the lower triangle of S. Then
//
//	dEta1 = dMu - 2 Sigma_bar mu
//	dEta2 = Sigma_bar
func ExpectationGradient(dMu *mat.VecDense, dSqrt *mat.TriDense, mu *mat.VecDense, sqrt *mat.TriDense) (*mat.VecDense, *mat.SymDense, error) {
	n := mu.Len()

	var m mat.Dense
	m.Mul(sqrt.T(), dSqrt)
	phi(&m)

	// W = P + P^T.
	w := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w.Set(i, j, m.At(i, j)+m.At(j, i))
		}
	}

	// A = S^{-T} W.
	a := mat.NewDense(n, n, nil)
	if err := TriSolve(a, sqrt, w, true); err != nil {
		return nil, nil, err
	}
	// B^T = S^{-T} A^T, so that B = A S^{-1}.
	at := mat.NewDense(n, n, nil)
	at.Copy(a.T())
	bt := mat.NewDense(n, n, nil)
	if err := TriSolve(bt, sqrt, at, true); err != nil {
		return nil, nil, err
	}

	// Sigma_bar = 1/2 B, symmetrized.
	dEta2 := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dEta2.SetSym(i, j, 0.25*(bt.At(j, i)+bt.At(i, j)))
		}
	}

	dEta1 := mat.NewVecDense(n, nil)
	dEta1.MulVec(dEta2, mu)
	dEta1.ScaleVec(-2, dEta1)
	dEta1.AddVec(dEta1, dMu)
	return dEta1, dEta2, nil
}

// MeanSqrtDirectional computes the directional derivative of the map from
// natural parameters to (mu, S), evaluated at the current parameters, in
// the direction (v1, v2). This is the Jacobian-vector product that carries
// a natural-gradient direction into mean/sqrt-covariance coordinates for
// the XiSqrtMeanVar transform:
//
//	dSigma = 2 Sigma v2 Sigma
//	dMu    = 2 Sigma v2 mu + Sigma v1
//	dS     = S Phi(S^{-1} dSigma S^{-T})
func MeanSqrtDirectional(mu *mat.VecDense, sqrt *mat.TriDense, v1 *mat.VecDense, v2 *mat.SymDense) (*mat.VecDense, *mat.TriDense, error) {
	n := mu.Len()

	sigma := mat.NewSymDense(n, nil)
	sigma.SymOuterK(1, sqrt)

	var tmp, dSigma mat.Dense
	tmp.Mul(sigma, v2)
	dSigma.Mul(&tmp, sigma)
	dSigma.Scale(2, &dSigma)

	dMu := mat.NewVecDense(n, nil)
	u := mat.NewVecDense(n, nil)
	u.MulVec(v2, mu)
	dMu.MulVec(sigma, u)
	dMu.ScaleVec(2, dMu)
	u.MulVec(sigma, v1)
	dMu.AddVec(dMu, u)

	// Y = S^{-1} dSigma S^{-T}.
	x := mat.NewDense(n, n, nil)
	if err := TriSolve(x, sqrt, &dSigma, false); err != nil {
		return nil, nil, err
	}
	xt := mat.NewDense(n, n, nil)
	xt.Copy(x.T())
	yt := mat.NewDense(n, n, nil)
	if err := TriSolve(yt, sqrt, xt, false); err != nil {
		return nil, nil, err
	}
	y := mat.NewDense(n, n, nil)
	y.Copy(yt.T())
	phi(y)

	var ds mat.Dense
	ds.Mul(sqrt, y)
	dSqrt := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			dSqrt.SetTri(i, j, ds.At(i, j))
		}
	}
	return dMu, dSqrt, nil
}

func identity(n int) *mat.Dense {
	eye := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		eye.Set(i, i, 1)
	}
	return eye
}

func finiteVec(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if math.IsNaN(v.AtVec(i)) || math.IsInf(v.AtVec(i), 0) {
			return false
		}
	}
	return true
}

func finiteTri(t *mat.TriDense) bool {
	n, _ := t.Triangle()
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if math.IsNaN(t.At(i, j)) || math.IsInf(t.At(i, j), 0) {
				return false
			}
		}
	}
	return true
}

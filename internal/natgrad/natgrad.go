// Package natgrad implements the natural-gradient optimizer for variational
// Gaussian parameters.
//
// One step converts the current (q_mu, q_sqrt) to natural parameters,
// evaluates the loss closure exactly once, maps the Euclidean gradient into
// natural-parameter space through the closed-form Gaussian Jacobians, takes
// the step there, and converts back. The step is all-or-nothing: every
// registered parameter pair is validated before any pair is written, so a
// failed step leaves the model exactly as it was.
package natgrad

import (
	"fmt"

	"github.com/vargo-ml/vargo/internal/gauss"
	"gonum.org/v1/gonum/mat"
)

// Gradient is the Euclidean gradient of a scalar loss with respect to one
// parameter pair, taken over the stored representation: the mean vector and
// the lower triangle of the covariance factor.
type Gradient struct {
	DMu   *mat.VecDense
	DSqrt *mat.TriDense
}

// LossClosure evaluates the loss and its gradients for every registered
// parameter pair, in registration order. A non-nil error aborts the step
// before any parameter is touched and is returned from Minimize unchanged,
// so a closure that hits a numerical failure while evaluating keeps its
// error type.
//
// The optimizer calls the closure exactly once per step. Closures that draw
// minibatches must therefore advance their data stream once per step, which
// keeps the loss value and its gradients consistent with each other.
type LossClosure func() (loss float64, grads []Gradient, err error)

// Pair is an update target: one output dimension's variational parameters,
// mutated in place, plus the coordinate system the step is expressed in.
// A nil Xi means the default natural-coordinate step.
type Pair struct {
	Mu   *mat.VecDense
	Sqrt *mat.TriDense
	Xi   Xi
}

// NaturalGradient performs natural-gradient descent steps of size Gamma on
// variational Gaussian parameters.
//
// Gamma = 1 recovers the exact posterior in one step when the likelihood is
// conjugate; smaller values trade speed for stability under minibatching or
// non-Gaussian likelihoods. The optimizer holds no state between steps.
type NaturalGradient struct {
	Gamma float64
}

// New returns a NaturalGradient optimizer with the given step size.
func New(gamma float64) *NaturalGradient {
	return &NaturalGradient{Gamma: gamma}
}

// Minimize takes one natural-gradient step on all pairs.
//
// Configuration problems (invalid gamma, shape mismatches, a gradient count
// that does not match the pair count) surface as *ConfigurationError before
// anything is mutated. Numerical failures (an indefinite covariance after
// the step, non-finite values) surface as *gauss.NumericalError, also
// before anything is mutated; the caller may lower Gamma and call again.
// An error reported by the closure itself is returned unchanged.
func (n *NaturalGradient) Minimize(loss LossClosure, pairs []Pair) error {
	if n.Gamma <= 0 {
		return &ConfigurationError{Msg: fmt.Sprintf("gamma must be positive, got %v", n.Gamma)}
	}
	if len(pairs) == 0 {
		return &ConfigurationError{Msg: "no parameter pairs"}
	}
	for i, p := range pairs {
		if p.Mu == nil || p.Sqrt == nil {
			return &ConfigurationError{Msg: fmt.Sprintf("pair %d: nil parameter", i)}
		}
		if d, _ := p.Sqrt.Triangle(); d != p.Mu.Len() {
			return &ConfigurationError{
				Msg: fmt.Sprintf("pair %d: q_mu has length %d but q_sqrt is %d-by-%d", i, p.Mu.Len(), d, d),
			}
		}
	}

	// Exactly one evaluation per step.
	_, grads, err := loss()
	if err != nil {
		return err
	}
	if len(grads) != len(pairs) {
		return &ConfigurationError{
			Msg: fmt.Sprintf("loss closure returned %d gradients for %d pairs", len(grads), len(pairs)),
		}
	}
	for i, g := range grads {
		if g.DMu.Len() != pairs[i].Mu.Len() {
			return &ConfigurationError{Msg: fmt.Sprintf("pair %d: gradient shape mismatch", i)}
		}
		if d, _ := g.DSqrt.Triangle(); d != pairs[i].Mu.Len() {
			return &ConfigurationError{Msg: fmt.Sprintf("pair %d: gradient shape mismatch", i)}
		}
	}

	// Compute every proposal, then commit. No pair is written until all
	// pairs have survived validation.
	type proposal struct {
		mu   *mat.VecDense
		sqrt *mat.TriDense
	}
	proposals := make([]proposal, len(pairs))
	for i, p := range pairs {
		dEta1, dEta2, err := gauss.ExpectationGradient(grads[i].DMu, grads[i].DSqrt, p.Mu, p.Sqrt)
		if err != nil {
			return err
		}
		xi := p.Xi
		if xi == nil {
			xi = XiNat{}
		}
		mu, sqrt, err := xi.propose(p.Mu, p.Sqrt, dEta1, dEta2, n.Gamma)
		if err != nil {
			return err
		}
		proposals[i] = proposal{mu: mu, sqrt: sqrt}
	}
	for i, p := range pairs {
		p.Mu.CopyVec(proposals[i].mu)
		copyLower(p.Sqrt, proposals[i].sqrt)
	}
	return nil
}

func copyLower(dst, src *mat.TriDense) {
	n, _ := src.Triangle()
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			dst.SetTri(i, j, src.At(i, j))
		}
	}
}

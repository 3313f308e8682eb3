// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gauss provides the variational Gaussian distribution and the
// closed-form conversions between its mean, natural, and expectation
// parameterizations.
package gauss

import (
	"github.com/vargo-ml/vargo/internal/gauss"
	"gonum.org/v1/gonum/mat"
)

// Gaussian is a variational Gaussian N(Mu, Sqrt Sqrt^T) with the
// covariance stored as its lower-triangular factor.
type Gaussian = gauss.Gaussian

// NumericalError reports a recoverable numerical failure such as a
// non-positive-definite covariance.
type NumericalError = gauss.NumericalError

// New returns a standard Gaussian N(0, I) of the given dimension.
func New(dim int) *Gaussian {
	return gauss.New(dim)
}

// NaturalFromMeanSqrt converts (mu, S) to the natural parameters
// (Sigma^{-1} mu, -1/2 Sigma^{-1}).
func NaturalFromMeanSqrt(mu *mat.VecDense, sqrt *mat.TriDense) (*mat.VecDense, *mat.SymDense, error) {
	return gauss.NaturalFromMeanSqrt(mu, sqrt)
}

// MeanSqrtFromNatural converts natural parameters back to (mu, S).
func MeanSqrtFromNatural(theta1 *mat.VecDense, theta2 *mat.SymDense) (*mat.VecDense, *mat.TriDense, error) {
	return gauss.MeanSqrtFromNatural(theta1, theta2)
}

// ExpectationGradient pulls a Euclidean gradient over (q_mu, q_sqrt) back
// to the expectation parameters, which for the Gaussian family is exactly
// the natural gradient.
func ExpectationGradient(dMu *mat.VecDense, dSqrt *mat.TriDense, mu *mat.VecDense, sqrt *mat.TriDense) (*mat.VecDense, *mat.SymDense, error) {
	return gauss.ExpectationGradient(dMu, dSqrt, mu, sqrt)
}

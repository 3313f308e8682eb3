// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package likelihoods provides observation models for Gaussian-process
// inference.
package likelihoods

import (
	"github.com/vargo-ml/vargo/internal/likelihoods"
)

// Likelihood maps latent function values to observations and supplies
// the variational expectations needed by the evidence lower bound.
type Likelihood = likelihoods.Likelihood

// Gaussian is an additive-noise likelihood with closed-form variational
// expectations.
type Gaussian = likelihoods.Gaussian

// Bernoulli is a probit classification likelihood over labels in {-1, +1}.
// Its variational expectations use Gauss-Hermite quadrature.
type Bernoulli = likelihoods.Bernoulli

// NewGaussian returns a Gaussian likelihood with the given noise variance.
func NewGaussian(variance float64) *Gaussian {
	return likelihoods.NewGaussian(variance)
}

// NewBernoulli returns a probit Bernoulli likelihood.
func NewBernoulli() *Bernoulli {
	return likelihoods.NewBernoulli()
}

// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package natgrad

import (
	"github.com/vargo-ml/vargo/internal/natgrad"
)

// NaturalGradient performs natural-gradient descent on variational
// Gaussian parameters.
type NaturalGradient = natgrad.NaturalGradient

// LossClosure evaluates the loss and its Euclidean gradients once per
// optimizer step.
type LossClosure = natgrad.LossClosure

// Gradient is the Euclidean gradient for one parameter pair.
type Gradient = natgrad.Gradient

// Pair is one in-place update target: (q_mu, q_sqrt) plus an optional
// coordinate transform.
type Pair = natgrad.Pair

// Xi identifies the coordinate system a step is expressed in.
type Xi = natgrad.Xi

// XiNat is the default transform: the step is taken directly on the
// natural parameters.
type XiNat = natgrad.XiNat

// XiSqrtMeanVar expresses the step in mean/sqrt-covariance coordinates.
type XiSqrtMeanVar = natgrad.XiSqrtMeanVar

// ConfigurationError reports an invalid optimizer setup, raised before any
// parameter is mutated.
type ConfigurationError = natgrad.ConfigurationError

// New returns a NaturalGradient optimizer with the given step size.
//
// Example:
//
//	opt := natgrad.New(1.0)
//	if err := opt.Minimize(model.LossClosure(), model.Pairs(nil)); err != nil {
//	    return err
//	}
func New(gamma float64) *NaturalGradient {
	return natgrad.New(gamma)
}

// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/vargo-ml/vargo/internal/optim"
)

// Optimizer is the interface shared by the Euclidean optimizers. It is
// used for kernel and likelihood hyperparameters; variational parameters
// are handled by the natgrad package.
type Optimizer = optim.Optimizer

// Param is a named float64 slice with an accumulated gradient.
type Param = optim.Param

// Config holds options common to all optimizers.
type Config = optim.Config

// SGD implements stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig holds SGD options. Zero values select the defaults.
type SGDConfig = optim.SGDConfig

// Adam implements the Adam optimizer with bias-corrected moments.
type Adam = optim.Adam

// AdamConfig holds Adam options. Zero values select the defaults.
type AdamConfig = optim.AdamConfig

// NewParam returns a named parameter wrapping vals.
func NewParam(name string, vals ...float64) *Param {
	return optim.NewParam(name, vals...)
}

// NewSGD returns an SGD optimizer over params.
func NewSGD(params []*Param, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// NewAdam returns an Adam optimizer over params.
func NewAdam(params []*Param, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}

// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernels provides stationary covariance functions for
// Gaussian-process models.
package kernels

import (
	"github.com/vargo-ml/vargo/internal/kernels"
)

// Kernel is a positive-definite covariance function with trainable
// hyperparameters.
type Kernel = kernels.Kernel

// RBF is the squared-exponential kernel.
type RBF = kernels.RBF

// Matern32 is the Matern kernel with smoothness 3/2.
type Matern32 = kernels.Matern32

// Matern52 is the Matern kernel with smoothness 5/2.
type Matern52 = kernels.Matern52

// NewRBF returns a squared-exponential kernel with the given signal
// variance and lengthscale.
func NewRBF(variance, lengthscale float64) *RBF {
	return kernels.NewRBF(variance, lengthscale)
}

// NewMatern32 returns a Matern 3/2 kernel.
func NewMatern32(variance, lengthscale float64) *Matern32 {
	return kernels.NewMatern32(variance, lengthscale)
}

// NewMatern52 returns a Matern 5/2 kernel.
func NewMatern52(variance, lengthscale float64) *Matern52 {
	return kernels.NewMatern52(variance, lengthscale)
}

// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides Gaussian-process regression and variational
// models over the kernels and likelihoods packages.
package models

import (
	"gonum.org/v1/gonum/mat"

	"github.com/vargo-ml/vargo/internal/kernels"
	"github.com/vargo-ml/vargo/internal/likelihoods"
	"github.com/vargo-ml/vargo/internal/models"
)

// GPR is exact Gaussian-process regression with a Gaussian likelihood.
type GPR = models.GPR

// VGP is a variational Gaussian process with one whitened Gaussian
// posterior per output column.
type VGP = models.VGP

// SGPR is the sparse collapsed-bound regression model of Titsias.
type SGPR = models.SGPR

// SVGP is a stochastic sparse variational Gaussian process trained on
// minibatches.
type SVGP = models.SVGP

// NewGPR returns an exact regression model over the training set (x, y).
func NewGPR(x, y *mat.Dense, kern kernels.Kernel, noiseVariance float64) *GPR {
	return models.NewGPR(x, y, kern, noiseVariance)
}

// NewVGP returns a variational model over the full training set (x, y).
func NewVGP(x, y *mat.Dense, kern kernels.Kernel, lik likelihoods.Likelihood) (*VGP, error) {
	return models.NewVGP(x, y, kern, lik)
}

// NewSGPR returns a collapsed sparse regression model with inducing
// inputs z.
func NewSGPR(x, y *mat.Dense, kern kernels.Kernel, z *mat.Dense, noiseVariance float64) *SGPR {
	return models.NewSGPR(x, y, kern, z, noiseVariance)
}

// NewSVGP returns a sparse variational model with inducing inputs z.
// numData is the total dataset size used to rescale minibatch likelihood
// terms, and outputs the number of independent output columns.
func NewSVGP(kern kernels.Kernel, lik likelihoods.Likelihood, z *mat.Dense, numData, outputs int) (*SVGP, error) {
	return models.NewSVGP(kern, lik, z, numData, outputs)
}

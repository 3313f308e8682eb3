// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides Euclidean gradient-based optimizers for model
// hyperparameters.
//
// Models expose their trainable hyperparameters as []*Param; an
// Optimizer updates them in place from accumulated gradients:
//
//	gpr := models.NewGPR(x, y, kernels.NewRBF(1, 1), 0.1)
//	opt := optim.NewAdam(gpr.Params(), optim.AdamConfig{LR: 0.01})
//	for i := 0; i < iters; i++ {
//	    opt.ZeroGrad()
//	    if _, err := gpr.LossAndGradients(); err != nil {
//	        return err
//	    }
//	    opt.Step()
//	}
//
// Variational Gaussian parameters are deliberately outside this package;
// they are updated by the natgrad package, which follows the information
// geometry of the Gaussian family instead of the Euclidean metric.
package optim

// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package natgrad provides the natural-gradient optimizer for variational
// Gaussian-process inference.
//
// # Overview
//
// A natural-gradient step is steepest descent under the Fisher-information
// metric of the Gaussian family rather than the Euclidean metric of the
// raw parameters. For a Gaussian the Fisher metric is exactly the Jacobian
// between the natural parameters (Sigma^{-1} mu, -1/2 Sigma^{-1}) and the
// expectation parameters (mu, Sigma + mu mu^T), so the natural gradient is
// obtained in closed form: it is the ordinary gradient expressed in
// expectation coordinates, and the step is taken on the natural
// coordinates.
//
// With a conjugate (Gaussian) likelihood a single step of size one lands
// exactly on the optimal variational posterior. With minibatches or
// non-Gaussian likelihoods, smaller step sizes trade speed for stability.
//
// # Usage
//
//	vgp, err := models.NewVGP(x, y, kernels.NewMatern52(1, 1), likelihoods.NewGaussian(0.1))
//	if err != nil {
//	    return err
//	}
//	opt := natgrad.New(1.0)
//	if err := opt.Minimize(vgp.LossClosure(), vgp.Pairs(nil)); err != nil {
//	    return err
//	}
//
// A step is all-or-nothing: on a *gauss.NumericalError (for example an
// overshoot that breaks positive definiteness) no parameter has been
// modified, and the caller may lower Gamma and call Minimize again.
package natgrad

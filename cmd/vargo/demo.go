// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/vargo-ml/vargo/data"
	"github.com/vargo-ml/vargo/kernels"
	"github.com/vargo-ml/vargo/likelihoods"
	"github.com/vargo-ml/vargo/models"
	"github.com/vargo-ml/vargo/natgrad"
	"github.com/vargo-ml/vargo/optim"
)

var (
	demoSeed  uint64
	demoIters int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run built-in demonstrations",
}

var demoNatgradCmd = &cobra.Command{
	Use:   "natgrad",
	Short: "Demonstrate natural-gradient steps on synthetic data",
	Long: `Generate a small synthetic regression problem and walk through the
natural-gradient results on it:

1. Exact GPR log marginal likelihood as the reference value.
2. A single gamma=1 natural-gradient step on a VGP, which recovers
   the exact posterior because the likelihood is conjugate.
3. The collapsed SGPR bound against one full-batch step on an SVGP.
4. Stochastic natural gradients on minibatches.
5. Adam on the GPR hyperparameters.
6. A non-conjugate classification model under two parameterizations.`,
	RunE: runDemoNatgrad,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.AddCommand(demoNatgradCmd)

	demoNatgradCmd.Flags().Uint64Var(&demoSeed, "seed", 0, "Random seed for the synthetic data")
	demoNatgradCmd.Flags().IntVar(&demoIters, "iters", 100, "Iterations for the stochastic and Adam phases")
}

const (
	demoN       = 100
	demoD       = 2
	demoOutputs = 2
	demoM       = 10
	demoNoise   = 0.1
	demoBatch   = 50
)

// syntheticData draws inputs uniformly on [0, 1)^d and maps each column
// through sin(10 x).
func syntheticData(seed uint64) (x, y *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x = mat.NewDense(demoN, demoD, nil)
	y = mat.NewDense(demoN, demoOutputs, nil)
	for i := 0; i < demoN; i++ {
		for j := 0; j < demoD; j++ {
			v := rng.Float64()
			x.Set(i, j, v)
			y.Set(i, j, math.Sin(10*v))
		}
	}
	return x, y
}

// inducingFrom takes the first m rows of x as inducing inputs.
func inducingFrom(x *mat.Dense, m int) *mat.Dense {
	_, d := x.Dims()
	z := mat.NewDense(m, d, nil)
	z.Copy(x.Slice(0, m, 0, d))
	return z
}

func runDemoNatgrad(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	x, y := syntheticData(demoSeed)

	if err := demoConjugate(w, x, y); err != nil {
		return err
	}
	if err := demoSparse(w, x, y); err != nil {
		return err
	}
	if err := demoMinibatch(w, x, y); err != nil {
		return err
	}
	if err := demoHyper(w, x, y); err != nil {
		return err
	}
	return demoClassification(w, x)
}

// demoConjugate shows that a single gamma=1 step on a conjugate VGP
// reaches the exact GPR log marginal likelihood.
func demoConjugate(w io.Writer, x, y *mat.Dense) error {
	fmt.Fprintln(w, "== Conjugate recovery ==")

	gpr := models.NewGPR(x, y, kernels.NewMatern52(1, 1), demoNoise)
	lml, err := gpr.LogMarginalLikelihood()
	if err != nil {
		return fmt.Errorf("gpr marginal likelihood: %w", err)
	}
	fmt.Fprintf(w, "GPR log marginal likelihood: %.6f\n", lml)

	vgp, err := models.NewVGP(x, y, kernels.NewMatern52(1, 1), likelihoods.NewGaussian(demoNoise))
	if err != nil {
		return fmt.Errorf("build vgp: %w", err)
	}
	fmt.Fprintf(w, "VGP ELBO before step:        %.6f\n", vgp.ELBO())

	opt := natgrad.New(1.0)
	if err := opt.Minimize(vgp.LossClosure(), vgp.Pairs(nil)); err != nil {
		return fmt.Errorf("natural-gradient step: %w", err)
	}
	fmt.Fprintf(w, "VGP ELBO after one step:     %.6f\n\n", vgp.ELBO())
	return nil
}

// demoSparse compares the collapsed SGPR bound with one full-batch
// natural-gradient step on an equivalent SVGP.
func demoSparse(w io.Writer, x, y *mat.Dense) error {
	fmt.Fprintln(w, "== Sparse models ==")

	z := inducingFrom(x, demoM)
	sgpr := models.NewSGPR(x, y, kernels.NewMatern52(1, 1), z, demoNoise)
	bound, err := sgpr.ELBO()
	if err != nil {
		return fmt.Errorf("sgpr bound: %w", err)
	}
	fmt.Fprintf(w, "SGPR collapsed bound:        %.6f\n", bound)

	svgp, err := models.NewSVGP(kernels.NewMatern52(1, 1), likelihoods.NewGaussian(demoNoise), z, demoN, demoOutputs)
	if err != nil {
		return fmt.Errorf("build svgp: %w", err)
	}

	full := func() (*mat.Dense, *mat.Dense) { return x, y }
	opt := natgrad.New(1.0)
	if err := opt.Minimize(svgp.LossClosure(full), svgp.Pairs(nil)); err != nil {
		return fmt.Errorf("natural-gradient step: %w", err)
	}
	elbo, err := svgp.ELBO(x, y)
	if err != nil {
		return fmt.Errorf("svgp elbo: %w", err)
	}
	fmt.Fprintf(w, "SVGP ELBO after one step:    %.6f\n\n", elbo)
	return nil
}

// demoMinibatch runs stochastic natural gradients with a damped step
// size. Batches come from a seeded Batcher, so repeated runs with the
// same seed produce identical traces.
func demoMinibatch(w io.Writer, x, y *mat.Dense) error {
	fmt.Fprintln(w, "== Stochastic natural gradients ==")

	ds, err := data.New(x, y)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	batcher := data.NewBatcher(ds, demoBatch, demoSeed)

	z := inducingFrom(x, demoM)
	svgp, err := models.NewSVGP(kernels.NewMatern52(1, 1), likelihoods.NewGaussian(demoNoise), z, demoN, demoOutputs)
	if err != nil {
		return fmt.Errorf("build svgp: %w", err)
	}

	opt := natgrad.New(0.1)
	loss := svgp.LossClosure(batcher.Next)
	pairs := svgp.Pairs(nil)
	for i := 0; i < demoIters; i++ {
		if err := opt.Minimize(loss, pairs); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
	}
	elbo, err := svgp.ELBO(x, y)
	if err != nil {
		return fmt.Errorf("svgp elbo: %w", err)
	}
	fmt.Fprintf(w, "SVGP ELBO after %d minibatch steps (gamma=0.1): %.6f\n\n", demoIters, elbo)
	return nil
}

// demoHyper trains the GPR hyperparameters with Adam using the analytic
// marginal-likelihood gradients.
func demoHyper(w io.Writer, x, y *mat.Dense) error {
	fmt.Fprintln(w, "== Hyperparameter training ==")

	gpr := models.NewGPR(x, y, kernels.NewMatern52(1, 1), demoNoise)
	opt := optim.NewAdam(gpr.Params(), optim.AdamConfig{LR: 0.01})

	var nll float64
	var err error
	for i := 0; i < demoIters; i++ {
		opt.ZeroGrad()
		nll, err = gpr.LossAndGradients()
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		opt.Step()
	}
	fmt.Fprintf(w, "GPR negative log marginal likelihood after %d Adam steps: %.6f\n\n", demoIters, nll)
	return nil
}

// demoClassification runs a probit VGP under the default natural
// parameterization and under the sqrt mean-variance transform. The
// likelihood is non-conjugate, so neither converges in one step and
// the damped traces differ between the two coordinate systems.
func demoClassification(w io.Writer, x *mat.Dense) error {
	fmt.Fprintln(w, "== Non-conjugate classification ==")

	// Threshold the first input column into +-1 labels.
	n, _ := x.Dims()
	labels := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if x.At(i, 0) > 0.5 {
			labels.Set(i, 0, 1)
		} else {
			labels.Set(i, 0, -1)
		}
	}

	for _, run := range []struct {
		name string
		xi   natgrad.Xi
	}{
		{"natural (default)", natgrad.XiNat{}},
		{"sqrt mean-variance", natgrad.XiSqrtMeanVar{}},
	} {
		vgp, err := models.NewVGP(x, labels, kernels.NewRBF(1, 1), likelihoods.NewBernoulli())
		if err != nil {
			return fmt.Errorf("build vgp: %w", err)
		}
		opt := natgrad.New(0.1)
		loss := vgp.LossClosure()
		pairs := vgp.Pairs(run.xi)
		for i := 0; i < demoIters; i++ {
			if err := opt.Minimize(loss, pairs); err != nil {
				return fmt.Errorf("%s iteration %d: %w", run.name, i, err)
			}
		}
		fmt.Fprintf(w, "Bernoulli VGP ELBO, %s: %.6f\n", run.name, vgp.ELBO())
	}
	return nil
}

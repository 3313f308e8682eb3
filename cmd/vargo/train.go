// Copyright 2026 The Vargo Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/vargo-ml/vargo/data"
	"github.com/vargo-ml/vargo/kernels"
	"github.com/vargo-ml/vargo/likelihoods"
	"github.com/vargo-ml/vargo/models"
	"github.com/vargo-ml/vargo/natgrad"
	"github.com/vargo-ml/vargo/optim"
)

var trainConfigPath string

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model described by a YAML config",
	Long: `Train a Gaussian-process model described by a YAML config file.

Variational parameters are trained with natural gradients; for GPR the
hyperparameters are trained with Adam instead. Example config:

  model: svgp
  kernel:
    type: matern52
    variance: 1.0
    lengthscale: 1.0
  likelihood: gaussian
  noise_variance: 0.1
  inducing: 10
  gamma: 0.1
  adam_lr: 0.01
  iterations: 200
  batch_size: 50
  seed: 1
  data:
    csv: train.csv
    input_cols: 2

Omitting the data section falls back to the synthetic sin(10x) problem
used by 'vargo demo natgrad'.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVarP(&trainConfigPath, "config", "c", "train.yaml", "Path to the YAML config")
}

type dataConfig struct {
	CSV       string `yaml:"csv"`
	InputCols int    `yaml:"input_cols"`
}

type kernelConfig struct {
	Type        string  `yaml:"type"`
	Variance    float64 `yaml:"variance"`
	Lengthscale float64 `yaml:"lengthscale"`
}

type trainConfig struct {
	Model         string       `yaml:"model"`
	Kernel        kernelConfig `yaml:"kernel"`
	Likelihood    string       `yaml:"likelihood"`
	NoiseVariance float64      `yaml:"noise_variance"`
	Inducing      int          `yaml:"inducing"`
	Gamma         float64      `yaml:"gamma"`
	AdamLR        float64      `yaml:"adam_lr"`
	Iterations    int          `yaml:"iterations"`
	BatchSize     int          `yaml:"batch_size"`
	Seed          uint64       `yaml:"seed"`
	Data          dataConfig   `yaml:"data"`
}

func loadTrainConfig(path string) (*trainConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &trainConfig{
		Model:         "vgp",
		Kernel:        kernelConfig{Type: "matern52", Variance: 1, Lengthscale: 1},
		Likelihood:    "gaussian",
		NoiseVariance: 0.1,
		Inducing:      10,
		Gamma:         1.0,
		AdamLR:        0.01,
		Iterations:    100,
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *trainConfig) kernel() (kernels.Kernel, error) {
	switch c.Kernel.Type {
	case "rbf":
		return kernels.NewRBF(c.Kernel.Variance, c.Kernel.Lengthscale), nil
	case "matern32":
		return kernels.NewMatern32(c.Kernel.Variance, c.Kernel.Lengthscale), nil
	case "matern52":
		return kernels.NewMatern52(c.Kernel.Variance, c.Kernel.Lengthscale), nil
	default:
		return nil, fmt.Errorf("unknown kernel type %q", c.Kernel.Type)
	}
}

func (c *trainConfig) likelihood() (likelihoods.Likelihood, error) {
	switch c.Likelihood {
	case "gaussian":
		return likelihoods.NewGaussian(c.NoiseVariance), nil
	case "bernoulli":
		return likelihoods.NewBernoulli(), nil
	default:
		return nil, fmt.Errorf("unknown likelihood %q", c.Likelihood)
	}
}

func (c *trainConfig) dataset() (*data.Dataset, error) {
	if c.Data.CSV != "" {
		if c.Data.InputCols <= 0 {
			return nil, fmt.Errorf("data.input_cols must be positive when data.csv is set")
		}
		return data.FromCSV(c.Data.CSV, c.Data.InputCols)
	}
	x, y := syntheticData(c.Seed)
	return data.New(x, y)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadTrainConfig(trainConfigPath)
	if err != nil {
		return err
	}
	ds, err := cfg.dataset()
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	kern, err := cfg.kernel()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch cfg.Model {
	case "gpr":
		return trainGPR(w, cfg, ds, kern)
	case "sgpr":
		return trainSGPR(w, cfg, ds, kern)
	case "vgp":
		return trainVGP(w, cfg, ds, kern)
	case "svgp":
		return trainSVGP(w, cfg, ds, kern)
	default:
		return fmt.Errorf("unknown model %q", cfg.Model)
	}
}

func trainGPR(w io.Writer, cfg *trainConfig, ds *data.Dataset, kern kernels.Kernel) error {
	gpr := models.NewGPR(ds.X, ds.Y, kern, cfg.NoiseVariance)
	opt := optim.NewAdam(gpr.Params(), optim.AdamConfig{LR: cfg.AdamLR})
	for i := 0; i < cfg.Iterations; i++ {
		opt.ZeroGrad()
		nll, err := gpr.LossAndGradients()
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		opt.Step()
		logEvery(w, i, cfg.Iterations, "nll", nll)
	}
	lml, err := gpr.LogMarginalLikelihood()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "final log marginal likelihood: %.6f\n", lml)
	return nil
}

func trainSGPR(w io.Writer, cfg *trainConfig, ds *data.Dataset, kern kernels.Kernel) error {
	z, err := inducingPoints(ds, cfg.Inducing)
	if err != nil {
		return err
	}
	sgpr := models.NewSGPR(ds.X, ds.Y, kern, z, cfg.NoiseVariance)
	bound, err := sgpr.ELBO()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "collapsed bound: %.6f\n", bound)
	return nil
}

func trainVGP(w io.Writer, cfg *trainConfig, ds *data.Dataset, kern kernels.Kernel) error {
	lik, err := cfg.likelihood()
	if err != nil {
		return err
	}
	vgp, err := models.NewVGP(ds.X, ds.Y, kern, lik)
	if err != nil {
		return err
	}
	opt := natgrad.New(cfg.Gamma)
	loss := vgp.LossClosure()
	pairs := vgp.Pairs(nil)
	for i := 0; i < cfg.Iterations; i++ {
		if err := opt.Minimize(loss, pairs); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		logEvery(w, i, cfg.Iterations, "elbo", vgp.ELBO())
	}
	fmt.Fprintf(w, "final ELBO: %.6f\n", vgp.ELBO())
	return nil
}

func trainSVGP(w io.Writer, cfg *trainConfig, ds *data.Dataset, kern kernels.Kernel) error {
	lik, err := cfg.likelihood()
	if err != nil {
		return err
	}
	z, err := inducingPoints(ds, cfg.Inducing)
	if err != nil {
		return err
	}
	_, outputs := ds.Y.Dims()
	svgp, err := models.NewSVGP(kern, lik, z, ds.N(), outputs)
	if err != nil {
		return err
	}

	next := func() (*mat.Dense, *mat.Dense) { return ds.X, ds.Y }
	if cfg.BatchSize > 0 && cfg.BatchSize < ds.N() {
		next = data.NewBatcher(ds, cfg.BatchSize, cfg.Seed).Next
	}

	opt := natgrad.New(cfg.Gamma)
	loss := svgp.LossClosure(next)
	pairs := svgp.Pairs(nil)
	for i := 0; i < cfg.Iterations; i++ {
		if err := opt.Minimize(loss, pairs); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		if (i+1)%logInterval(cfg.Iterations) == 0 {
			elbo, err := svgp.ELBO(ds.X, ds.Y)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "iter %4d  elbo %.6f\n", i+1, elbo)
		}
	}
	elbo, err := svgp.ELBO(ds.X, ds.Y)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "final ELBO: %.6f\n", elbo)
	return nil
}

func inducingPoints(ds *data.Dataset, m int) (*mat.Dense, error) {
	if m <= 0 || m > ds.N() {
		return nil, fmt.Errorf("inducing must be in [1, %d], got %d", ds.N(), m)
	}
	return inducingFrom(ds.X, m), nil
}

func logInterval(iters int) int {
	interval := iters / 10
	if interval < 1 {
		interval = 1
	}
	return interval
}

func logEvery(w io.Writer, i, iters int, label string, value float64) {
	if (i+1)%logInterval(iters) == 0 {
		fmt.Fprintf(w, "iter %4d  %s %.6f\n", i+1, label, value)
	}
}

package kernels

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matern32 is the Matern kernel with smoothness 3/2:
//
//	k(r) = sigma^2 (1 + a) exp(-a),  a = sqrt(3) r / l
type Matern32 struct {
	stationary
}

// NewMatern32 creates a Matern 3/2 kernel.
func NewMatern32(variance, lengthscale float64) *Matern32 {
	return &Matern32{stationary: newStationary(variance, lengthscale)}
}

func (k *Matern32) value(r float64) float64 {
	a := math.Sqrt(3) * r / k.Lengthscale()
	return k.Variance() * (1 + a) * math.Exp(-a)
}

// lengthscaleDeriv is dk/d(log l) = sigma^2 a^2 exp(-a).
func (k *Matern32) lengthscaleDeriv(r float64) float64 {
	a := math.Sqrt(3) * r / k.Lengthscale()
	return k.Variance() * a * a * math.Exp(-a)
}

func (k *Matern32) Matrix(dst *mat.SymDense, x *mat.Dense) { k.matrix(dst, x, k.value) }

func (k *Matern32) Cross(dst *mat.Dense, x, z *mat.Dense) { k.cross(dst, x, z, k.value) }

func (k *Matern32) Diag(dst []float64, x *mat.Dense) { k.diag(dst, x, k.value) }

func (k *Matern32) ParamDeriv(dst *mat.SymDense, x *mat.Dense, i int) {
	k.paramDeriv(dst, x, i, k.value, k.lengthscaleDeriv)
}

// Matern52 is the Matern kernel with smoothness 5/2:
//
//	k(r) = sigma^2 (1 + a + a^2/3) exp(-a),  a = sqrt(5) r / l
//
// Twice-differentiable sample paths; the default choice for regression
// problems where RBF is implausibly smooth.
type Matern52 struct {
	stationary
}

// NewMatern52 creates a Matern 5/2 kernel.
func NewMatern52(variance, lengthscale float64) *Matern52 {
	return &Matern52{stationary: newStationary(variance, lengthscale)}
}

func (k *Matern52) value(r float64) float64 {
	a := math.Sqrt(5) * r / k.Lengthscale()
	return k.Variance() * (1 + a + a*a/3) * math.Exp(-a)
}

// lengthscaleDeriv is dk/d(log l) = sigma^2 a^2 (1 + a)/3 exp(-a).
func (k *Matern52) lengthscaleDeriv(r float64) float64 {
	a := math.Sqrt(5) * r / k.Lengthscale()
	return k.Variance() * a * a * (1 + a) / 3 * math.Exp(-a)
}

func (k *Matern52) Matrix(dst *mat.SymDense, x *mat.Dense) { k.matrix(dst, x, k.value) }

func (k *Matern52) Cross(dst *mat.Dense, x, z *mat.Dense) { k.cross(dst, x, z, k.value) }

func (k *Matern52) Diag(dst []float64, x *mat.Dense) { k.diag(dst, x, k.value) }

func (k *Matern52) ParamDeriv(dst *mat.SymDense, x *mat.Dense, i int) {
	k.paramDeriv(dst, x, i, k.value, k.lengthscaleDeriv)
}

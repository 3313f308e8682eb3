package kernels

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RBF is the squared-exponential (radial basis function) kernel
//
//	k(r) = sigma^2 exp(-r^2 / (2 l^2))
//
// Infinitely smooth; often too smooth for physical data, in which case
// prefer one of the Matern kernels.
type RBF struct {
	stationary
}

// NewRBF creates an RBF kernel with the given variance and lengthscale.
func NewRBF(variance, lengthscale float64) *RBF {
	return &RBF{stationary: newStationary(variance, lengthscale)}
}

func (k *RBF) value(r float64) float64 {
	l := k.Lengthscale()
	return k.Variance() * math.Exp(-r*r/(2*l*l))
}

// lengthscaleDeriv is dk/d(log l) = k(r) * r^2 / l^2.
func (k *RBF) lengthscaleDeriv(r float64) float64 {
	l := k.Lengthscale()
	return k.value(r) * r * r / (l * l)
}

func (k *RBF) Matrix(dst *mat.SymDense, x *mat.Dense) { k.matrix(dst, x, k.value) }

func (k *RBF) Cross(dst *mat.Dense, x, z *mat.Dense) { k.cross(dst, x, z, k.value) }

func (k *RBF) Diag(dst []float64, x *mat.Dense) { k.diag(dst, x, k.value) }

func (k *RBF) ParamDeriv(dst *mat.SymDense, x *mat.Dense, i int) {
	k.paramDeriv(dst, x, i, k.value, k.lengthscaleDeriv)
}

package kernels_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/vargo-ml/vargo/internal/kernels"
)

func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func testInputs() *mat.Dense {
	return mat.NewDense(4, 2, []float64{
		0.0, 0.0,
		0.3, -0.1,
		1.0, 0.5,
		-0.4, 0.8,
	})
}

// TestKernelValues checks each kernel against its closed form at a
// single separation.
func TestKernelValues(t *testing.T) {
	const (
		variance    = 1.5
		lengthscale = 0.8
		r           = 0.6
	)
	x := mat.NewDense(2, 1, []float64{0, r})

	cases := []struct {
		name string
		kern kernels.Kernel
		want float64
	}{
		{
			"rbf",
			kernels.NewRBF(variance, lengthscale),
			variance * math.Exp(-r*r/(2*lengthscale*lengthscale)),
		},
		{
			"matern32",
			kernels.NewMatern32(variance, lengthscale),
			func() float64 {
				a := math.Sqrt(3) * r / lengthscale
				return variance * (1 + a) * math.Exp(-a)
			}(),
		},
		{
			"matern52",
			kernels.NewMatern52(variance, lengthscale),
			func() float64 {
				a := math.Sqrt(5) * r / lengthscale
				return variance * (1 + a + a*a/3) * math.Exp(-a)
			}(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k := mat.NewSymDense(2, nil)
			tc.kern.Matrix(k, x)

			if !floatEqual(k.At(0, 0), variance, 1e-12) {
				t.Errorf("k(0) = %g, want %g", k.At(0, 0), variance)
			}
			if !floatEqual(k.At(0, 1), tc.want, 1e-12) {
				t.Errorf("k(%g) = %g, want %g", r, k.At(0, 1), tc.want)
			}
		})
	}
}

// TestMatrixCrossDiagAgree checks that the three fill methods agree on
// shared entries.
func TestMatrixCrossDiagAgree(t *testing.T) {
	x := testInputs()
	n, _ := x.Dims()
	kern := kernels.NewMatern52(1.3, 0.7)

	k := mat.NewSymDense(n, nil)
	kern.Matrix(k, x)

	cross := mat.NewDense(n, n, nil)
	kern.Cross(cross, x, x)

	diag := make([]float64, n)
	kern.Diag(diag, x)

	for i := 0; i < n; i++ {
		if !floatEqual(diag[i], k.At(i, i), 1e-12) {
			t.Errorf("diag[%d] = %g, matrix diagonal %g", i, diag[i], k.At(i, i))
		}
		for j := 0; j < n; j++ {
			if !floatEqual(cross.At(i, j), k.At(i, j), 1e-12) {
				t.Errorf("cross[%d,%d] = %g, matrix %g", i, j, cross.At(i, j), k.At(i, j))
			}
			if !floatEqual(k.At(i, j), k.At(j, i), 1e-12) {
				t.Errorf("matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

// TestParamDeriv_FiniteDifference checks the analytic log-space
// derivative matrices against central finite differences through the
// stored Params.
func TestParamDeriv_FiniteDifference(t *testing.T) {
	x := testInputs()
	n, _ := x.Dims()

	cases := []struct {
		name string
		kern kernels.Kernel
	}{
		{"rbf", kernels.NewRBF(1.4, 0.9)},
		{"matern32", kernels.NewMatern32(0.8, 1.2)},
		{"matern52", kernels.NewMatern52(1.1, 0.6)},
	}

	const eps = 1e-6
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := tc.kern.Params()
			if len(params) != 2 {
				t.Fatalf("Params() returned %d parameters, want 2", len(params))
			}

			for pi, p := range params {
				analytic := mat.NewSymDense(n, nil)
				tc.kern.ParamDeriv(analytic, x, pi)

				orig := p.Value()
				kPlus := mat.NewSymDense(n, nil)
				p.SetValue(orig + eps)
				tc.kern.Matrix(kPlus, x)
				kMinus := mat.NewSymDense(n, nil)
				p.SetValue(orig - eps)
				tc.kern.Matrix(kMinus, x)
				p.SetValue(orig)

				for i := 0; i < n; i++ {
					for j := i; j < n; j++ {
						fd := (kPlus.At(i, j) - kMinus.At(i, j)) / (2 * eps)
						if !floatEqual(analytic.At(i, j), fd, 1e-6) {
							t.Errorf("%s dK[%d,%d] = %g, finite difference %g",
								p.Name(), i, j, analytic.At(i, j), fd)
						}
					}
				}
			}
		})
	}
}

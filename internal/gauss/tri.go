package gauss

import (
	"gonum.org/v1/gonum/mat"
)

// TriSolve solves L X = B (or L^T X = B when trans is true) for a
// lower-triangular L, writing X into dst. dst must be n-by-c where B is
// n-by-c. The solve dispatches to the triangular BLAS path; a singular or
// badly conditioned factor reports a NumericalError.
func TriSolve(dst *mat.Dense, l *mat.TriDense, b mat.Matrix, trans bool) error {
	n, _ := l.Triangle()
	br, _ := b.Dims()
	if br != n {
		return numErrf("trisolve", "dimension mismatch: factor is %d, rhs has %d rows", n, br)
	}
	var a mat.Matrix = l
	if trans {
		a = l.T()
	}
	if err := dst.Solve(a, b); err != nil {
		return numErrf("trisolve", "factor is singular or badly conditioned: %v", err)
	}
	return nil
}

// TriSolveVec is TriSolve for a single right-hand-side vector.
func TriSolveVec(dst *mat.VecDense, l *mat.TriDense, b mat.Vector, trans bool) error {
	n, _ := l.Triangle()
	if b.Len() != n {
		return numErrf("trisolve", "dimension mismatch: factor is %d, rhs has length %d", n, b.Len())
	}
	var a mat.Matrix = l
	if trans {
		a = l.T()
	}
	if err := dst.SolveVec(a, b); err != nil {
		return numErrf("trisolve", "factor is singular or badly conditioned: %v", err)
	}
	return nil
}

// phi applies the lower-triangular projection with halved diagonal,
// Phi(X) = tril(X) - 1/2 diag(X), in place. It is the linear map that
// appears in both the forward and reverse differentials of the Cholesky
// product map S -> S S^T.
func phi(x *mat.Dense) {
	n, _ := x.Dims()
	for i := 0; i < n; i++ {
		x.Set(i, i, 0.5*x.At(i, i))
		for j := i + 1; j < n; j++ {
			x.Set(i, j, 0)
		}
	}
}

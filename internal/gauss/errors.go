package gauss

import "fmt"

// NumericalError reports a recoverable numerical failure: a proposed
// covariance that is not positive definite, or non-finite values produced
// by a conversion. Callers typically reduce the step size and retry; the
// operation that failed has not mutated any state.
type NumericalError struct {
	Op  string
	Msg string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("gauss: %s: %s", e.Op, e.Msg)
}

func numErrf(op, format string, args ...any) error {
	return &NumericalError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

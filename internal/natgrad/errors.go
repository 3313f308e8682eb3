package natgrad

// ConfigurationError reports an invalid optimizer setup: a non-positive
// step size, mismatched parameter and gradient shapes, or a closure that
// returned the wrong number of gradients. It is always raised before any
// parameter is mutated and is not recoverable by retrying.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "natgrad: " + e.Msg
}

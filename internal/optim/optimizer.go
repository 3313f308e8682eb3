// Package optim implements Euclidean optimization algorithms for model
// hyperparameters.
//
// This package provides:
//   - Param: a named trainable value with an attached gradient slot
//   - Optimizer interface: base interface for all optimizers
//   - SGD: stochastic gradient descent with momentum
//   - Adam: adaptive moment estimation
//
// Variational parameters are deliberately not represented here: they are
// owned by the natgrad optimizer. Partitioning parameters into disjoint
// groups up front, one group per optimizer, replaces mutable trainability
// flags on shared parameter objects.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Params(), optim.AdamConfig{
//	    LR: 0.01,
//	})
//
//	for i := 0; i < iterations; i++ {
//	    loss, err := model.LossAndGradients() // fills Param gradients
//	    if err != nil {
//	        return err
//	    }
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	    _ = loss
//	}
package optim

// Optimizer is the base interface for all Euclidean optimizers.
type Optimizer interface {
	// Step applies one gradient update to all parameters, reading each
	// parameter's gradient slot. Parameters whose gradient was never set
	// are skipped.
	Step()

	// ZeroGrad clears all parameter gradients. Call between steps so
	// gradients from previous iterations do not accumulate.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// Param is a named trainable value, scalar or vector, with an attached
// gradient slot. Positive quantities such as variances and lengthscales
// are stored log-transformed so that optimizers can treat every parameter
// as unconstrained.
type Param struct {
	name string
	val  []float64
	grad []float64
	set  bool
}

// NewParam creates a parameter holding the given values.
func NewParam(name string, vals ...float64) *Param {
	v := make([]float64, len(vals))
	copy(v, vals)
	return &Param{
		name: name,
		val:  v,
		grad: make([]float64, len(vals)),
	}
}

// Name returns the parameter name.
func (p *Param) Name() string { return p.name }

// Len returns the number of values.
func (p *Param) Len() int { return len(p.val) }

// Data returns the backing value slice. Mutations write through.
func (p *Param) Data() []float64 { return p.val }

// Value returns the first value; convenient for scalar parameters.
func (p *Param) Value() float64 { return p.val[0] }

// SetValue overwrites the first value.
func (p *Param) SetValue(v float64) { p.val[0] = v }

// Grad returns the gradient slice, or nil if no gradient has been set
// since the last ZeroGrad.
func (p *Param) Grad() []float64 {
	if !p.set {
		return nil
	}
	return p.grad
}

// SetGrad stores a gradient. The slice is copied.
func (p *Param) SetGrad(g []float64) {
	copy(p.grad, g)
	p.set = true
}

// AddGrad accumulates into the gradient slot.
func (p *Param) AddGrad(g []float64) {
	for i := range g {
		p.grad[i] += g[i]
	}
	p.set = true
}

// ZeroGrad clears the gradient slot.
func (p *Param) ZeroGrad() {
	for i := range p.grad {
		p.grad[i] = 0
	}
	p.set = false
}

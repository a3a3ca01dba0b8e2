package nn

import (
	"math/rand"

	"github.com/born-ml/resnet/internal/tensor"
)

// Parameter is a weight tensor owned by a layer.
//
// Trainable parameters receive gradients during Backward and are updated by
// an optimizer. Non-trainable ones (batch-norm moving statistics) are updated
// by the layer itself.
type Parameter struct {
	name        string         // Parameter name (e.g., "kernel", "moving_mean")
	tensor      *tensor.Tensor // The parameter tensor
	grad        *tensor.Tensor // Accumulated gradient, nil until first Backward
	trainable   bool
	initializer Initializer
	fanIn       int
	fanOut      int
	regularizer Regularizer
}

// NewParameter creates a trainable parameter around an existing tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t, trainable: true}
}

// newWeight allocates a zero tensor that Initialize will fill later.
func newWeight(name string, shape tensor.Shape, init Initializer, fanIn, fanOut int, trainable bool) *Parameter {
	return &Parameter{
		name:        name,
		tensor:      tensor.Zeros(shape),
		trainable:   trainable,
		initializer: init,
		fanIn:       fanIn,
		fanOut:      fanOut,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the accumulated gradient.
//
// Returns nil if no gradient has been computed yet (before backward pass).
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// Trainable reports whether an optimizer should update this parameter.
func (p *Parameter) Trainable() bool {
	return p.trainable
}

// Regularizer returns the weight penalty, or nil.
func (p *Parameter) Regularizer() Regularizer {
	return p.regularizer
}

// SetRegularizer attaches a weight penalty.
func (p *Parameter) SetRegularizer(r Regularizer) {
	p.regularizer = r
}

// Initialize fills the tensor from its initializer. Parameters created with
// NewParameter keep their values.
func (p *Parameter) Initialize(rng *rand.Rand) {
	if p.initializer == nil {
		return
	}
	values := p.initializer.Init(p.tensor.Shape(), p.fanIn, p.fanOut, rng)
	copy(p.tensor.Data(), values.Data())
}

// AccumulateGrad adds g into the gradient, allocating it on first use.
func (p *Parameter) AccumulateGrad(g *tensor.Tensor) {
	if p.grad == nil {
		p.grad = g.Clone()
		return
	}
	p.grad.AddInPlace(g)
}

// ZeroGrad clears the gradient.
//
// This should be called before each training iteration to avoid
// accumulating gradients from previous iterations.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// RegularizationLoss returns the penalty for this parameter, or 0.
func (p *Parameter) RegularizationLoss() float32 {
	if p.regularizer == nil {
		return 0
	}
	return p.regularizer.Loss(p.tensor)
}

// ApplyRegularization adds the penalty gradient into Grad.
func (p *Parameter) ApplyRegularization() {
	if p.regularizer == nil || !p.trainable {
		return
	}
	if p.grad == nil {
		p.grad = tensor.ZerosLike(p.tensor)
	}
	p.regularizer.AddGrad(p.tensor, p.grad)
}

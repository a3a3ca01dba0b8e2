package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// Add sums two or more inputs of identical shape. It is the merge point of a
// residual connection.
type Add struct {
	base
	arity int
}

// NewAdd creates an addition layer.
func NewAdd() *Add {
	return &Add{}
}

// Type returns "Add".
func (a *Add) Type() string { return "Add" }

// Build checks that every input has the same shape.
func (a *Add) Build(inputs ...tensor.Shape) (tensor.Shape, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("add %q: needs at least 2 inputs, got %d", a.name, len(inputs))
	}
	for i, s := range inputs[1:] {
		if !s.Equal(inputs[0]) {
			return nil, fmt.Errorf("add %q: %w: input 0 has shape %v, input %d has shape %v",
				a.name, tensor.ErrShapeMismatch, inputs[0], i+1, s)
		}
	}
	a.arity = len(inputs)
	return inputs[0].Clone(), nil
}

// Forward returns the element-wise sum.
func (a *Add) Forward(inputs []*tensor.Tensor, _ bool) *tensor.Tensor {
	if len(inputs) < 2 {
		panic("add: needs at least 2 inputs")
	}
	out := inputs[0].Clone()
	for _, in := range inputs[1:] {
		out.AddInPlace(in)
	}
	a.arity = len(inputs)
	return out
}

// Backward passes the gradient through unchanged to every input. The same
// tensor is returned for each input; callers must not modify it in place.
func (a *Add) Backward(grad *tensor.Tensor) []*tensor.Tensor {
	grads := make([]*tensor.Tensor, a.arity)
	for i := range grads {
		grads[i] = grad
	}
	return grads
}

// Parameters returns nil.
func (a *Add) Parameters() []*Parameter {
	return nil
}

// String returns a string representation of the layer.
func (a *Add) String() string {
	return "Add()"
}

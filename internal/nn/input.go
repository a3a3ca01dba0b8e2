package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// InputLayer marks a model entry point. It has no parameters and passes its
// tensor through after checking the per-sample shape.
type InputLayer struct {
	base
	shape tensor.Shape
}

// NewInputLayer creates an input placeholder for per-sample shape.
func NewInputLayer(shape tensor.Shape) *InputLayer {
	return &InputLayer{shape: shape.Clone()}
}

// Type returns "InputLayer".
func (l *InputLayer) Type() string { return "InputLayer" }

// Shape returns the per-sample input shape.
func (l *InputLayer) Shape() tensor.Shape { return l.shape }

// Build validates the declared shape; an InputLayer takes no graph inputs.
func (l *InputLayer) Build(inputs ...tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 0 {
		return nil, fmt.Errorf("input %q: takes no inputs", l.name)
	}
	if len(l.shape) == 0 {
		return nil, fmt.Errorf("input %q: empty shape", l.name)
	}
	if err := l.shape.Validate(); err != nil {
		return nil, fmt.Errorf("input %q: %w", l.name, err)
	}
	return l.shape.Clone(), nil
}

// Forward checks the batched shape and returns the input.
func (l *InputLayer) Forward(inputs []*tensor.Tensor, _ bool) *tensor.Tensor {
	input := single("input", inputs)
	got := input.Shape()
	if len(got) != len(l.shape)+1 || !got[1:].Equal(l.shape) {
		panic(fmt.Sprintf("input %q: expected batch of %v, got %v", l.name, l.shape, got))
	}
	return input
}

// Backward returns the gradient unchanged.
func (l *InputLayer) Backward(grad *tensor.Tensor) []*tensor.Tensor {
	return []*tensor.Tensor{grad}
}

// Parameters returns nil.
func (l *InputLayer) Parameters() []*Parameter {
	return nil
}

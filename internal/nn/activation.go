package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/resnet/internal/tensor"
)

// ActivationKind names an element-wise (or last-axis) non-linearity.
type ActivationKind string

const (
	// Linear is the identity.
	Linear ActivationKind = "linear"
	// ReLU applies max(0, x).
	ReLU ActivationKind = "relu"
	// Softmax normalizes the last axis into a probability distribution.
	Softmax ActivationKind = "softmax"
)

// ParseActivation validates an activation name. The empty string means Linear.
func ParseActivation(name string) (ActivationKind, error) {
	switch ActivationKind(name) {
	case "", Linear:
		return Linear, nil
	case ReLU, Softmax:
		return ActivationKind(name), nil
	}
	return "", fmt.Errorf("nn: unknown activation %q", name)
}

// activate applies kind to x and returns a new tensor.
func activate(kind ActivationKind, x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	data := out.Data()
	switch kind {
	case ReLU:
		for i, v := range data {
			if v < 0 {
				data[i] = 0
			}
		}
	case Softmax:
		shape := x.Shape()
		softmaxRows(data, shape[len(shape)-1])
	}
	return out
}

// activateBackward returns dL/dx given the activation output y and dL/dy.
func activateBackward(kind ActivationKind, y, grad *tensor.Tensor) *tensor.Tensor {
	switch kind {
	case ReLU:
		dx := grad.Clone()
		d := dx.Data()
		for i, v := range y.Data() {
			if v <= 0 {
				d[i] = 0
			}
		}
		return dx
	case Softmax:
		// dx = y * (g - Σ g*y) per row
		shape := y.Shape()
		n := shape[len(shape)-1]
		dx := tensor.ZerosLike(y)
		yd, gd, d := y.Data(), grad.Data(), dx.Data()
		for off := 0; off < len(yd); off += n {
			var dot float32
			for j := 0; j < n; j++ {
				dot += gd[off+j] * yd[off+j]
			}
			for j := 0; j < n; j++ {
				d[off+j] = yd[off+j] * (gd[off+j] - dot)
			}
		}
		return dx
	default:
		return grad
	}
}

// softmaxRows applies a numerically stable softmax to each row of width n.
func softmaxRows(data []float32, n int) {
	for off := 0; off < len(data); off += n {
		row := data[off : off+n]
		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sum float64
		for j, v := range row {
			e := math.Exp(float64(v - maxVal))
			row[j] = float32(e)
			sum += e
		}
		inv := float32(1 / sum)
		for j := range row {
			row[j] *= inv
		}
	}
}

// Activation applies a non-linearity as its own graph layer.
//
// Example:
//
//	relu := nn.NewActivation(nn.ReLU)
//	output := relu.Forward([]*tensor.Tensor{input}, true)
type Activation struct {
	base
	kind   ActivationKind
	output *tensor.Tensor
}

// NewActivation creates an activation layer.
func NewActivation(kind ActivationKind) *Activation {
	return &Activation{kind: kind}
}

// Type returns "Activation".
func (a *Activation) Type() string { return "Activation" }

// Kind returns the activation function.
func (a *Activation) Kind() ActivationKind { return a.kind }

// Build returns the input shape unchanged.
func (a *Activation) Build(inputs ...tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("activation %q: expects 1 input, got %d", a.name, len(inputs))
	}
	if _, err := ParseActivation(string(a.kind)); err != nil {
		return nil, err
	}
	if len(inputs[0]) == 0 {
		return nil, fmt.Errorf("activation %q: scalar input", a.name)
	}
	return inputs[0].Clone(), nil
}

// Forward applies the activation.
func (a *Activation) Forward(inputs []*tensor.Tensor, _ bool) *tensor.Tensor {
	a.output = activate(a.kind, single("activation", inputs))
	return a.output
}

// Backward applies the activation derivative.
func (a *Activation) Backward(grad *tensor.Tensor) []*tensor.Tensor {
	if a.output == nil {
		panic(fmt.Sprintf("activation %q: backward before forward", a.name))
	}
	return []*tensor.Tensor{activateBackward(a.kind, a.output, grad)}
}

// Parameters returns nil (activations have no trainable parameters).
func (a *Activation) Parameters() []*Parameter {
	return nil
}

// String returns a string representation of the layer.
func (a *Activation) String() string {
	return fmt.Sprintf("Activation(%s)", a.kind)
}

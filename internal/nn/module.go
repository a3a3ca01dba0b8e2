// Package nn implements the layers a convolutional classifier is assembled from.
//
// This package provides:
//   - Layer interface: shape inference, forward and backward for one graph node
//   - Parameter: weights with gradient, trainable flag, initializer and regularizer
//   - Conv2D, BatchNormalization, Activation, Add, GlobalAveragePooling2D,
//     Flatten, Dense and InputLayer
//   - Initializers (HeNormal, GlorotUniform, Zeros, Ones) and the L2 regularizer
//   - Categorical cross-entropy losses and accuracy
//
// Layers are built lazily: Build receives the per-sample input shapes (batch
// dimension excluded), allocates parameters and returns the output shape.
// Parameter values are filled in later by Parameter.Initialize so a whole
// model can be seeded from a single random source.
package nn

import (
	"errors"

	"github.com/born-ml/resnet/internal/tensor"
)

// ErrNotBuilt is returned when a layer is used before Build.
var ErrNotBuilt = errors.New("nn: layer not built")

// Layer is one node operation in a model graph.
//
// Forward caches whatever Backward needs, so a layer instance may appear at
// most once in a graph.
type Layer interface {
	// Name returns the unique layer name inside its model.
	Name() string

	// SetName renames the layer. Used when a model assigns default names.
	SetName(name string)

	// Type returns the layer class, e.g. "Conv2D".
	Type() string

	// Build validates per-sample input shapes, allocates parameters and
	// returns the per-sample output shape.
	Build(inputs ...tensor.Shape) (tensor.Shape, error)

	// Forward computes the output for batched inputs.
	Forward(inputs []*tensor.Tensor, training bool) *tensor.Tensor

	// Backward takes dL/dOutput and returns dL/dInput for each input, in
	// the same order as Forward's inputs. Parameter gradients are accumulated
	// into the layer's parameters.
	Backward(grad *tensor.Tensor) []*tensor.Tensor

	// Parameters returns every parameter (trainable or not).
	Parameters() []*Parameter
}

// base carries the name shared by every layer.
type base struct {
	name string
}

// Name returns the layer name.
func (b *base) Name() string {
	return b.name
}

// SetName renames the layer.
func (b *base) SetName(name string) {
	b.name = name
}

// single returns the only input or panics; used by single-input layers.
func single(op string, inputs []*tensor.Tensor) *tensor.Tensor {
	if len(inputs) != 1 {
		panic(op + ": expects exactly one input")
	}
	return inputs[0]
}

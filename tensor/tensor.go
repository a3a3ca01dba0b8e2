// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/resnet/internal/tensor"
)

// Shape is a list of dimensions.
type Shape = tensor.Shape

// Tensor is a dense float32 array.
type Tensor = tensor.Tensor

// Backend executes the compute-heavy kernels (convolution, matmul).
type Backend = tensor.Backend

// Padding selects the convolution border mode.
type Padding = tensor.Padding

// ConvParams describes a convolution's stride, dilation and padding.
type ConvParams = tensor.ConvParams

// Padding modes.
const (
	PaddingSame  = tensor.PaddingSame
	PaddingValid = tensor.PaddingValid
)

// ErrShapeMismatch is returned (wrapped) when shapes cannot be combined.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// New wraps data in a tensor of the given shape. It panics if the sizes differ.
func New(shape Shape, data []float32) *Tensor {
	return tensor.New(shape, data)
}

// FromSlice copies data into a new tensor, returning an error if the sizes differ.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	return tensor.Full(shape, value)
}

// Randn creates a tensor of standard normal samples drawn from rng.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	return tensor.Randn(shape, rng)
}

// Uniform creates a tensor of samples drawn uniformly from [low, high).
func Uniform(shape Shape, low, high float32, rng *rand.Rand) *Tensor {
	return tensor.Uniform(shape, low, high, rng)
}

// OneHot encodes class labels as a [len(labels), numClasses] tensor.
func OneHot(labels []int, numClasses int) *Tensor {
	return tensor.OneHot(labels, numClasses)
}

// ParsePadding validates a padding name ("same" or "valid").
func ParsePadding(s string) (Padding, error) {
	return tensor.ParsePadding(s)
}

// ConvOutputSize returns the output length of a convolution along one axis
// and the padding inserted before the first element.
func ConvOutputSize(in, kernel int, p ConvParams) (out, padBefore int) {
	return tensor.ConvOutputSize(in, kernel, p)
}

// Package tensor implements the dense float32 tensor used by the graph runtime.
//
// Tensors are plain row-major buffers with a shape. Heavy kernels
// (convolution, matrix multiplication) live behind the Backend interface so
// that layers never depend on a concrete implementation.
package tensor

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch is returned when data or operands do not agree on shape.
var ErrShapeMismatch = errors.New("tensor: shape mismatch")

// Tensor is a dense float32 tensor.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{2, 32, 32, 3}) // NHWC batch of two images
//	t.Data()[0] = 1
type Tensor struct {
	shape Shape
	data  []float32
}

// New wraps an existing buffer without copying it.
//
// Panics if len(data) does not match the shape.
func New(shape Shape, data []float32) *Tensor {
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("tensor: shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data)))
	}
	return &Tensor{shape: shape.Clone(), data: data}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}
	buf := make([]float32, len(data))
	copy(buf, data)
	return &Tensor{shape: shape.Clone(), data: buf}, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying buffer. Writes are visible to the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Len returns the total number of elements.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// At returns the element at flat index i.
func (t *Tensor) At(i int) float32 {
	return t.data[i]
}

// Set stores v at flat index i.
func (t *Tensor) Set(i int, v float32) {
	t.data[i] = v
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	buf := make([]float32, len(t.data))
	copy(buf, t.data)
	return &Tensor{shape: t.shape.Clone(), data: buf}
}

// Reshape returns a view with a new shape sharing the same buffer.
//
// One dimension may be -1 and is inferred from the others.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape := make(Shape, len(dims))
	copy(shape, dims)

	infer := -1
	known := 1
	for i, d := range shape {
		if d == -1 {
			if infer >= 0 {
				panic("tensor: reshape allows only one inferred dimension")
			}
			infer = i
			continue
		}
		known *= d
	}
	if infer >= 0 {
		if known == 0 || len(t.data)%known != 0 {
			panic(fmt.Sprintf("tensor: cannot reshape %v into %v", t.shape, dims))
		}
		shape[infer] = len(t.data) / known
	}
	if shape.NumElements() != len(t.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %v into %v", t.shape, shape))
	}
	return &Tensor{shape: shape, data: t.data}
}

// Equal reports whether both tensors have the same shape and every element
// differs by at most tol.
func (t *Tensor) Equal(other *Tensor, tol float32) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if math.Abs(float64(v-other.data[i])) > float64(tol) {
			return false
		}
	}
	return true
}

// String returns a short description, not the contents.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.shape)
}

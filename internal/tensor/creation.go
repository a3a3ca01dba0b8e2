package tensor

import (
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *Tensor {
	return &Tensor{shape: shape.Clone(), data: make([]float32, shape.NumElements())}
}

// ZerosLike creates a zero tensor with the same shape as t.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full(tensor.Shape{3, 3}, 3.14)
func Full(shape Shape, value float32) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
// Note: uses math/rand (not crypto/rand) - appropriate for ML/statistical purposes.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = float32(rng.NormFloat64())
	}
	return t
}

// Uniform creates a tensor with values drawn uniformly from [low, high).
func Uniform(shape Shape, low, high float32, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	span := high - low
	for i := range t.data {
		t.data[i] = low + span*rng.Float32()
	}
	return t
}

// OneHot encodes class indices as a [len(labels), numClasses] tensor.
func OneHot(labels []int, numClasses int) *Tensor {
	t := Zeros(Shape{len(labels), numClasses})
	for i, l := range labels {
		if l >= 0 && l < numClasses {
			t.data[i*numClasses+l] = 1
		}
	}
	return t
}

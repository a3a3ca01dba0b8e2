// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/tensor"
)

// Layer is a named operation with shape inference and layer-local
// forward and backward passes.
type Layer = nn.Layer

// Parameter is a weight tensor with its gradient.
type Parameter = nn.Parameter

// NewParameter creates a trainable parameter with the given name and tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// ErrNotBuilt is reported when a layer runs before Build.
var ErrNotBuilt = nn.ErrNotBuilt

// Layers

// Conv2D is a 2D convolution over channels-last images.
type Conv2D = nn.Conv2D

// Conv2DConfig configures Conv2D.
type Conv2DConfig = nn.Conv2DConfig

// NewConv2D creates an unbuilt Conv2D layer.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(nn.Conv2DConfig{Filters: 16, Strides: 2}, backend)
func NewConv2D(cfg Conv2DConfig, backend tensor.Backend) *Conv2D {
	return nn.NewConv2D(cfg, backend)
}

// BatchNormalization normalizes each channel over the batch.
type BatchNormalization = nn.BatchNormalization

// BatchNormConfig configures BatchNormalization (momentum 0.99, epsilon 1e-3
// by default).
type BatchNormConfig = nn.BatchNormConfig

// NewBatchNormalization creates an unbuilt BatchNormalization layer.
func NewBatchNormalization(cfg BatchNormConfig) *BatchNormalization {
	return nn.NewBatchNormalization(cfg)
}

// ActivationKind names a non-linearity.
type ActivationKind = nn.ActivationKind

// Activation kinds.
const (
	Linear  = nn.Linear
	ReLU    = nn.ReLU
	Softmax = nn.Softmax
)

// ParseActivation validates an activation name.
func ParseActivation(name string) (ActivationKind, error) {
	return nn.ParseActivation(name)
}

// Activation applies a non-linearity element-wise (softmax: over the last axis).
type Activation = nn.Activation

// NewActivation creates an Activation layer.
func NewActivation(kind ActivationKind) *Activation {
	return nn.NewActivation(kind)
}

// Add sums inputs of identical shape.
type Add = nn.Add

// NewAdd creates an Add layer.
func NewAdd() *Add {
	return nn.NewAdd()
}

// GlobalAveragePooling2D averages each channel over height and width.
type GlobalAveragePooling2D = nn.GlobalAveragePooling2D

// NewGlobalAveragePooling2D creates a GlobalAveragePooling2D layer.
func NewGlobalAveragePooling2D() *GlobalAveragePooling2D {
	return nn.NewGlobalAveragePooling2D()
}

// Flatten collapses every per-sample dimension into one.
type Flatten = nn.Flatten

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten {
	return nn.NewFlatten()
}

// Dense is a fully connected layer.
type Dense = nn.Dense

// DenseConfig configures Dense.
type DenseConfig = nn.DenseConfig

// NewDense creates an unbuilt Dense layer.
func NewDense(cfg DenseConfig, backend tensor.Backend) *Dense {
	return nn.NewDense(cfg, backend)
}

// Initialization

// Initializer fills a new weight tensor.
type Initializer = nn.Initializer

// HeNormal draws from a truncated normal with stddev sqrt(2 / fan_in).
type HeNormal = nn.HeNormal

// GlorotUniform draws from U(-l, l) with l = sqrt(6 / (fan_in + fan_out)).
type GlorotUniform = nn.GlorotUniform

// Constant initializers.
var (
	Zeros = nn.Zeros
	Ones  = nn.Ones
)

// ParseInitializer looks an initializer up by its Keras name.
func ParseInitializer(name string) (Initializer, error) {
	return nn.ParseInitializer(name)
}

// Regularization

// Regularizer adds a penalty on a weight tensor to the loss.
type Regularizer = nn.Regularizer

// L2 penalizes factor * sum(w^2).
type L2 = nn.L2

// NewL2 creates an L2 regularizer.
func NewL2(factor float32) L2 {
	return nn.NewL2(factor)
}

// Loss functions

// CategoricalCrossentropy is cross-entropy over probabilities with one-hot targets.
type CategoricalCrossentropy = nn.CategoricalCrossentropy

// SparseCategoricalCrossentropy is cross-entropy over probabilities with
// integer class labels.
type SparseCategoricalCrossentropy = nn.SparseCategoricalCrossentropy

// Accuracy returns the fraction of rows whose argmax matches the label.
func Accuracy(probs *tensor.Tensor, labels []int) float32 {
	return nn.Accuracy(probs, labels)
}

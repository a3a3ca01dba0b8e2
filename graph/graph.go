// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the functional model API: create placeholders with
// Input, call layers on nodes with Apply, then bind inputs to outputs with
// NewModel.
//
// Shape errors (for example an Add over mismatched branches) are recorded on
// the node and returned by NewModel, so builders can chain Apply calls
// without checking each one.
package graph

import (
	"math/rand"

	"github.com/born-ml/resnet/internal/graph"
	"github.com/born-ml/resnet/nn"
	"github.com/born-ml/resnet/tensor"
)

// Node is a symbolic tensor produced by a layer.
type Node = graph.Node

// Model is a trainable layer graph.
type Model = graph.Model

// Option configures NewModel.
type Option = graph.Option

// StepResult reports one training or evaluation pass.
type StepResult = graph.StepResult

// Graph construction and execution errors.
var (
	ErrDisconnected  = graph.ErrDisconnected
	ErrDuplicateName = graph.ErrDuplicateName
	ErrLayerReused   = graph.ErrLayerReused
	ErrInputMismatch = graph.ErrInputMismatch
)

// Input creates a placeholder for samples of the given shape (batch excluded).
func Input(shape tensor.Shape) *Node {
	return graph.Input(shape)
}

// Apply calls layer on the given nodes.
func Apply(layer nn.Layer, inputs ...*Node) *Node {
	return graph.Apply(layer, inputs...)
}

// NewModel validates the graph between inputs and outputs, names unnamed
// layers and initializes every parameter.
func NewModel(inputs, outputs []*Node, opts ...Option) (*Model, error) {
	return graph.NewModel(inputs, outputs, opts...)
}

// WithName sets the model name.
func WithName(name string) Option {
	return graph.WithName(name)
}

// WithSeed initializes parameters from a deterministic source.
func WithSeed(seed int64) Option {
	return graph.WithSeed(seed)
}

// WithRand initializes parameters from rng.
func WithRand(rng *rand.Rand) Option {
	return graph.WithRand(rng)
}

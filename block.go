// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package resnet

import (
	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/internal/graph"
	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/tensor"
)

// Input creates an input placeholder for images of the given
// (height, width, channels) shape.
func Input(shape tensor.Shape) *Node {
	return graph.Input(shape)
}

// BlockOptions configures Block. Zero values pick 16 filters, a 3x3 kernel,
// stride 1, dilation 1 and a trailing ReLU.
type BlockOptions struct {
	Filters      int
	KernelSize   int
	Strides      int
	DilationRate int

	// NoActivation drops the trailing ReLU, leaving Conv2D then BatchNormalization.
	NoActivation bool

	// Backend runs the convolution. Defaults to cpu.New().
	Backend tensor.Backend
}

// Block appends Conv2D, BatchNormalization and (unless NoActivation) ReLU to x.
//
// The convolution uses "same" padding, HeNormal initialization, a bias and
// an L2 kernel penalty of WeightDecay. Strides greater than 1 combined with
// a dilation rate greater than 1 is rejected when the convolution is built;
// the error is carried by the returned node.
func Block(x *Node, opts BlockOptions) *Node {
	if opts.Filters == 0 {
		opts.Filters = 16
	}
	if opts.Backend == nil {
		opts.Backend = cpu.New()
	}

	y := graph.Apply(nn.NewConv2D(nn.Conv2DConfig{
		Filters:           opts.Filters,
		KernelSize:        opts.KernelSize,
		Strides:           opts.Strides,
		DilationRate:      opts.DilationRate,
		Padding:           tensor.PaddingSame,
		KernelInitializer: nn.HeNormal{},
		KernelRegularizer: nn.NewL2(WeightDecay),
	}, opts.Backend), x)
	y = graph.Apply(nn.NewBatchNormalization(nn.BatchNormConfig{}), y)
	if !opts.NoActivation {
		y = graph.Apply(nn.NewActivation(nn.ReLU), y)
	}
	return y
}

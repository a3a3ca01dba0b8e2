// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers, initializers and losses used to build
// convolutional classifiers.
//
// # Overview
//
// This package contains:
//   - Layers: Conv2D, BatchNormalization, Activation, Add,
//     GlobalAveragePooling2D, Flatten, Dense, InputLayer
//   - Initializers: HeNormal, GlorotUniform, Zeros, Ones
//   - Regularizers: L2
//   - Losses: CategoricalCrossentropy, SparseCategoricalCrossentropy
//
// Layers are built lazily: Build receives the per-sample input shapes,
// allocates parameters and returns the output shape. Wire layers into a
// model with the graph package.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/resnet/backend/cpu"
//	    "github.com/born-ml/resnet/graph"
//	    "github.com/born-ml/resnet/nn"
//	    "github.com/born-ml/resnet/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := graph.Input(tensor.Shape{28, 28, 1})
//	    y := graph.Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 8}, backend), x)
//	    y = graph.Apply(nn.NewBatchNormalization(nn.BatchNormConfig{}), y)
//	    y = graph.Apply(nn.NewActivation(nn.ReLU), y)
//	    y = graph.Apply(nn.NewGlobalAveragePooling2D(), y)
//	    y = graph.Apply(nn.NewDense(nn.DenseConfig{Units: 10, Activation: nn.Softmax}, backend), y)
//
//	    model, err := graph.NewModel([]*graph.Node{x}, []*graph.Node{y})
//	}
//
// # Conv2D
//
// Zero values in Conv2DConfig pick a 3x3 kernel, stride 1, dilation 1,
// "same" padding and HeNormal initialization. Strides greater than 1 cannot
// be combined with a dilation rate greater than 1.
//
//	conv := nn.NewConv2D(nn.Conv2DConfig{
//	    Filters:           32,
//	    DilationRate:      2,
//	    KernelRegularizer: nn.NewL2(1e-4),
//	}, backend)
//
// # Parameter Management
//
// Access model parameters for optimization:
//
//	for _, p := range model.Parameters() {
//	    fmt.Println(p.Name(), p.Tensor().Shape(), p.Trainable())
//	}
package nn

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package resnet

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/internal/graph"
	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/tensor"
)

// Model is a trainable layer graph.
type Model = graph.Model

// Node is a symbolic tensor produced by a layer.
type Node = graph.Node

// StepResult reports the loss and accuracy of one training step.
type StepResult = graph.StepResult

const (
	// DefaultNumClasses is the CIFAR-10 class count.
	DefaultNumClasses = 10

	// UnitsPerStage is the number of residual units in every stage.
	UnitsPerStage = 6

	// WeightDecay is the L2 factor applied to every convolution kernel.
	WeightDecay = 1e-4
)

// DefaultInputShape is a CIFAR-10 image, channels last.
var DefaultInputShape = tensor.Shape{32, 32, 3}

// stageFilters lists the filter count of each stage.
var stageFilters = [...]int{16, 32, 64}

// Options configures New.
type Options struct {
	// InputShape is (height, width, channels). Defaults to DefaultInputShape.
	InputShape tensor.Shape

	// NumClasses is the width of the softmax head. Defaults to DefaultNumClasses.
	NumClasses int

	// UseDownsampling replaces dilation growth with stride 2 on the first
	// unit of stages 2 and 3.
	UseDownsampling bool

	// Seed drives weight initialization. Zero picks 1.
	Seed int64

	// Name is the model name. Defaults to "resnet_v1".
	Name string

	// Backend runs the kernels. Defaults to cpu.New().
	Backend tensor.Backend
}

func (o *Options) applyDefaults() {
	if o.InputShape == nil {
		o.InputShape = DefaultInputShape
	}
	if o.NumClasses == 0 {
		o.NumClasses = DefaultNumClasses
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	if o.Name == "" {
		o.Name = "resnet_v1"
	}
	if o.Backend == nil {
		o.Backend = cpu.New()
	}
}

// V1 builds the network for inputs of the given shape with default options.
func V1(inputShape tensor.Shape, numClasses int, useDownsampling bool) (*Model, error) {
	return New(Options{
		InputShape:      inputShape,
		NumClasses:      numClasses,
		UseDownsampling: useDownsampling,
	})
}

// New builds and initializes the network described by opts.
func New(opts Options) (*Model, error) {
	opts.applyDefaults()
	if err := opts.InputShape.Validate(); err != nil {
		return nil, fmt.Errorf("resnet: input shape: %w", err)
	}
	if len(opts.InputShape) != 3 {
		return nil, fmt.Errorf("resnet: input shape must be (height, width, channels), got %v", opts.InputShape)
	}
	if opts.NumClasses < 1 {
		return nil, fmt.Errorf("resnet: invalid number of classes %d", opts.NumClasses)
	}

	b := builder{backend: opts.Backend, downsample: opts.UseDownsampling, dilation: 1, strides: 1}

	inputs := graph.Input(opts.InputShape)
	x := b.block(inputs, stageFilters[0], true, 1, 1)
	x = b.identityStage(x, stageFilters[0])
	x = b.projectionStage(x, stageFilters[1], false)
	x = b.projectionStage(x, stageFilters[2], true)

	x = graph.Apply(nn.NewGlobalAveragePooling2D(), x)
	y := graph.Apply(nn.NewFlatten(), x)
	outputs := graph.Apply(nn.NewDense(nn.DenseConfig{
		Units:             opts.NumClasses,
		Activation:        nn.Softmax,
		KernelInitializer: nn.HeNormal{},
	}, opts.Backend), y)

	model, err := graph.NewModel([]*graph.Node{inputs}, []*graph.Node{outputs},
		graph.WithName(opts.Name),
		graph.WithRand(rand.New(rand.NewSource(opts.Seed))), //nolint:gosec // weight init
	)
	if err != nil {
		return nil, fmt.Errorf("resnet: %w", err)
	}
	return model, nil
}

// builder carries the dilation rate and stride that evolve across stages.
type builder struct {
	backend    tensor.Backend
	downsample bool
	dilation   int
	strides    int
}

func (b *builder) block(x *Node, filters int, activation bool, strides, dilation int) *Node {
	return Block(x, BlockOptions{
		Filters:      filters,
		Strides:      strides,
		DilationRate: dilation,
		NoActivation: !activation,
		Backend:      b.backend,
	})
}

// grow widens the receptive field once: double the dilation, or switch to
// stride 2 when downsampling.
func (b *builder) grow() {
	if b.downsample {
		b.strides = 2
	} else {
		b.dilation *= 2
	}
}

// identityStage adds the block pair back onto its own input.
func (b *builder) identityStage(x *Node, filters int) *Node {
	for i := 0; i < UnitsPerStage; i++ {
		a := b.block(x, filters, true, 1, b.dilation)
		r := b.block(a, filters, false, 1, b.dilation)
		x = b.merge(x, r)
	}
	return x
}

// projectionStage projects the shortcut of its first unit through a 3x3
// convolution so it matches the new filter count and spatial size.
// dilateSecond selects whether the second block of each unit uses the
// current dilation rate or 1.
func (b *builder) projectionStage(x *Node, filters int, dilateSecond bool) *Node {
	for i := 0; i < UnitsPerStage; i++ {
		strides := 1
		if i == 0 {
			b.grow()
			strides = b.strides
		}
		a := b.block(x, filters, true, strides, b.dilation)

		dilation := 1
		if dilateSecond {
			dilation = b.dilation
		}
		r := b.block(a, filters, false, 1, dilation)

		if i == 0 {
			b.grow()
			x = graph.Apply(nn.NewConv2D(nn.Conv2DConfig{
				Filters:           filters,
				KernelSize:        3,
				Strides:           b.strides,
				DilationRate:      b.dilation,
				Padding:           tensor.PaddingSame,
				KernelInitializer: nn.HeNormal{},
				KernelRegularizer: nn.NewL2(WeightDecay),
			}, b.backend), x)
		}
		x = b.merge(x, r)
	}
	return x
}

func (b *builder) merge(shortcut, residual *Node) *Node {
	x := graph.Apply(nn.NewAdd(), shortcut, residual)
	return graph.Apply(nn.NewActivation(nn.ReLU), x)
}

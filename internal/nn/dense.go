package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// DenseConfig describes a fully connected layer.
// Zero values pick a linear activation and GlorotUniform initialization.
type DenseConfig struct {
	Name              string
	Units             int
	Activation        ActivationKind
	KernelInitializer Initializer
	KernelRegularizer Regularizer
	NoBias            bool
}

// Dense implements a fully connected layer with an optional activation.
//
// Performs: y = activation(x @ W + b)
// where:
//   - x has shape [batch_size, in_features]
//   - W has shape [in_features, units]
//   - b has shape [units]
//   - y has shape [batch_size, units]
type Dense struct {
	base
	cfg DenseConfig

	kernel *Parameter
	bias   *Parameter

	input   *tensor.Tensor
	output  *tensor.Tensor
	backend tensor.Backend
}

// NewDense creates an unbuilt dense layer.
func NewDense(cfg DenseConfig, backend tensor.Backend) *Dense {
	if cfg.Activation == "" {
		cfg.Activation = Linear
	}
	if cfg.KernelInitializer == nil {
		cfg.KernelInitializer = GlorotUniform{}
	}
	return &Dense{base: base{name: cfg.Name}, cfg: cfg, backend: backend}
}

// Type returns "Dense".
func (d *Dense) Type() string { return "Dense" }

// Build allocates the kernel for a (features,) input.
func (d *Dense) Build(inputs ...tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 1 || len(inputs[0]) != 1 {
		return nil, fmt.Errorf("dense %q: expected one input of rank 1 (features), got %v", d.name, inputs)
	}
	if d.cfg.Units <= 0 {
		return nil, fmt.Errorf("dense %q: invalid units %d", d.name, d.cfg.Units)
	}
	if _, err := ParseActivation(string(d.cfg.Activation)); err != nil {
		return nil, fmt.Errorf("dense %q: %w", d.name, err)
	}

	in := inputs[0][0]
	d.kernel = newWeight("kernel", tensor.Shape{in, d.cfg.Units}, d.cfg.KernelInitializer, in, d.cfg.Units, true)
	d.kernel.SetRegularizer(d.cfg.KernelRegularizer)
	if !d.cfg.NoBias {
		d.bias = newWeight("bias", tensor.Shape{d.cfg.Units}, Zeros, 0, 0, true)
	}
	return tensor.Shape{d.cfg.Units}, nil
}

// Forward computes activation(x @ W + b).
func (d *Dense) Forward(inputs []*tensor.Tensor, _ bool) *tensor.Tensor {
	if d.kernel == nil {
		panic(fmt.Sprintf("dense %q: %v", d.name, ErrNotBuilt))
	}
	input := single("dense", inputs)
	d.input = input

	z := d.backend.MatMul(input, d.kernel.Tensor())
	if d.bias != nil {
		addChannelBias(z, d.bias.Tensor())
	}
	d.output = activate(d.cfg.Activation, z)
	return d.output
}

// Backward accumulates kernel and bias gradients and returns dL/dx.
func (d *Dense) Backward(grad *tensor.Tensor) []*tensor.Tensor {
	if d.input == nil {
		panic(fmt.Sprintf("dense %q: backward before forward", d.name))
	}
	dz := activateBackward(d.cfg.Activation, d.output, grad)

	d.kernel.AccumulateGrad(d.backend.MatMulTransA(d.input, dz))
	if d.bias != nil {
		d.bias.AccumulateGrad(sumChannels(dz))
	}
	return []*tensor.Tensor{d.backend.MatMulTransB(dz, d.kernel.Tensor())}
}

// Parameters returns the kernel and, if present, the bias.
func (d *Dense) Parameters() []*Parameter {
	if d.kernel == nil {
		return nil
	}
	if d.bias != nil {
		return []*Parameter{d.kernel, d.bias}
	}
	return []*Parameter{d.kernel}
}

// Kernel returns the kernel parameter (nil before Build).
func (d *Dense) Kernel() *Parameter { return d.kernel }

// Config returns the resolved configuration.
func (d *Dense) Config() DenseConfig { return d.cfg }

// String returns a string representation of the layer.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense(units=%d, activation=%s, bias=%v)", d.cfg.Units, d.cfg.Activation, !d.cfg.NoBias)
}

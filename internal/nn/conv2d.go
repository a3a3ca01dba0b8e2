package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// Conv2DConfig describes a 2D convolution.
//
// Zero values pick the defaults: KernelSize 3, Strides 1, DilationRate 1,
// Padding "same", HeNormal kernel initializer, bias enabled.
type Conv2DConfig struct {
	Name              string
	Filters           int
	KernelSize        int
	Strides           int
	DilationRate      int
	Padding           tensor.Padding
	KernelInitializer Initializer
	KernelRegularizer Regularizer
	NoBias            bool
}

func (c *Conv2DConfig) applyDefaults() {
	if c.KernelSize == 0 {
		c.KernelSize = 3
	}
	if c.Strides == 0 {
		c.Strides = 1
	}
	if c.DilationRate == 0 {
		c.DilationRate = 1
	}
	if c.Padding == "" {
		c.Padding = tensor.PaddingSame
	}
	if c.KernelInitializer == nil {
		c.KernelInitializer = HeNormal{}
	}
}

// Conv2D is a 2D convolutional layer over channels-last images.
//
// Input shape:  [batch, height, width, in_channels]
// Kernel shape: [kernel, kernel, in_channels, filters]
// Bias shape:   [filters]
// Output shape: [batch, out_h, out_w, filters]
//
// Example:
//
//	conv := nn.NewConv2D(nn.Conv2DConfig{Filters: 16, DilationRate: 2}, backend)
//	out, err := conv.Build(tensor.Shape{32, 32, 3}) // (32, 32, 16)
type Conv2D struct {
	base
	cfg    Conv2DConfig
	params tensor.ConvParams

	kernel *Parameter
	bias   *Parameter

	input   *tensor.Tensor // cached for Backward
	backend tensor.Backend
}

// NewConv2D creates an unbuilt Conv2D layer.
func NewConv2D(cfg Conv2DConfig, backend tensor.Backend) *Conv2D {
	cfg.applyDefaults()
	return &Conv2D{
		base:    base{name: cfg.Name},
		cfg:     cfg,
		params:  tensor.ConvParams{Stride: cfg.Strides, Dilation: cfg.DilationRate, Padding: cfg.Padding},
		backend: backend,
	}
}

// Type returns "Conv2D".
func (c *Conv2D) Type() string { return "Conv2D" }

// Build allocates the kernel and bias for a [H, W, C] input.
func (c *Conv2D) Build(inputs ...tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("conv2d %q: expects 1 input, got %d", c.name, len(inputs))
	}
	in := inputs[0]
	if len(in) != 3 {
		return nil, fmt.Errorf("conv2d %q: expected input of rank 3 (height, width, channels), got %v", c.name, in)
	}
	if c.cfg.Filters <= 0 {
		return nil, fmt.Errorf("conv2d %q: invalid filters %d", c.name, c.cfg.Filters)
	}
	if c.cfg.KernelSize <= 0 || c.cfg.Strides <= 0 || c.cfg.DilationRate <= 0 {
		return nil, fmt.Errorf("conv2d %q: invalid kernel_size=%d strides=%d dilation_rate=%d",
			c.name, c.cfg.KernelSize, c.cfg.Strides, c.cfg.DilationRate)
	}
	if c.cfg.Strides > 1 && c.cfg.DilationRate > 1 {
		return nil, fmt.Errorf("conv2d %q: strides > 1 not supported in conjunction with dilation_rate > 1", c.name)
	}

	outH, _ := tensor.ConvOutputSize(in[0], c.cfg.KernelSize, c.params)
	outW, _ := tensor.ConvOutputSize(in[1], c.cfg.KernelSize, c.params)
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("conv2d %q: input %v too small for kernel %d with dilation %d",
			c.name, in, c.cfg.KernelSize, c.cfg.DilationRate)
	}

	k := c.cfg.KernelSize
	fanIn, fanOut := convFans(k, k, in[2], c.cfg.Filters)
	c.kernel = newWeight("kernel", tensor.Shape{k, k, in[2], c.cfg.Filters}, c.cfg.KernelInitializer, fanIn, fanOut, true)
	c.kernel.SetRegularizer(c.cfg.KernelRegularizer)
	if !c.cfg.NoBias {
		c.bias = newWeight("bias", tensor.Shape{c.cfg.Filters}, Zeros, 0, 0, true)
	}

	return tensor.Shape{outH, outW, c.cfg.Filters}, nil
}

// Forward performs the convolution and adds the bias.
func (c *Conv2D) Forward(inputs []*tensor.Tensor, _ bool) *tensor.Tensor {
	if c.kernel == nil {
		panic(fmt.Sprintf("conv2d %q: %v", c.name, ErrNotBuilt))
	}
	input := single("conv2d", inputs)
	c.input = input

	output := c.backend.Conv2D(input, c.kernel.Tensor(), c.params)
	if c.bias != nil {
		addChannelBias(output, c.bias.Tensor())
	}
	return output
}

// Backward accumulates kernel and bias gradients and returns dL/dInput.
func (c *Conv2D) Backward(grad *tensor.Tensor) []*tensor.Tensor {
	if c.input == nil {
		panic(fmt.Sprintf("conv2d %q: backward before forward", c.name))
	}
	dInput, dKernel := c.backend.Conv2DBackward(c.input, c.kernel.Tensor(), grad, c.params)
	c.kernel.AccumulateGrad(dKernel)
	if c.bias != nil {
		c.bias.AccumulateGrad(sumChannels(grad))
	}
	return []*tensor.Tensor{dInput}
}

// Parameters returns the kernel and, if present, the bias.
func (c *Conv2D) Parameters() []*Parameter {
	if c.kernel == nil {
		return nil
	}
	if c.bias != nil {
		return []*Parameter{c.kernel, c.bias}
	}
	return []*Parameter{c.kernel}
}

// Kernel returns the kernel parameter (nil before Build).
func (c *Conv2D) Kernel() *Parameter { return c.kernel }

// Bias returns the bias parameter (nil before Build or with NoBias).
func (c *Conv2D) Bias() *Parameter { return c.bias }

// Config returns the resolved configuration.
func (c *Conv2D) Config() Conv2DConfig { return c.cfg }

// String returns a string representation of the layer.
func (c *Conv2D) String() string {
	return fmt.Sprintf("Conv2D(filters=%d, kernel_size=(%d, %d), strides=%d, dilation_rate=%d, padding=%s, bias=%v)",
		c.cfg.Filters, c.cfg.KernelSize, c.cfg.KernelSize, c.cfg.Strides, c.cfg.DilationRate, c.cfg.Padding, !c.cfg.NoBias)
}

// addChannelBias adds bias[c] to every element of channel c (last axis).
func addChannelBias(t, bias *tensor.Tensor) {
	b := bias.Data()
	channels := len(b)
	data := t.Data()
	for i := 0; i < len(data); i += channels {
		row := data[i : i+channels]
		for c, v := range b {
			row[c] += v
		}
	}
}

// sumChannels reduces every axis but the last one.
func sumChannels(t *tensor.Tensor) *tensor.Tensor {
	shape := t.Shape()
	channels := shape[len(shape)-1]
	out := tensor.Zeros(tensor.Shape{channels})
	o := out.Data()
	data := t.Data()
	for i := 0; i < len(data); i += channels {
		for c, v := range data[i : i+channels] {
			o[c] += v
		}
	}
	return out
}

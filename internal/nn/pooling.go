package nn

import (
	"fmt"

	"github.com/born-ml/resnet/internal/tensor"
)

// GlobalAveragePooling2D averages each channel over all spatial positions.
//
// Input:  [batch, height, width, channels]
// Output: [batch, channels]
type GlobalAveragePooling2D struct {
	base
	inputShape tensor.Shape // batched, cached for Backward
}

// NewGlobalAveragePooling2D creates a global average pooling layer.
func NewGlobalAveragePooling2D() *GlobalAveragePooling2D {
	return &GlobalAveragePooling2D{}
}

// Type returns "GlobalAveragePooling2D".
func (p *GlobalAveragePooling2D) Type() string { return "GlobalAveragePooling2D" }

// Build maps (H, W, C) to (C,).
func (p *GlobalAveragePooling2D) Build(inputs ...tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 1 || len(inputs[0]) != 3 {
		return nil, fmt.Errorf("global_average_pooling2d %q: expected one input of rank 3 (height, width, channels), got %v",
			p.name, inputs)
	}
	return tensor.Shape{inputs[0][2]}, nil
}

// Forward averages over height and width.
func (p *GlobalAveragePooling2D) Forward(inputs []*tensor.Tensor, _ bool) *tensor.Tensor {
	input := single("global_average_pooling2d", inputs)
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("global_average_pooling2d: expected 4D input [N,H,W,C], got %dD", len(shape)))
	}
	p.inputShape = shape.Clone()

	n, spatial, c := shape[0], shape[1]*shape[2], shape[3]
	out := tensor.Zeros(tensor.Shape{n, c})
	in, o := input.Data(), out.Data()
	inv := 1 / float32(spatial)
	for b := 0; b < n; b++ {
		dst := o[b*c : (b+1)*c]
		for s := 0; s < spatial; s++ {
			src := in[(b*spatial+s)*c : (b*spatial+s+1)*c]
			for i, v := range src {
				dst[i] += v
			}
		}
		for i := range dst {
			dst[i] *= inv
		}
	}
	return out
}

// Backward spreads each channel gradient evenly over the spatial positions.
func (p *GlobalAveragePooling2D) Backward(grad *tensor.Tensor) []*tensor.Tensor {
	if p.inputShape == nil {
		panic(fmt.Sprintf("global_average_pooling2d %q: backward before forward", p.name))
	}
	n, spatial, c := p.inputShape[0], p.inputShape[1]*p.inputShape[2], p.inputShape[3]
	dInput := tensor.Zeros(p.inputShape)
	g, d := grad.Data(), dInput.Data()
	inv := 1 / float32(spatial)
	for b := 0; b < n; b++ {
		src := g[b*c : (b+1)*c]
		for s := 0; s < spatial; s++ {
			dst := d[(b*spatial+s)*c : (b*spatial+s+1)*c]
			for i, v := range src {
				dst[i] = v * inv
			}
		}
	}
	return []*tensor.Tensor{dInput}
}

// Parameters returns nil.
func (p *GlobalAveragePooling2D) Parameters() []*Parameter {
	return nil
}

// Flatten collapses every non-batch axis into one.
type Flatten struct {
	base
	inputShape tensor.Shape
}

// NewFlatten creates a flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Type returns "Flatten".
func (f *Flatten) Type() string { return "Flatten" }

// Build returns (prod(input),).
func (f *Flatten) Build(inputs ...tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 1 || len(inputs[0]) == 0 {
		return nil, fmt.Errorf("flatten %q: expected one input of rank >= 1, got %v", f.name, inputs)
	}
	return tensor.Shape{inputs[0].NumElements()}, nil
}

// Forward reshapes to [batch, features] without copying.
func (f *Flatten) Forward(inputs []*tensor.Tensor, _ bool) *tensor.Tensor {
	input := single("flatten", inputs)
	f.inputShape = input.Shape().Clone()
	return input.Reshape(f.inputShape[0], -1)
}

// Backward restores the input shape.
func (f *Flatten) Backward(grad *tensor.Tensor) []*tensor.Tensor {
	if f.inputShape == nil {
		panic(fmt.Sprintf("flatten %q: backward before forward", f.name))
	}
	return []*tensor.Tensor{grad.Reshape(f.inputShape...)}
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*Parameter {
	return nil
}

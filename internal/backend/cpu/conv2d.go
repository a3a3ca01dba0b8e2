package cpu

import (
	"fmt"

	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

// convGeometry carries every dimension the im2col kernels need.
type convGeometry struct {
	N, H, W, CIn     int
	KH, KW, COut     int
	HOut, WOut       int
	padTop, padLeft  int
	stride, dilation int
}

// rows is the number of output pixels (rows of the column buffer).
func (g convGeometry) rows() int { return g.N * g.HOut * g.WOut }

// cols is the length of one receptive field (columns of the column buffer).
func (g convGeometry) cols() int { return g.KH * g.KW * g.CIn }

func newConvGeometry(input, kernel *tensor.Tensor, p tensor.ConvParams) convGeometry {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,H,W,C], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [K_h,K_w,C_in,C_out], got %dD", len(kernelShape)))
	}
	if p.Stride <= 0 || p.Dilation <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d / dilation %d", p.Stride, p.Dilation))
	}

	g := convGeometry{
		N: inputShape[0], H: inputShape[1], W: inputShape[2], CIn: inputShape[3],
		KH: kernelShape[0], KW: kernelShape[1], COut: kernelShape[3],
		stride: p.Stride, dilation: p.Dilation,
	}
	if kernelShape[2] != g.CIn {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", g.CIn, kernelShape[2]))
	}

	g.HOut, g.padTop = tensor.ConvOutputSize(g.H, g.KH, p)
	g.WOut, g.padLeft = tensor.ConvOutputSize(g.W, g.KW, p)
	if g.HOut <= 0 || g.WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/dilation/padding)", g.HOut, g.WOut))
	}
	return g
}

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, height, width, in_channels]
// Kernel shape: [kernel_h, kernel_w, in_channels, out_channels]
// Output shape: [batch, out_h, out_w, out_channels]
//
// Algorithm:
//  1. Im2col: gather every (dilated) receptive field into a row of
//     [N*H_out*W_out, K_h*K_w*C_in]
//  2. The kernel is already a [K_h*K_w*C_in, C_out] matrix in row-major order
//  3. MatMul gives [N*H_out*W_out, C_out], which is the NHWC output
//
// Reference: "High Performance Convolutional Neural Networks for Document Processing"
// (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.Tensor, p tensor.ConvParams) *tensor.Tensor {
	g := newConvGeometry(input, kernel, p)

	col := tensor.Zeros(tensor.Shape{g.rows(), g.cols()})
	im2col(col.Data(), input.Data(), g, cpu.parallel)

	out := cpu.MatMul(col, kernel.Reshape(g.cols(), g.COut))
	return out.Reshape(g.N, g.HOut, g.WOut, g.COut)
}

// Conv2DBackward computes the input and kernel gradients of Conv2D.
//
//	dKernel = colᵀ @ dOut                 -> [K_h*K_w*C_in, C_out]
//	dCol    = dOut @ kernelᵀ              -> [N*H_out*W_out, K_h*K_w*C_in]
//	dInput  = col2im(dCol)                (scatter-add back into NHWC)
func (cpu *CPUBackend) Conv2DBackward(input, kernel, grad *tensor.Tensor, p tensor.ConvParams) (dInput, dKernel *tensor.Tensor) {
	g := newConvGeometry(input, kernel, p)

	expected := tensor.Shape{g.N, g.HOut, g.WOut, g.COut}
	if !grad.Shape().Equal(expected) {
		panic(fmt.Sprintf("conv2d backward: grad shape %v != expected %v", grad.Shape(), expected))
	}

	col := tensor.Zeros(tensor.Shape{g.rows(), g.cols()})
	im2col(col.Data(), input.Data(), g, cpu.parallel)

	gradMat := grad.Reshape(g.rows(), g.COut)
	dKernel = cpu.MatMulTransA(col, gradMat).Reshape(g.KH, g.KW, g.CIn, g.COut)

	dCol := cpu.MatMulTransB(gradMat, kernel.Reshape(g.cols(), g.COut))
	dInput = tensor.Zeros(input.Shape())
	col2im(dInput.Data(), dCol.Data(), g, cpu.parallel)

	return dInput, dKernel
}

// im2col fills col [N*H_out*W_out, K_h*K_w*C_in]. Padded positions stay zero.
func im2col(col, input []float32, g convGeometry, cfg parallel.Config) {
	width := g.cols()
	parallel.For(g.rows(), func(r int) {
		n := r / (g.HOut * g.WOut)
		oh := (r / g.WOut) % g.HOut
		ow := r % g.WOut
		row := col[r*width : (r+1)*width]

		for kh := 0; kh < g.KH; kh++ {
			ih := oh*g.stride - g.padTop + kh*g.dilation
			if ih < 0 || ih >= g.H {
				continue
			}
			for kw := 0; kw < g.KW; kw++ {
				iw := ow*g.stride - g.padLeft + kw*g.dilation
				if iw < 0 || iw >= g.W {
					continue
				}
				src := ((n*g.H+ih)*g.W + iw) * g.CIn
				dst := (kh*g.KW + kw) * g.CIn
				copy(row[dst:dst+g.CIn], input[src:src+g.CIn])
			}
		}
	}, cfg)
}

// col2im scatter-adds dCol back into the NHWC input gradient.
//
// Output pixels of one image only ever touch that image, so work is split
// by batch element to keep writes disjoint.
func col2im(dInput, dCol []float32, g convGeometry, cfg parallel.Config) {
	width := g.cols()
	perImage := g.HOut * g.WOut
	parallel.For(g.N, func(n int) {
		for pix := 0; pix < perImage; pix++ {
			oh := pix / g.WOut
			ow := pix % g.WOut
			row := dCol[(n*perImage+pix)*width : (n*perImage+pix+1)*width]

			for kh := 0; kh < g.KH; kh++ {
				ih := oh*g.stride - g.padTop + kh*g.dilation
				if ih < 0 || ih >= g.H {
					continue
				}
				for kw := 0; kw < g.KW; kw++ {
					iw := ow*g.stride - g.padLeft + kw*g.dilation
					if iw < 0 || iw >= g.W {
						continue
					}
					dst := ((n*g.H+ih)*g.W + iw) * g.CIn
					src := (kh*g.KW + kw) * g.CIn
					for c := 0; c < g.CIn; c++ {
						dInput[dst+c] += row[src+c]
					}
				}
			}
		}
	}, cfg)
}

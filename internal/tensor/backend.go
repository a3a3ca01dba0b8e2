package tensor

import "fmt"

// Padding selects how a convolution treats the borders of its input.
type Padding string

const (
	// PaddingSame pads so that out = ceil(in / stride).
	PaddingSame Padding = "same"
	// PaddingValid applies no padding.
	PaddingValid Padding = "valid"
)

// ParsePadding converts a string into a Padding.
func ParsePadding(s string) (Padding, error) {
	switch Padding(s) {
	case PaddingSame, PaddingValid:
		return Padding(s), nil
	}
	return "", fmt.Errorf("unknown padding %q (want %q or %q)", s, PaddingSame, PaddingValid)
}

// ConvParams holds the geometry of a 2D convolution.
// Strides and dilation are applied identically along height and width.
type ConvParams struct {
	Stride   int
	Dilation int
	Padding  Padding
}

// Backend is the interface for the heavy numeric kernels.
//
// Tensors are plain data containers; anything that benefits from a
// dedicated implementation (im2col convolution, blocked matmul) goes through
// a Backend so the CPU implementation can be swapped.
//
// Layout conventions:
//   - images: [N, H, W, C]
//   - convolution kernels: [KH, KW, C_in, C_out]
//   - matrices: [rows, cols]
type Backend interface {
	// Name returns the backend name (e.g., "CPU").
	Name() string

	// Conv2D convolves input [N,H,W,C_in] with kernel [KH,KW,C_in,C_out].
	Conv2D(input, kernel *Tensor, p ConvParams) *Tensor

	// Conv2DBackward returns gradients w.r.t. the input and the kernel given
	// the gradient of the convolution output.
	Conv2DBackward(input, kernel, grad *Tensor, p ConvParams) (dInput, dKernel *Tensor)

	// MatMul computes a @ b for a [m,k] and b [k,n].
	MatMul(a, b *Tensor) *Tensor

	// MatMulTransA computes aᵀ @ b for a [k,m] and b [k,n].
	MatMulTransA(a, b *Tensor) *Tensor

	// MatMulTransB computes a @ bᵀ for a [m,k] and b [n,k].
	MatMulTransB(a, b *Tensor) *Tensor
}

// ConvOutputSize returns the output length of a convolution along one axis
// and the padding applied before the first input element.
//
// "same" padding yields ceil(in/stride) outputs; the total padding
// max((out-1)*stride + (kernel-1)*dilation + 1 - in, 0) is split with the
// smaller half first. "valid" padding yields ceil((in - effective_kernel + 1)/stride)
// outputs and no padding. A non-positive result means the window does not fit.
func ConvOutputSize(in, kernel int, p ConvParams) (out, padBefore int) {
	effective := (kernel-1)*p.Dilation + 1
	switch p.Padding {
	case PaddingSame:
		out = (in + p.Stride - 1) / p.Stride
		total := max((out-1)*p.Stride+effective-in, 0)
		return out, total / 2
	default:
		if in < effective {
			return 0, 0
		}
		return (in-effective)/p.Stride + 1, 0
	}
}

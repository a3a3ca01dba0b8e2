package nn

import "github.com/born-ml/resnet/internal/tensor"

// Regularizer adds a weight penalty to the training loss.
type Regularizer interface {
	// Loss returns the penalty for w.
	Loss(w *tensor.Tensor) float32

	// AddGrad adds dPenalty/dw into grad.
	AddGrad(w, grad *tensor.Tensor)
}

// L2 penalizes Factor * sum(w²).
type L2 struct {
	Factor float32
}

// NewL2 creates an L2 regularizer, e.g. NewL2(1e-4).
func NewL2(factor float32) L2 {
	return L2{Factor: factor}
}

// Loss returns Factor * sum(w²).
func (r L2) Loss(w *tensor.Tensor) float32 {
	return r.Factor * w.SumSquares()
}

// AddGrad adds 2 * Factor * w into grad.
func (r L2) AddGrad(w, grad *tensor.Tensor) {
	scale := 2 * r.Factor
	g := grad.Data()
	for i, v := range w.Data() {
		g[i] += scale * v
	}
}

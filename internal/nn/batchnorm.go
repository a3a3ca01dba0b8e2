package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/resnet/internal/tensor"
)

// BatchNormConfig configures BatchNormalization.
// Zero values pick Momentum 0.99 and Epsilon 1e-3.
type BatchNormConfig struct {
	Name     string
	Momentum float32
	Epsilon  float32
}

// BatchNormalization normalizes each channel (last axis) over the batch and
// spatial positions.
//
// Formula: Y = gamma * (X - mean) / sqrt(var + eps) + beta
//
// In training mode mean and var come from the current batch and the moving
// statistics are updated:
//
//	moving = momentum * moving + (1 - momentum) * batch
//
// In inference mode the moving statistics are used instead.
// gamma and beta are trainable; moving_mean and moving_variance are not.
type BatchNormalization struct {
	base
	momentum float32
	epsilon  float32
	channels int

	gamma          *Parameter
	beta           *Parameter
	movingMean     *Parameter
	movingVariance *Parameter

	// Cached for Backward.
	xhat     *tensor.Tensor
	invStd   []float32
	training bool
}

// NewBatchNormalization creates an unbuilt batch normalization layer.
func NewBatchNormalization(cfg BatchNormConfig) *BatchNormalization {
	if cfg.Momentum == 0 {
		cfg.Momentum = 0.99
	}
	if cfg.Epsilon == 0 {
		cfg.Epsilon = 1e-3
	}
	return &BatchNormalization{
		base:     base{name: cfg.Name},
		momentum: cfg.Momentum,
		epsilon:  cfg.Epsilon,
	}
}

// Type returns "BatchNormalization".
func (bn *BatchNormalization) Type() string { return "BatchNormalization" }

// Build allocates per-channel parameters for the last axis.
func (bn *BatchNormalization) Build(inputs ...tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("batch_normalization %q: expects 1 input, got %d", bn.name, len(inputs))
	}
	in := inputs[0]
	if len(in) == 0 {
		return nil, fmt.Errorf("batch_normalization %q: input must have at least one axis", bn.name)
	}
	bn.channels = in[len(in)-1]
	shape := tensor.Shape{bn.channels}
	bn.gamma = newWeight("gamma", shape, Ones, 0, 0, true)
	bn.beta = newWeight("beta", shape, Zeros, 0, 0, true)
	bn.movingMean = newWeight("moving_mean", shape, Zeros, 0, 0, false)
	bn.movingVariance = newWeight("moving_variance", shape, Ones, 0, 0, false)
	return in.Clone(), nil
}

// Forward normalizes the input.
func (bn *BatchNormalization) Forward(inputs []*tensor.Tensor, training bool) *tensor.Tensor {
	if bn.gamma == nil {
		panic(fmt.Sprintf("batch_normalization %q: %v", bn.name, ErrNotBuilt))
	}
	input := single("batch_normalization", inputs)
	c := bn.channels
	data := input.Data()
	m := len(data) / c

	var mean, variance []float32
	if training {
		mean, variance = channelMoments(data, c)
		mm := bn.movingMean.Tensor().Data()
		mv := bn.movingVariance.Tensor().Data()
		for i := 0; i < c; i++ {
			mm[i] = bn.momentum*mm[i] + (1-bn.momentum)*mean[i]
			mv[i] = bn.momentum*mv[i] + (1-bn.momentum)*variance[i]
		}
	} else {
		mean = bn.movingMean.Tensor().Data()
		variance = bn.movingVariance.Tensor().Data()
	}

	invStd := make([]float32, c)
	for i := range invStd {
		invStd[i] = float32(1 / math.Sqrt(float64(variance[i]+bn.epsilon)))
	}

	gamma := bn.gamma.Tensor().Data()
	beta := bn.beta.Tensor().Data()
	xhat := tensor.Zeros(input.Shape())
	output := tensor.Zeros(input.Shape())
	xh, out := xhat.Data(), output.Data()
	for r := 0; r < m; r++ {
		off := r * c
		for i := 0; i < c; i++ {
			v := (data[off+i] - mean[i]) * invStd[i]
			xh[off+i] = v
			out[off+i] = gamma[i]*v + beta[i]
		}
	}

	bn.xhat = xhat
	bn.invStd = invStd
	bn.training = training
	return output
}

// Backward returns dL/dInput and accumulates gamma and beta gradients.
//
// With N = batch*spatial positions per channel:
//
//	dbeta  = Σ g
//	dgamma = Σ g * xhat
//	dx     = gamma * invStd / N * (N*g - dbeta - xhat*dgamma)   (training)
//	dx     = gamma * invStd * g                                 (inference)
func (bn *BatchNormalization) Backward(grad *tensor.Tensor) []*tensor.Tensor {
	if bn.xhat == nil {
		panic(fmt.Sprintf("batch_normalization %q: backward before forward", bn.name))
	}
	c := bn.channels
	g := grad.Data()
	xh := bn.xhat.Data()
	m := len(g) / c

	dgamma := tensor.Zeros(tensor.Shape{c})
	dbeta := tensor.Zeros(tensor.Shape{c})
	dg, db := dgamma.Data(), dbeta.Data()
	for r := 0; r < m; r++ {
		off := r * c
		for i := 0; i < c; i++ {
			db[i] += g[off+i]
			dg[i] += g[off+i] * xh[off+i]
		}
	}
	bn.gamma.AccumulateGrad(dgamma)
	bn.beta.AccumulateGrad(dbeta)

	gamma := bn.gamma.Tensor().Data()
	dInput := tensor.Zeros(grad.Shape())
	dx := dInput.Data()
	n := float32(m)
	for r := 0; r < m; r++ {
		off := r * c
		for i := 0; i < c; i++ {
			scale := gamma[i] * bn.invStd[i]
			if bn.training {
				dx[off+i] = scale / n * (n*g[off+i] - db[i] - xh[off+i]*dg[i])
			} else {
				dx[off+i] = scale * g[off+i]
			}
		}
	}
	return []*tensor.Tensor{dInput}
}

// Parameters returns gamma, beta, moving_mean and moving_variance.
func (bn *BatchNormalization) Parameters() []*Parameter {
	if bn.gamma == nil {
		return nil
	}
	return []*Parameter{bn.gamma, bn.beta, bn.movingMean, bn.movingVariance}
}

// MovingMean returns the running mean (nil before Build).
func (bn *BatchNormalization) MovingMean() *Parameter { return bn.movingMean }

// MovingVariance returns the running variance (nil before Build).
func (bn *BatchNormalization) MovingVariance() *Parameter { return bn.movingVariance }

// String returns a string representation of the layer.
func (bn *BatchNormalization) String() string {
	return fmt.Sprintf("BatchNormalization(momentum=%g, epsilon=%g)", bn.momentum, bn.epsilon)
}

// channelMoments returns the per-channel mean and biased variance.
func channelMoments(data []float32, c int) (mean, variance []float32) {
	m := len(data) / c
	sum := make([]float64, c)
	for r := 0; r < m; r++ {
		for i, v := range data[r*c : (r+1)*c] {
			sum[i] += float64(v)
		}
	}
	mean = make([]float32, c)
	for i := range mean {
		mean[i] = float32(sum[i] / float64(m))
	}

	sq := make([]float64, c)
	for r := 0; r < m; r++ {
		for i, v := range data[r*c : (r+1)*c] {
			d := float64(v - mean[i])
			sq[i] += d * d
		}
	}
	variance = make([]float32, c)
	for i := range variance {
		variance[i] = float32(sq[i] / float64(m))
	}
	return mean, variance
}

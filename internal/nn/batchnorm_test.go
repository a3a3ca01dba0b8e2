package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/resnet/internal/tensor"
)

func TestBatchNormalization_Defaults(t *testing.T) {
	bn := NewBatchNormalization(BatchNormConfig{})
	out, err := bn.Build(tensor.Shape{8, 8, 16})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{8, 8, 16}, out)

	params := bn.Parameters()
	require.Len(t, params, 4)
	names := []string{"gamma", "beta", "moving_mean", "moving_variance"}
	trainable := []bool{true, true, false, false}
	for i, p := range params {
		assert.Equal(t, names[i], p.Name())
		assert.Equal(t, trainable[i], p.Trainable())
		assert.Equal(t, tensor.Shape{16}, p.Tensor().Shape())
	}
	assert.Equal(t, "BatchNormalization(momentum=0.99, epsilon=0.001)", bn.String())
}

func TestBatchNormalization_TrainingNormalizes(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	bn := NewBatchNormalization(BatchNormConfig{Epsilon: 1e-6})
	buildAndInit(t, bn, rng, tensor.Shape{3, 3, 2})

	input := tensor.Randn(tensor.Shape{4, 3, 3, 2}, rng)
	for i := range input.Data() {
		input.Data()[i] = input.Data()[i]*3 + 5
	}
	out := bn.Forward([]*tensor.Tensor{input}, true)

	mean, variance := channelMoments(out.Data(), 2)
	for c := 0; c < 2; c++ {
		assert.InDelta(t, 0, mean[c], 1e-4)
		assert.InDelta(t, 1, variance[c], 1e-3)
	}

	// Moving statistics move 1% towards the batch statistics.
	batchMean, _ := channelMoments(input.Data(), 2)
	mm := bn.MovingMean().Tensor().Data()
	for c := 0; c < 2; c++ {
		assert.InDelta(t, 0.01*batchMean[c], mm[c], 1e-4)
	}
}

func TestBatchNormalization_InferenceUsesMovingStats(t *testing.T) {
	bn := NewBatchNormalization(BatchNormConfig{Epsilon: 1e-6})
	buildAndInit(t, bn, rand.New(rand.NewSource(1)), tensor.Shape{1})
	bn.MovingMean().Tensor().Data()[0] = 2
	bn.MovingVariance().Tensor().Data()[0] = 4

	input, err := tensor.FromSlice([]float32{2, 4, 6}, tensor.Shape{3, 1})
	require.NoError(t, err)
	out := bn.Forward([]*tensor.Tensor{input}, false)

	assert.InDeltaSlice(t, []float32{0, 1, 2}, out.Data(), 1e-4)
	// Inference does not touch the moving statistics.
	assert.Equal(t, float32(2), bn.MovingMean().Tensor().Data()[0])
}

func TestBatchNormalization_Gradients(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	bn := NewBatchNormalization(BatchNormConfig{})
	buildAndInit(t, bn, rng, tensor.Shape{2, 2, 3})
	copy(bn.gamma.Tensor().Data(), []float32{1.5, 0.5, -1})
	copy(bn.beta.Tensor().Data(), []float32{0.1, 0.2, 0.3})

	input := tensor.Randn(tensor.Shape{3, 2, 2, 3}, rng)
	out := bn.Forward([]*tensor.Tensor{input}, true)
	r := tensor.Randn(out.Shape(), rng)
	grads := bn.Backward(r)

	loss := func() float32 {
		return weightedSum(bn.Forward([]*tensor.Tensor{input}, true), r)
	}
	assertNumericalGrad(t, input, grads[0], loss, 3e-2)
	assertNumericalGrad(t, bn.gamma.Tensor(), bn.gamma.Grad(), loss, 3e-2)
	assertNumericalGrad(t, bn.beta.Tensor(), bn.beta.Grad(), loss, 3e-2)
}

package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/resnet/internal/tensor"
)

func TestSparseCategoricalCrossentropy(t *testing.T) {
	probs, _ := tensor.FromSlice([]float32{
		0.7, 0.2, 0.1,
		0.1, 0.1, 0.8,
	}, tensor.Shape{2, 3})

	loss, grad := SparseCategoricalCrossentropy{}.Forward(probs, []int{0, 2})

	want := -(math.Log(0.7) + math.Log(0.8)) / 2
	assert.InDelta(t, want, loss, 1e-6)
	assert.InDelta(t, -1/0.7/2, grad.Data()[0], 1e-5)
	assert.InDelta(t, -1/0.8/2, grad.Data()[5], 1e-5)
	assert.Equal(t, float32(0), grad.Data()[1])
}

func TestCategoricalCrossentropy_ClipsZeroProbability(t *testing.T) {
	probs, _ := tensor.FromSlice([]float32{0, 1}, tensor.Shape{1, 2})
	loss, _ := CategoricalCrossentropy{}.Forward(probs, tensor.OneHot([]int{0}, 2))
	assert.False(t, math.IsInf(float64(loss), 0))
	assert.InDelta(t, -math.Log(probEpsilon), loss, 1e-3)
}

func TestAccuracy(t *testing.T) {
	probs, _ := tensor.FromSlice([]float32{
		0.9, 0.1,
		0.4, 0.6,
		0.3, 0.7,
		0.8, 0.2,
	}, tensor.Shape{4, 2})
	assert.Equal(t, float32(0.75), Accuracy(probs, []int{0, 1, 0, 0}))
	assert.Equal(t, float32(0), Accuracy(probs, nil))
}

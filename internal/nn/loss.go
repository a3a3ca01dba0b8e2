package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/resnet/internal/tensor"
)

// probEpsilon bounds probabilities away from 0 and 1 before taking the log.
const probEpsilon = 1e-7

// CategoricalCrossentropy computes the cross-entropy between one-hot targets
// and predicted probabilities (the output of a softmax layer).
//
//	L = -1/N Σ_n Σ_c y[n,c] * log(clip(p[n,c]))
//
// Example:
//
//	var loss nn.CategoricalCrossentropy
//	value, grad := loss.Forward(probs, tensor.OneHot(labels, 10))
type CategoricalCrossentropy struct{}

// Forward returns the mean loss and dL/dProbabilities.
func (CategoricalCrossentropy) Forward(probs, targets *tensor.Tensor) (float32, *tensor.Tensor) {
	if !probs.Shape().Equal(targets.Shape()) || probs.Rank() != 2 {
		panic(fmt.Sprintf("categorical_crossentropy: probabilities %v and targets %v must be equal 2D shapes",
			probs.Shape(), targets.Shape()))
	}
	n := float32(probs.Shape()[0])
	p, y := probs.Data(), targets.Data()

	grad := tensor.ZerosLike(probs)
	g := grad.Data()
	var loss float64
	for i, pv := range p {
		if y[i] == 0 {
			continue
		}
		clipped := min(max(pv, probEpsilon), 1-probEpsilon)
		loss -= float64(y[i]) * math.Log(float64(clipped))
		g[i] = -y[i] / clipped / n
	}
	return float32(loss / float64(n)), grad
}

// SparseCategoricalCrossentropy is CategoricalCrossentropy with integer labels.
type SparseCategoricalCrossentropy struct{}

// Forward returns the mean loss and dL/dProbabilities.
func (SparseCategoricalCrossentropy) Forward(probs *tensor.Tensor, labels []int) (float32, *tensor.Tensor) {
	shape := probs.Shape()
	if len(shape) != 2 || shape[0] != len(labels) {
		panic(fmt.Sprintf("sparse_categorical_crossentropy: probabilities %v do not match %d labels", shape, len(labels)))
	}
	return CategoricalCrossentropy{}.Forward(probs, tensor.OneHot(labels, shape[1]))
}

// Accuracy returns the fraction of rows whose arg-max equals the label.
func Accuracy(probs *tensor.Tensor, labels []int) float32 {
	if len(labels) == 0 {
		return 0
	}
	pred := probs.ArgMax()
	correct := 0
	for i, l := range labels {
		if pred[i] == l {
			correct++
		}
	}
	return float32(correct) / float32(len(labels))
}

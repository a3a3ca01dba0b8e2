package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

func testBackend() tensor.Backend {
	return cpu.NewWithConfig(parallel.Sequential())
}

// buildAndInit builds a layer for the given per-sample shapes and seeds its
// parameters.
func buildAndInit(t *testing.T, l Layer, rng *rand.Rand, shapes ...tensor.Shape) tensor.Shape {
	t.Helper()
	out, err := l.Build(shapes...)
	require.NoError(t, err)
	for _, p := range l.Parameters() {
		p.Initialize(rng)
	}
	return out
}

// weightedSum returns L = Σ out*r, whose gradient w.r.t. out is r.
func weightedSum(out, r *tensor.Tensor) float32 {
	var sum float64
	for i, v := range out.Data() {
		sum += float64(v) * float64(r.Data()[i])
	}
	return float32(sum)
}

// assertNumericalGrad perturbs every element of x and compares the central
// difference of loss against analytic.
func assertNumericalGrad(t *testing.T, x, analytic *tensor.Tensor, loss func() float32, tol float64) {
	t.Helper()
	const eps = 1e-2
	require.Equal(t, x.Shape(), analytic.Shape())
	data := x.Data()
	for i := range data {
		orig := data[i]
		data[i] = orig + eps
		plus := loss()
		data[i] = orig - eps
		minus := loss()
		data[i] = orig

		numeric := float64(plus-minus) / (2 * eps)
		assert.InDelta(t, numeric, float64(analytic.Data()[i]), tol, "element %d", i)
	}
}

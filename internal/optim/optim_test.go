package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/optim"
	"github.com/born-ml/resnet/internal/tensor"
)

func param(t *testing.T, value, grad float32) *nn.Parameter {
	t.Helper()
	x, err := tensor.FromSlice([]float32{value}, tensor.Shape{1})
	require.NoError(t, err)
	p := nn.NewParameter("x", x)
	g, err := tensor.FromSlice([]float32{grad}, tensor.Shape{1})
	require.NoError(t, err)
	p.AccumulateGrad(g)
	return p
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	p := param(t, 2.0, 1.0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	opt.Step([]*nn.Parameter{p})

	// x_new = 2.0 - 0.1 * 1.0 = 1.9
	assert.InDelta(t, 1.9, p.Tensor().Data()[0], 1e-6)
}

// TestSGD_WithMomentum tests that velocity accumulates across steps.
func TestSGD_WithMomentum(t *testing.T) {
	p := param(t, 1.0, 1.0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	opt.Step([]*nn.Parameter{p}) // v = 1,   x = 1 - 0.1   = 0.9
	opt.Step([]*nn.Parameter{p}) // v = 1.9, x = 0.9 - 0.19 = 0.71
	assert.InDelta(t, 0.71, p.Tensor().Data()[0], 1e-6)
}

func TestSGD_Nesterov(t *testing.T) {
	p := param(t, 1.0, 1.0)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9, Nesterov: true})

	// v = 1, step = g + 0.9*v = 1.9
	opt.Step([]*nn.Parameter{p})
	assert.InDelta(t, 0.81, p.Tensor().Data()[0], 1e-6)
}

func TestSGD_SkipsFrozenAndGradless(t *testing.T) {
	frozen := nn.NewBatchNormalization(nn.BatchNormConfig{})
	_, err := frozen.Build(tensor.Shape{1})
	require.NoError(t, err)
	moving := frozen.MovingMean()
	moving.AccumulateGrad(tensor.Ones(tensor.Shape{1}))

	noGrad := nn.NewParameter("w", tensor.Ones(tensor.Shape{1}))

	opt := optim.NewSGD(optim.SGDConfig{LR: 1})
	opt.Step([]*nn.Parameter{moving, noGrad})

	assert.Equal(t, float32(0), moving.Tensor().Data()[0])
	assert.Equal(t, float32(1), noGrad.Tensor().Data()[0])
}

// TestAdam_FirstStep checks that the first Adam step moves by ~lr.
func TestAdam_FirstStep(t *testing.T) {
	p := param(t, 1.0, 0.5)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
	opt.Step([]*nn.Parameter{p})

	// m_hat = g, v_hat = g², so the update is lr * g/|g|.
	assert.InDelta(t, 0.99, p.Tensor().Data()[0], 1e-5)
	assert.Equal(t, 1, opt.GetTimestep())
}

func TestNew(t *testing.T) {
	opt, err := optim.New(optim.Config{Name: "adam", LR: 0.002})
	require.NoError(t, err)
	assert.IsType(t, &optim.Adam{}, opt)
	assert.Equal(t, float32(0.002), opt.GetLR())

	opt, err = optim.New(optim.Config{Name: "SGD", LR: 0.1, Momentum: 0.9})
	require.NoError(t, err)
	opt.SetLR(0.05)
	assert.Equal(t, float32(0.05), opt.GetLR())

	_, err = optim.New(optim.Config{Name: "rmsprop"})
	assert.Error(t, err)
}

package graph

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/resnet/internal/backend/cpu"
	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/optim"
	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

func testBackend() tensor.Backend {
	return cpu.NewWithConfig(parallel.Sequential())
}

// tinyResidual builds input -> conv -> bn -> relu -> conv -> bn -> add(skip) -> relu -> gap -> flatten -> dense.
func tinyResidual(t *testing.T) (*Model, []*Node) {
	t.Helper()
	backend := testBackend()

	in := Input(tensor.Shape{4, 4, 2})
	x := Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 3}, backend), in)
	x = Apply(nn.NewBatchNormalization(nn.BatchNormConfig{}), x)
	x = Apply(nn.NewActivation(nn.ReLU), x)
	a := Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 3, DilationRate: 2}, backend), x)
	a = Apply(nn.NewBatchNormalization(nn.BatchNormConfig{}), a)
	x = Apply(nn.NewAdd(), x, a)
	x = Apply(nn.NewActivation(nn.ReLU), x)
	x = Apply(nn.NewGlobalAveragePooling2D(), x)
	x = Apply(nn.NewFlatten(), x)
	out := Apply(nn.NewDense(nn.DenseConfig{Units: 2, Activation: nn.Softmax, KernelInitializer: nn.HeNormal{}}, backend), x)

	model, err := NewModel([]*Node{in}, []*Node{out}, WithName("tiny"), WithSeed(11))
	require.NoError(t, err)
	return model, []*Node{in, out}
}

func TestNewModel_LayersAndNames(t *testing.T) {
	model, _ := tinyResidual(t)

	var names []string
	for _, l := range model.Layers() {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{
		"input", "conv2d", "batch_normalization", "activation",
		"conv2d_1", "batch_normalization_1", "add", "activation_1",
		"global_average_pooling2d", "flatten", "dense",
	}, names)

	assert.Equal(t, tensor.Shape{4, 4, 2}, model.InputShape())
	assert.Equal(t, tensor.Shape{2}, model.OutputShape())

	l, ok := model.Layer("conv2d_1")
	require.True(t, ok)
	assert.Equal(t, "Conv2D", l.Type())
	_, ok = model.Layer("missing")
	assert.False(t, ok)
}

func TestNewModel_ParamCounts(t *testing.T) {
	model, _ := tinyResidual(t)

	// conv 3*3*2*3+3 = 57, bn 4*3 = 12, conv 3*3*3*3+3 = 84, bn 12, dense 3*2+2 = 8
	assert.Equal(t, 57+12+84+12+8, model.CountParams())
	assert.Equal(t, 2*2*3, model.NonTrainableParams())
	assert.Equal(t, model.CountParams()-12, model.TrainableParams())
}

func TestNewModel_SeedIsDeterministic(t *testing.T) {
	a, _ := tinyResidual(t)
	b, _ := tinyResidual(t)
	pa, pb := a.Parameters(), b.Parameters()
	require.Equal(t, len(pa), len(pb))
	for i := range pa {
		assert.Equal(t, pa[i].Tensor().Data(), pb[i].Tensor().Data())
	}
}

func TestApply_ShapeErrorPropagates(t *testing.T) {
	backend := testBackend()
	in := Input(tensor.Shape{8, 8, 1})
	a := Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 4}, backend), in)
	b := Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 8}, backend), in)
	sum := Apply(nn.NewAdd(), a, b)
	require.Error(t, sum.Err())
	assert.True(t, errors.Is(sum.Err(), tensor.ErrShapeMismatch))

	out := Apply(nn.NewFlatten(), sum)
	assert.Equal(t, sum.Err(), out.Err())
	assert.Nil(t, out.Shape())

	_, err := NewModel([]*Node{in}, []*Node{out})
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestNewModel_Disconnected(t *testing.T) {
	a := Input(tensor.Shape{2})
	b := Input(tensor.Shape{2})
	sum := Apply(nn.NewAdd(), a, b)

	_, err := NewModel([]*Node{a}, []*Node{sum})
	assert.True(t, errors.Is(err, ErrDisconnected))

	model, err := NewModel([]*Node{a, b}, []*Node{sum})
	require.NoError(t, err)
	assert.Len(t, model.Layers(), 3)
}

func TestNewModel_RejectsReusedLayerAndDuplicateNames(t *testing.T) {
	in := Input(tensor.Shape{3})
	relu := nn.NewActivation(nn.ReLU)
	x := Apply(relu, in)
	x = Apply(relu, x)
	_, err := NewModel([]*Node{in}, []*Node{x})
	assert.True(t, errors.Is(err, ErrLayerReused))

	in = Input(tensor.Shape{3})
	first := nn.NewActivation(nn.ReLU)
	first.SetName("act")
	second := nn.NewActivation(nn.ReLU)
	second.SetName("act")
	x = Apply(second, Apply(first, in))
	_, err = NewModel([]*Node{in}, []*Node{x})
	assert.True(t, errors.Is(err, ErrDuplicateName))
}

func TestNewModel_InputsMustBePlaceholders(t *testing.T) {
	in := Input(tensor.Shape{3})
	x := Apply(nn.NewActivation(nn.ReLU), in)
	_, err := NewModel([]*Node{x}, []*Node{x})
	assert.Error(t, err)

	_, err = NewModel(nil, []*Node{x})
	assert.Error(t, err)
}

func TestForward_ShapesAndErrors(t *testing.T) {
	model, _ := tinyResidual(t)
	rng := rand.New(rand.NewSource(1))

	probs, err := model.Predict(tensor.Randn(tensor.Shape{5, 4, 4, 2}, rng))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{5, 2}, probs.Shape())
	for r := 0; r < 5; r++ {
		assert.InDelta(t, 1, probs.Data()[2*r]+probs.Data()[2*r+1], 1e-5)
	}

	_, err = model.Predict(tensor.Zeros(tensor.Shape{5, 4, 4, 3}))
	assert.True(t, errors.Is(err, ErrInputMismatch))

	_, err = model.Forward(nil, false)
	assert.True(t, errors.Is(err, ErrInputMismatch))
}

// smoothResidual is tinyResidual without ReLU so finite differences stay
// away from kinks.
func smoothResidual(t *testing.T) *Model {
	t.Helper()
	backend := testBackend()

	in := Input(tensor.Shape{4, 4, 2})
	x := Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 3}, backend), in)
	a := Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 3, DilationRate: 2}, backend), x)
	a = Apply(nn.NewBatchNormalization(nn.BatchNormConfig{}), a)
	x = Apply(nn.NewAdd(), x, a)
	x = Apply(nn.NewGlobalAveragePooling2D(), x)
	x = Apply(nn.NewFlatten(), x)
	out := Apply(nn.NewDense(nn.DenseConfig{Units: 2, Activation: nn.Softmax}, backend), x)

	model, err := NewModel([]*Node{in}, []*Node{out}, WithSeed(13))
	require.NoError(t, err)
	return model
}

// TestBackward_NumericalGradient checks input gradients through the residual
// branch, batch normalization and the softmax head.
func TestBackward_NumericalGradient(t *testing.T) {
	model := smoothResidual(t)
	rng := rand.New(rand.NewSource(3))

	x := tensor.Randn(tensor.Shape{3, 4, 4, 2}, rng)
	outs, err := model.Forward([]*tensor.Tensor{x}, true)
	require.NoError(t, err)
	r := tensor.Randn(outs[0].Shape(), rng)

	grads, err := model.Backward(r)
	require.NoError(t, err)
	require.Len(t, grads, 1)
	require.NotNil(t, grads[0])

	loss := func() float64 {
		o, err := model.Forward([]*tensor.Tensor{x}, true)
		require.NoError(t, err)
		var sum float64
		for i, v := range o[0].Data() {
			sum += float64(v) * float64(r.Data()[i])
		}
		return sum
	}

	const eps = 1e-2
	for i := range x.Data() {
		orig := x.Data()[i]
		x.Data()[i] = orig + eps
		plus := loss()
		x.Data()[i] = orig - eps
		minus := loss()
		x.Data()[i] = orig
		assert.InDelta(t, (plus-minus)/(2*eps), grads[0].Data()[i], 1e-2, "element %d", i)
	}
}

func TestTrain_ReducesLoss(t *testing.T) {
	model, _ := tinyResidual(t)
	rng := rand.New(rand.NewSource(5))

	x := tensor.Randn(tensor.Shape{8, 4, 4, 2}, rng)
	labels := []int{0, 1, 0, 1, 1, 0, 1, 0}
	for i := 0; i < 8; i++ {
		// Class 1 images are brighter.
		shift := float32(-1)
		if labels[i] == 1 {
			shift = 1
		}
		for j := i * 32; j < (i+1)*32; j++ {
			x.Data()[j] += shift
		}
	}

	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
	first, err := model.Train(x, labels, opt)
	require.NoError(t, err)
	var last StepResult
	for i := 0; i < 30; i++ {
		last, err = model.Train(x, labels, opt)
		require.NoError(t, err)
	}
	assert.Less(t, last.Loss, first.Loss)

	eval, err := model.Evaluate(x, labels)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, eval.Loss, float32(0))
}

func TestTrain_AddsRegularization(t *testing.T) {
	backend := testBackend()
	in := Input(tensor.Shape{2, 2, 1})
	x := Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 2, KernelRegularizer: nn.NewL2(0.5)}, backend), in)
	x = Apply(nn.NewGlobalAveragePooling2D(), x)
	out := Apply(nn.NewDense(nn.DenseConfig{Units: 2, Activation: nn.Softmax}, backend), x)
	model, err := NewModel([]*Node{in}, []*Node{out})
	require.NoError(t, err)

	kernel := model.Parameters()[0]
	want := 0.5 * kernel.Tensor().SumSquares()
	assert.InDelta(t, want, model.RegularizationLoss(), 1e-6)

	res, err := model.Train(tensor.Ones(tensor.Shape{2, 2, 2, 1}), []int{0, 1}, optim.NewSGD(optim.SGDConfig{LR: 0.1}))
	require.NoError(t, err)
	assert.InDelta(t, want, res.RegularizationLoss, 1e-6)
	assert.Greater(t, res.Loss, res.RegularizationLoss)
}

func TestTrain_RejectsBadLabels(t *testing.T) {
	model, _ := tinyResidual(t)
	opt := optim.NewSGD(optim.SGDConfig{})

	_, err := model.Train(tensor.Zeros(tensor.Shape{2, 4, 4, 2}), []int{0}, opt)
	assert.True(t, errors.Is(err, ErrInputMismatch))

	_, err = model.Train(tensor.Zeros(tensor.Shape{1, 4, 4, 2}), []int{7}, opt)
	assert.ErrorContains(t, err, "out of range")
}

func TestSummary(t *testing.T) {
	model, _ := tinyResidual(t)
	var buf bytes.Buffer
	require.NoError(t, model.Summary(&buf))

	out := buf.String()
	assert.Contains(t, out, `Model: "tiny"`)
	assert.Contains(t, out, "conv2d_1 (Conv2D)")
	assert.Contains(t, out, "(4, 4, 3)")
	assert.Contains(t, out, "activation, batch_normalization_1")
	assert.Contains(t, out, "Total params: 173")
	assert.Contains(t, out, "Non-trainable params: 12")
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "0", groupDigits(0))
	assert.Equal(t, "999", groupDigits(999))
	assert.Equal(t, "1,000", groupDigits(1000))
	assert.Equal(t, "588,586", groupDigits(588586))
	assert.Equal(t, "-12,345", groupDigits(-12345))
}

func TestDefaultPrefix(t *testing.T) {
	assert.Equal(t, "conv2d", defaultPrefix("Conv2D"))
	assert.Equal(t, "batch_normalization", defaultPrefix("BatchNormalization"))
	assert.Equal(t, "global_average_pooling2d", defaultPrefix("GlobalAveragePooling2D"))
	assert.Equal(t, "input", defaultPrefix("InputLayer"))
}

func TestModel_LayerShape(t *testing.T) {
	model, _ := tinyResidual(t)

	shape, ok := model.LayerShape("global_average_pooling2d")
	require.True(t, ok)
	assert.Equal(t, tensor.Shape{3}, shape)

	_, ok = model.LayerShape("nope")
	assert.False(t, ok)
}

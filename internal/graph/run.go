package graph

import (
	"fmt"

	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/optim"
	"github.com/born-ml/resnet/internal/tensor"
)

// Forward runs the model on batched inputs (one tensor per model input, each
// [batch, ...input shape]) and returns one tensor per model output.
//
// In training mode layers cache what Backward needs and batch normalization
// uses batch statistics.
func (m *Model) Forward(inputs []*tensor.Tensor, training bool) ([]*tensor.Tensor, error) {
	if len(inputs) != len(m.inputs) {
		return nil, fmt.Errorf("%w: model %q expects %d inputs, got %d", ErrInputMismatch, m.name, len(m.inputs), len(inputs))
	}
	batch := -1
	values := make(map[*Node]*tensor.Tensor, len(m.nodes))
	for i, in := range m.inputs {
		x := inputs[i]
		want := in.shape
		got := x.Shape()
		if len(got) != len(want)+1 || !got[1:].Equal(want) {
			return nil, fmt.Errorf("%w: input %d expects batches of %v, got %v", ErrInputMismatch, i, want, got)
		}
		if batch >= 0 && got[0] != batch {
			return nil, fmt.Errorf("%w: inputs disagree on batch size (%d vs %d)", ErrInputMismatch, batch, got[0])
		}
		batch = got[0]
		values[in] = x
	}

	for _, n := range m.nodes {
		if n.isInput() {
			continue
		}
		args := make([]*tensor.Tensor, len(n.inputs))
		for i, in := range n.inputs {
			args[i] = values[in]
		}
		values[n] = n.layer.Forward(args, training)
	}

	outputs := make([]*tensor.Tensor, len(m.outputs))
	for i, out := range m.outputs {
		outputs[i] = values[out]
	}
	return outputs, nil
}

// Predict runs inference on a single-input, single-output model.
func (m *Model) Predict(x *tensor.Tensor) (*tensor.Tensor, error) {
	outs, err := m.Forward([]*tensor.Tensor{x}, false)
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}

// gradAccumulator sums gradients flowing into a node. Layer Backward may
// hand the same tensor to several inputs, so the first contribution is
// stored as-is and only copied once a second one arrives.
type gradAccumulator struct {
	grad  *tensor.Tensor
	owned bool
}

func (a *gradAccumulator) add(g *tensor.Tensor) {
	if a.grad == nil {
		a.grad = g
		return
	}
	if !a.owned {
		a.grad = a.grad.Clone()
		a.owned = true
	}
	a.grad.AddInPlace(g)
}

// Backward propagates output gradients through the graph in reverse
// execution order, accumulating parameter gradients. It must follow a
// Forward call. The returned slice holds dL/dInput for each model input
// (nil when no gradient reached it).
func (m *Model) Backward(outputGrads ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(outputGrads) != len(m.outputs) {
		return nil, fmt.Errorf("graph: model %q has %d outputs, got %d gradients", m.name, len(m.outputs), len(outputGrads))
	}
	grads := make(map[*Node]*gradAccumulator, len(m.nodes))
	acc := func(n *Node) *gradAccumulator {
		a, ok := grads[n]
		if !ok {
			a = &gradAccumulator{}
			grads[n] = a
		}
		return a
	}
	for i, out := range m.outputs {
		if outputGrads[i] != nil {
			acc(out).add(outputGrads[i])
		}
	}

	for i := len(m.nodes) - 1; i >= 0; i-- {
		n := m.nodes[i]
		a, ok := grads[n]
		if !ok || a.grad == nil || n.isInput() {
			continue
		}
		inputGrads := n.layer.Backward(a.grad)
		for j, in := range n.inputs {
			if j < len(inputGrads) && inputGrads[j] != nil {
				acc(in).add(inputGrads[j])
			}
		}
	}

	result := make([]*tensor.Tensor, len(m.inputs))
	for i, in := range m.inputs {
		if a, ok := grads[in]; ok {
			result[i] = a.grad
		}
	}
	return result, nil
}

// StepResult reports one training or evaluation pass.
type StepResult struct {
	Loss               float32 // data loss + regularization
	RegularizationLoss float32
	Accuracy           float32
}

// Train runs one optimization step on a batch with integer class labels.
//
// The model must have one input and one output producing probabilities of
// shape (classes,). The loss is sparse categorical cross-entropy plus every
// parameter's regularization penalty.
func (m *Model) Train(x *tensor.Tensor, labels []int, opt optim.Optimizer) (StepResult, error) {
	if err := m.checkClassifier(x, labels); err != nil {
		return StepResult{}, err
	}

	m.ZeroGrad()
	outs, err := m.Forward([]*tensor.Tensor{x}, true)
	if err != nil {
		return StepResult{}, err
	}
	probs := outs[0]

	loss, grad := nn.SparseCategoricalCrossentropy{}.Forward(probs, labels)
	if _, err := m.Backward(grad); err != nil {
		return StepResult{}, err
	}

	reg := m.RegularizationLoss()
	params := m.TrainableParameters()
	for _, p := range params {
		p.ApplyRegularization()
	}
	opt.Step(params)

	return StepResult{
		Loss:               loss + reg,
		RegularizationLoss: reg,
		Accuracy:           nn.Accuracy(probs, labels),
	}, nil
}

// Evaluate computes loss and accuracy in inference mode.
func (m *Model) Evaluate(x *tensor.Tensor, labels []int) (StepResult, error) {
	if err := m.checkClassifier(x, labels); err != nil {
		return StepResult{}, err
	}
	probs, err := m.Predict(x)
	if err != nil {
		return StepResult{}, err
	}
	loss, _ := nn.SparseCategoricalCrossentropy{}.Forward(probs, labels)
	reg := m.RegularizationLoss()
	return StepResult{
		Loss:               loss + reg,
		RegularizationLoss: reg,
		Accuracy:           nn.Accuracy(probs, labels),
	}, nil
}

func (m *Model) checkClassifier(x *tensor.Tensor, labels []int) error {
	if len(m.inputs) != 1 || len(m.outputs) != 1 || len(m.OutputShape()) != 1 {
		return fmt.Errorf("graph: model %q is not a single-input classifier (output %v)", m.name, m.OutputShape())
	}
	if x.Rank() == 0 || x.Shape()[0] != len(labels) {
		return fmt.Errorf("%w: batch %v does not match %d labels", ErrInputMismatch, x.Shape(), len(labels))
	}
	classes := m.OutputShape()[0]
	for i, l := range labels {
		if l < 0 || l >= classes {
			return fmt.Errorf("graph: label %d at index %d out of range [0, %d)", l, i, classes)
		}
	}
	return nil
}

package graph

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"unicode"

	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/tensor"
)

var (
	// ErrDisconnected is returned when an output depends on an input
	// placeholder that was not passed to NewModel.
	ErrDisconnected = errors.New("graph: disconnected")

	// ErrDuplicateName is returned when two layers share a name.
	ErrDuplicateName = errors.New("graph: duplicate layer name")

	// ErrLayerReused is returned when one layer instance produces two nodes.
	ErrLayerReused = errors.New("graph: layer applied more than once")

	// ErrInputMismatch is returned when Forward receives the wrong inputs.
	ErrInputMismatch = errors.New("graph: input mismatch")
)

// Option configures NewModel.
type Option func(*modelOptions)

type modelOptions struct {
	name string
	rng  *rand.Rand
}

// WithName sets the model name shown by Summary.
func WithName(name string) Option {
	return func(o *modelOptions) { o.name = name }
}

// WithSeed initializes parameters from a deterministic source.
func WithSeed(seed int64) Option {
	return func(o *modelOptions) { o.rng = rand.New(rand.NewSource(seed)) } //nolint:gosec // weight init
}

// WithRand initializes parameters from rng.
func WithRand(rng *rand.Rand) Option {
	return func(o *modelOptions) { o.rng = rng }
}

// Model binds input nodes to output nodes. Layers are kept in creation
// order, which is a valid execution order.
type Model struct {
	name    string
	inputs  []*Node
	outputs []*Node
	nodes   []*Node
	byName  map[string]nn.Layer
}

// NewModel collects every node between inputs and outputs, validates the
// graph, assigns default layer names and initializes parameters.
func NewModel(inputs, outputs []*Node, opts ...Option) (*Model, error) {
	o := modelOptions{name: "model"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(1)) //nolint:gosec // weight init
	}

	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("graph: model needs at least one input and one output")
	}
	for _, out := range outputs {
		if out == nil {
			return nil, fmt.Errorf("graph: nil output node")
		}
		if out.err != nil {
			return nil, out.err
		}
	}
	declared := make(map[*Node]bool, len(inputs))
	for i, in := range inputs {
		if in == nil || !in.isInput() {
			return nil, fmt.Errorf("graph: model input %d is not an Input node", i)
		}
		declared[in] = true
	}

	// Collect every node reachable backwards from the outputs.
	seen := make(map[*Node]bool)
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if seen[n] {
			return nil
		}
		seen[n] = true
		if n.isInput() && !declared[n] {
			return fmt.Errorf("%w: cannot obtain value for input of shape %v; it was not passed to NewModel",
				ErrDisconnected, n.shape)
		}
		for _, in := range n.inputs {
			if err := visit(in); err != nil {
				return err
			}
		}
		return nil
	}
	for _, out := range outputs {
		if err := visit(out); err != nil {
			return nil, err
		}
	}
	for in := range declared {
		seen[in] = true
	}

	nodes := make([]*Node, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })

	m := &Model{
		name:    o.name,
		inputs:  inputs,
		outputs: outputs,
		nodes:   nodes,
		byName:  make(map[string]nn.Layer, len(nodes)),
	}
	if err := m.assignNames(); err != nil {
		return nil, err
	}

	for _, p := range m.Parameters() {
		p.Initialize(o.rng)
	}
	return m, nil
}

// assignNames gives unnamed layers Keras-style names ("conv2d",
// "conv2d_1", ...) and rejects duplicates and reused layer instances.
func (m *Model) assignNames() error {
	owners := make(map[nn.Layer]bool, len(m.nodes))
	for _, n := range m.nodes {
		if owners[n.layer] {
			return fmt.Errorf("%w: %s %q", ErrLayerReused, n.layer.Type(), n.layer.Name())
		}
		owners[n.layer] = true
		if name := n.layer.Name(); name != "" {
			if _, dup := m.byName[name]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateName, name)
			}
			m.byName[name] = n.layer
		}
	}

	counters := make(map[string]int)
	for _, n := range m.nodes {
		if n.layer.Name() != "" {
			continue
		}
		prefix := defaultPrefix(n.layer.Type())
		for {
			name := prefix
			if k := counters[prefix]; k > 0 {
				name = fmt.Sprintf("%s_%d", prefix, k)
			}
			counters[prefix]++
			if _, taken := m.byName[name]; !taken {
				n.layer.SetName(name)
				m.byName[name] = n.layer
				break
			}
		}
	}
	return nil
}

// defaultPrefix turns a layer type into its snake_case name prefix.
func defaultPrefix(layerType string) string {
	if layerType == "InputLayer" {
		return "input"
	}
	var b strings.Builder
	runes := []rune(layerType)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && unicode.IsLower(runes[i-1]) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Layers returns every layer in execution order, input layers included.
func (m *Model) Layers() []nn.Layer {
	layers := make([]nn.Layer, len(m.nodes))
	for i, n := range m.nodes {
		layers[i] = n.layer
	}
	return layers
}

// Layer looks a layer up by name.
func (m *Model) Layer(name string) (nn.Layer, bool) {
	l, ok := m.byName[name]
	return l, ok
}

// LayerShape returns the per-sample output shape of the named layer.
func (m *Model) LayerShape(name string) (tensor.Shape, bool) {
	for _, n := range m.nodes {
		if n.layer.Name() == name {
			return n.shape, true
		}
	}
	return nil, false
}

// Inputs returns the input nodes.
func (m *Model) Inputs() []*Node {
	return m.inputs
}

// Outputs returns the output nodes.
func (m *Model) Outputs() []*Node {
	return m.outputs
}

// InputShape returns the per-sample shape of the first input.
func (m *Model) InputShape() tensor.Shape {
	return m.inputs[0].shape
}

// OutputShape returns the per-sample shape of the first output.
func (m *Model) OutputShape() tensor.Shape {
	return m.outputs[0].shape
}

// Parameters returns every parameter in layer order.
func (m *Model) Parameters() []*nn.Parameter {
	var params []*nn.Parameter
	for _, n := range m.nodes {
		params = append(params, n.layer.Parameters()...)
	}
	return params
}

// TrainableParameters returns the parameters an optimizer updates.
func (m *Model) TrainableParameters() []*nn.Parameter {
	var params []*nn.Parameter
	for _, p := range m.Parameters() {
		if p.Trainable() {
			params = append(params, p)
		}
	}
	return params
}

// CountParams returns the total number of scalar weights.
func (m *Model) CountParams() int {
	return countParams(m.Parameters())
}

// TrainableParams returns the number of trainable scalar weights.
func (m *Model) TrainableParams() int {
	return countParams(m.TrainableParameters())
}

// NonTrainableParams returns the number of non-trainable scalar weights.
func (m *Model) NonTrainableParams() int {
	return m.CountParams() - m.TrainableParams()
}

func countParams(params []*nn.Parameter) int {
	total := 0
	for _, p := range params {
		total += p.Tensor().Len()
	}
	return total
}

// RegularizationLoss sums every parameter penalty.
func (m *Model) RegularizationLoss() float32 {
	var total float32
	for _, p := range m.Parameters() {
		total += p.RegularizationLoss()
	}
	return total
}

// ZeroGrad clears every parameter gradient.
func (m *Model) ZeroGrad() {
	for _, p := range m.Parameters() {
		p.ZeroGrad()
	}
}

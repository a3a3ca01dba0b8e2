// Package graph implements the functional model API: symbolic nodes are
// created with Input and Apply, and NewModel binds inputs to outputs into a
// trainable Model.
//
//	x := graph.Input(tensor.Shape{32, 32, 3})
//	y := graph.Apply(nn.NewConv2D(nn.Conv2DConfig{Filters: 16}, backend), x)
//	y = graph.Apply(nn.NewActivation(nn.ReLU), y)
//	model, err := graph.NewModel([]*graph.Node{x}, []*graph.Node{y})
//
// Shapes are inferred as nodes are created. A shape error is recorded on the
// node, inherited by every node built from it, and returned by NewModel, so
// builder code can chain Apply calls without checking each one.
package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/tensor"
)

// nextID orders nodes by creation. A node can only reference nodes created
// before it, so creation order is a topological order.
var nextID atomic.Uint64

// Node is a symbolic tensor: the output of a layer applied to other nodes.
type Node struct {
	id     uint64
	layer  nn.Layer
	inputs []*Node
	shape  tensor.Shape
	err    error
}

// Input creates an input placeholder for samples of the given shape
// (batch dimension excluded), e.g. (height, width, channels).
func Input(shape tensor.Shape) *Node {
	layer := nn.NewInputLayer(shape)
	n := &Node{id: nextID.Add(1), layer: layer}
	n.shape, n.err = layer.Build()
	return n
}

// Apply calls layer on the given nodes and returns the resulting node.
//
// If any input carries an error the new node carries the same error and the
// layer is not built.
func Apply(layer nn.Layer, inputs ...*Node) *Node {
	n := &Node{id: nextID.Add(1), layer: layer, inputs: inputs}

	shapes := make([]tensor.Shape, len(inputs))
	for i, in := range inputs {
		if in == nil {
			n.err = fmt.Errorf("%s: input %d is nil", layer.Type(), i)
			return n
		}
		if in.err != nil {
			n.err = in.err
			return n
		}
		shapes[i] = in.shape
	}

	shape, err := layer.Build(shapes...)
	if err != nil {
		n.err = fmt.Errorf("%s: %w", layer.Type(), err)
		return n
	}
	n.shape = shape
	return n
}

// Shape returns the inferred per-sample shape (nil if Err is set).
func (n *Node) Shape() tensor.Shape {
	return n.shape
}

// Err returns the first construction error on the path to this node.
func (n *Node) Err() error {
	return n.err
}

// Layer returns the layer that produces this node.
func (n *Node) Layer() nn.Layer {
	return n.layer
}

// Inputs returns the nodes this node was computed from.
func (n *Node) Inputs() []*Node {
	return n.inputs
}

// isInput reports whether the node is a placeholder.
func (n *Node) isInput() bool {
	_, ok := n.layer.(*nn.InputLayer)
	return ok
}

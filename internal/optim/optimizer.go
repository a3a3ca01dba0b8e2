// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum and Nesterov momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read the gradients accumulated on each nn.Parameter by a
// backward pass and update the parameter tensors in place.
//
// Example usage:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
//
//	for step := range steps {
//	    model.ZeroGrad()
//	    probs, _ := model.Forward(inputs, true)
//	    ...
//	    model.Backward(grad)
//	    optimizer.Step(model.TrainableParameters())
//	}
package optim

import (
	"fmt"
	"strings"

	"github.com/born-ml/resnet/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to every parameter that has a gradient.
	// Parameters without a gradient (not reached by Backward) are skipped.
	Step(params []*nn.Parameter)

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate (for schedules).
	SetLR(lr float32)
}

// Config is the generic optimizer configuration used by config files.
type Config struct {
	Name     string     // "sgd" or "adam"
	LR       float32    // Learning rate
	Momentum float32    // SGD only
	Nesterov bool       // SGD only
	Betas    [2]float32 // Adam only
	Eps      float32    // Adam only
}

// New creates an optimizer from a generic configuration.
func New(cfg Config) (Optimizer, error) {
	switch strings.ToLower(cfg.Name) {
	case "", "sgd":
		return NewSGD(SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum, Nesterov: cfg.Nesterov}), nil
	case "adam":
		return NewAdam(AdamConfig{LR: cfg.LR, Betas: cfg.Betas, Eps: cfg.Eps}), nil
	}
	return nil, fmt.Errorf("optim: unknown optimizer %q", cfg.Name)
}

// trainableWithGrad filters params down to the ones an optimizer should touch.
func trainableWithGrad(params []*nn.Parameter) []*nn.Parameter {
	out := params[:0:0]
	for _, p := range params {
		if p != nil && p.Trainable() && p.Grad() != nil {
			out = append(out, p)
		}
	}
	return out
}

package optim

import (
	"github.com/born-ml/resnet/internal/nn"
	"github.com/born-ml/resnet/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// With Nesterov momentum the step looks ahead along the new velocity:
//
//	param = param - lr * (gradient + momentum * velocity)
type SGD struct {
	lr         float32
	momentum   float32
	nesterov   bool
	velocities map[*nn.Parameter]*tensor.Tensor
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
	Nesterov bool    // Use Nesterov momentum (requires Momentum > 0)
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		nesterov:   config.Nesterov && config.Momentum > 0,
		velocities: make(map[*nn.Parameter]*tensor.Tensor),
	}
}

// Step performs a single optimization step.
func (s *SGD) Step(params []*nn.Parameter) {
	for _, param := range trainableWithGrad(params) {
		w := param.Tensor().Data()
		g := param.Grad().Data()

		if s.momentum == 0 {
			for i, gv := range g {
				w[i] -= s.lr * gv
			}
			continue
		}

		velocity, exists := s.velocities[param]
		if !exists {
			velocity = tensor.ZerosLike(param.Tensor())
			s.velocities[param] = velocity
		}
		v := velocity.Data()
		for i, gv := range g {
			v[i] = s.momentum*v[i] + gv
			if s.nesterov {
				w[i] -= s.lr * (gv + s.momentum*v[i])
			} else {
				w[i] -= s.lr * v[i]
			}
		}
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

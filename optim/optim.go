// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/resnet/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config is the generic optimizer configuration used by config files.
type Config = optim.Config

// New creates an optimizer by name ("sgd" or "adam").
func New(cfg Config) (Optimizer, error) {
	return optim.New(cfg)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional (Nesterov) momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.1,
//	    Momentum: 0.9,
//	})
//	res, err := model.Train(images, labels, optimizer)
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.001})
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers that update nn.Parameter values from
// their accumulated gradients.
//
// # Optimizers
//
// SGD with optional momentum and Nesterov momentum:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	    Nesterov: true,
//	})
//
// Adam (Adaptive Moment Estimation):
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	})
//
// # Training Loop Pattern
//
//	for step := range numSteps {
//	    x, labels := dataset.Batch(step*batchSize, batchSize)
//
//	    // Zero gradients, forward, backward, regularize and update.
//	    res, err := model.Train(x, labels, optimizer)
//	    if err != nil {
//	        return err
//	    }
//	}
//
// Optimizers skip parameters that are not trainable or received no gradient,
// so batch normalization moving statistics are never touched.
package optim

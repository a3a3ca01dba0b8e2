// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package resnet builds a ResNet-v1 image classifier with dilated residual
// stages on top of a pure-Go CPU layer graph.
//
// # Architecture
//
// The network is a stem block followed by three stages of six residual units
// (16, 32 and 64 filters) and a softmax head:
//
//	input (H, W, C)
//	  Block(16)
//	  stage 1: 6 x [Block(16), Block(16, no activation)] + identity, ReLU
//	  stage 2: 6 x [Block(32), Block(32, no activation)] + shortcut, ReLU
//	  stage 3: 6 x [Block(64), Block(64, no activation)] + shortcut, ReLU
//	  GlobalAveragePooling2D, Flatten, Dense(classes, softmax)
//
// Stages 2 and 3 widen the receptive field on their first unit. By default
// they double the dilation rate and keep the spatial size; with
// UseDownsampling they use stride 2 instead and halve it. The first unit of
// each of those stages projects the shortcut with a plain 3x3 convolution.
//
// # Basic Usage
//
//	model, err := resnet.V1(tensor.Shape{32, 32, 3}, 10, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.Summary(os.Stdout) // 135 layers, 588,586 params
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
//	res, err := model.Train(images, labels, opt)
package resnet

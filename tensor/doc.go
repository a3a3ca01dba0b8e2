// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the float32 tensors used by the resnet layers.
//
// # Overview
//
// Tensors are dense, row-major float32 arrays. Images are stored
// channels-last:
//   - Images: [batch, height, width, channels]
//   - Features: [batch, features]
//   - Conv kernels: [kernel_h, kernel_w, in_channels, filters]
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/resnet/tensor"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewSource(1))
//
//	    x := tensor.Randn(tensor.Shape{8, 32, 32, 3}, rng) // a batch of images
//	    y := tensor.Zeros(tensor.Shape{8, 10})
//	    flat := x.Reshape(8, -1)                           // (8, 3072), shares data
//	}
//
// # Convolution Geometry
//
// ConvOutputSize follows the Keras padding rules. "same" keeps
// ceil(in/stride) outputs and pads the smaller half before the data;
// "valid" only keeps windows that fit entirely inside the input.
package tensor

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for the resnet layers.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Im2col algorithm for convolutions with stride, dilation and padding
//   - Col2im for the convolution gradients
//   - Row-parallel matrix multiplication
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/resnet"
//	    "github.com/born-ml/resnet/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.NewWithConfig(cpu.SequentialConfig())
//	    model, err := resnet.New(resnet.Options{Backend: backend})
//	}
//
// # Thread Safety
//
// Kernels share no mutable state, so one backend can serve several models.
package cpu

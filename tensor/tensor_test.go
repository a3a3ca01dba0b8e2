// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/resnet/tensor"
)

func TestFromSlice(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, x.Shape())
	assert.Equal(t, "(2, 3)", x.Shape().String())

	_, err = tensor.FromSlice([]float32{1, 2}, tensor.Shape{2, 3})
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestConvOutputSize(t *testing.T) {
	out, pad := tensor.ConvOutputSize(32, 3, tensor.ConvParams{Stride: 1, Dilation: 16, Padding: tensor.PaddingSame})
	assert.Equal(t, 32, out)
	assert.Equal(t, 16, pad)

	out, _ = tensor.ConvOutputSize(32, 3, tensor.ConvParams{Stride: 2, Dilation: 1, Padding: tensor.PaddingSame})
	assert.Equal(t, 16, out)

	out, pad = tensor.ConvOutputSize(7, 3, tensor.ConvParams{Stride: 1, Dilation: 2, Padding: tensor.PaddingValid})
	assert.Equal(t, 3, out)
	assert.Equal(t, 0, pad)
}

func TestParsePadding(t *testing.T) {
	p, err := tensor.ParsePadding("valid")
	require.NoError(t, err)
	assert.Equal(t, tensor.PaddingValid, p)

	_, err = tensor.ParsePadding("causal")
	assert.Error(t, err)
}

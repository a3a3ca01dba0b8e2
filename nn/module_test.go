// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/resnet/backend/cpu"
	"github.com/born-ml/resnet/nn"
	"github.com/born-ml/resnet/tensor"
)

// TestLayerInterface verifies that the exported layers build from shapes.
func TestLayerInterface(t *testing.T) {
	backend := cpu.NewWithConfig(cpu.SequentialConfig())

	tests := []struct {
		name  string
		layer nn.Layer
		in    []tensor.Shape
		want  tensor.Shape
	}{
		{"Conv2D", nn.NewConv2D(nn.Conv2DConfig{Filters: 4, Strides: 2}, backend), []tensor.Shape{{8, 8, 3}}, tensor.Shape{4, 4, 4}},
		{"BatchNormalization", nn.NewBatchNormalization(nn.BatchNormConfig{}), []tensor.Shape{{8, 8, 3}}, tensor.Shape{8, 8, 3}},
		{"Activation", nn.NewActivation(nn.ReLU), []tensor.Shape{{5}}, tensor.Shape{5}},
		{"Add", nn.NewAdd(), []tensor.Shape{{2, 3}, {2, 3}}, tensor.Shape{2, 3}},
		{"GlobalAveragePooling2D", nn.NewGlobalAveragePooling2D(), []tensor.Shape{{8, 8, 3}}, tensor.Shape{3}},
		{"Flatten", nn.NewFlatten(), []tensor.Shape{{2, 2, 3}}, tensor.Shape{12}},
		{"Dense", nn.NewDense(nn.DenseConfig{Units: 7}, backend), []tensor.Shape{{12}}, tensor.Shape{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.layer.Type())
			got, err := tt.layer.Build(tt.in...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInitializer(t *testing.T) {
	init, err := nn.ParseInitializer("he_normal")
	require.NoError(t, err)
	assert.Equal(t, nn.HeNormal{}, init)

	_, err = nn.ParseInitializer("orthogonal")
	assert.Error(t, err)
}

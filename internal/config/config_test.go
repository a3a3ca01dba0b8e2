package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []int{32, 32, 3}, cfg.Model.InputShape)
	assert.Equal(t, 10, cfg.Model.NumClasses)
	assert.False(t, cfg.Model.UseDownsampling)
	assert.Equal(t, "sgd", cfg.Train.Optimizer)
	assert.Equal(t, 32, cfg.Train.BatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resnet.yaml")
	data := `
model:
  input_shape: [16, 16, 1]
  num_classes: 4
  use_downsampling: true
train:
  optimizer: adam
  learning_rate: 0.001
  batch_size: 8
  samples: 64
parallel:
  workers: 1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, got, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, []int{16, 16, 1}, cfg.Model.InputShape)
	assert.Equal(t, 4, cfg.Model.NumClasses)
	assert.True(t, cfg.Model.UseDownsampling)
	assert.Equal(t, "resnet_v1", cfg.Model.Name)
	assert.Equal(t, "adam", cfg.Train.Optimizer)
	assert.InDelta(t, 0.001, cfg.Train.LearningRate, 1e-9)
	assert.Equal(t, 100, cfg.Train.Steps)

	opt := cfg.OptimizerConfig()
	assert.Equal(t, "adam", opt.Name)
	assert.Equal(t, cfg.Train.LearningRate, opt.LR)

	par := cfg.ParallelConfig()
	assert.False(t, par.Enabled)
	assert.Equal(t, 1, par.NumWorkers)
}

func TestLoadFromPath_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadFromPath(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("model: [unterminated"), 0o644))
	_, _, err = LoadFromPath(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("model:\n  input_shape: [32, 32]\ntrain:\n  optimizer: rmsprop\n"), 0o644))
	_, _, err = LoadFromPath(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input_shape")
	assert.Contains(t, err.Error(), "rmsprop")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "resnet.yaml")

	cfg := DefaultConfig()
	cfg.Model.UseDownsampling = true
	cfg.Train.Momentum = 0.9
	require.NoError(t, cfg.Save(path))

	loaded, _, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero dim", func(c *Config) { c.Model.InputShape = []int{32, 0, 3} }, "input_shape[1]"},
		{"classes", func(c *Config) { c.Model.NumClasses = -2 }, "num_classes"},
		{"lr", func(c *Config) { c.Train.LearningRate = -1 }, "learning_rate"},
		{"momentum", func(c *Config) { c.Train.Momentum = 1 }, "momentum"},
		{"samples", func(c *Config) { c.Train.Samples = 4 }, "train.samples"},
		{"workers", func(c *Config) { c.Parallel.Workers = -1 }, "parallel.workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestFindConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	t.Setenv(EnvConfigPath, path)
	assert.Equal(t, path, FindConfigPath())

	cfg, got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, 10, cfg.Model.NumClasses)

	t.Setenv(EnvConfigPath, filepath.Join(dir, "absent.yaml"))
	// Equivalent of t.Chdir(dir) (Go 1.24+) for older toolchains.
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	assert.Equal(t, "", FindConfigPath())

	cfg, got, err = Load()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, DefaultConfig(), cfg)
}

// Package config loads the model and training settings used by the resnet
// command.
//
// Config file locations (priority order):
//  1. $RESNET_CONFIG
//  2. ./resnet.yaml
//
// Missing values are filled with defaults, so an empty file is a valid
// configuration for a CIFAR-10 sized network.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/resnet/internal/optim"
	"github.com/born-ml/resnet/internal/parallel"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path.
	EnvConfigPath = "RESNET_CONFIG"
	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = "resnet.yaml"
)

// Load finds and loads the config file, or returns defaults if none is found.
// The returned path is empty when defaults are used.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads and validates config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, path, nil
}

// Save writes config to the specified path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // not a secret
}

// DefaultConfig returns the CIFAR-10 setup: 32x32x3 inputs, 10 classes,
// dilated stages and SGD with momentum.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// applyDefaults fills in missing values.
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Model.Name == "" {
		c.Model.Name = "resnet_v1"
	}
	if len(c.Model.InputShape) == 0 {
		c.Model.InputShape = []int{32, 32, 3}
	}
	if c.Model.NumClasses == 0 {
		c.Model.NumClasses = 10
	}
	if c.Model.Seed == 0 {
		c.Model.Seed = 1
	}

	if c.Train.Optimizer == "" {
		c.Train.Optimizer = "sgd"
	}
	if c.Train.LearningRate == 0 {
		c.Train.LearningRate = 0.01
	}
	if c.Train.BatchSize == 0 {
		c.Train.BatchSize = 32
	}
	if c.Train.Steps == 0 {
		c.Train.Steps = 100
	}
	if c.Train.LogEvery == 0 {
		c.Train.LogEvery = 10
	}
	if c.Train.Samples == 0 {
		c.Train.Samples = 512
	}
	if c.Train.DataSeed == 0 {
		c.Train.DataSeed = 42
	}
}

// Validate reports every invalid setting in one error.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Model.InputShape) != 3 {
		errs = append(errs, fmt.Errorf("model.input_shape must have 3 dimensions (height, width, channels), got %v", c.Model.InputShape))
	}
	for i, d := range c.Model.InputShape {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("model.input_shape[%d] must be positive, got %d", i, d))
		}
	}
	if c.Model.NumClasses < 1 {
		errs = append(errs, fmt.Errorf("model.num_classes must be positive, got %d", c.Model.NumClasses))
	}

	switch strings.ToLower(c.Train.Optimizer) {
	case "sgd", "adam":
	default:
		errs = append(errs, fmt.Errorf("train.optimizer must be sgd or adam, got %q", c.Train.Optimizer))
	}
	if c.Train.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("train.learning_rate must be positive, got %g", c.Train.LearningRate))
	}
	if c.Train.Momentum < 0 || c.Train.Momentum >= 1 {
		errs = append(errs, fmt.Errorf("train.momentum must be in [0, 1), got %g", c.Train.Momentum))
	}
	if c.Train.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("train.batch_size must be positive, got %d", c.Train.BatchSize))
	}
	if c.Train.Steps < 1 {
		errs = append(errs, fmt.Errorf("train.steps must be positive, got %d", c.Train.Steps))
	}
	if c.Train.LogEvery < 1 {
		errs = append(errs, fmt.Errorf("train.log_every must be positive, got %d", c.Train.LogEvery))
	}
	if c.Train.Samples < c.Train.BatchSize {
		errs = append(errs, fmt.Errorf("train.samples (%d) must be at least train.batch_size (%d)", c.Train.Samples, c.Train.BatchSize))
	}
	if c.Parallel.Workers < 0 {
		errs = append(errs, fmt.Errorf("parallel.workers must not be negative, got %d", c.Parallel.Workers))
	}

	return errors.Join(errs...)
}

// OptimizerConfig converts the train section into an optim.Config.
func (c *Config) OptimizerConfig() optim.Config {
	return optim.Config{
		Name:     c.Train.Optimizer,
		LR:       c.Train.LearningRate,
		Momentum: c.Train.Momentum,
		Nesterov: c.Train.Nesterov,
	}
}

// ParallelConfig converts the parallel section into kernel settings.
// Zero workers means one per CPU; one worker disables goroutines.
func (c *Config) ParallelConfig() parallel.Config {
	cfg := parallel.DefaultConfig()
	switch {
	case c.Parallel.Workers == 1:
		return parallel.Sequential()
	case c.Parallel.Workers > 1:
		cfg.Enabled = true
		cfg.NumWorkers = c.Parallel.Workers
	}
	return cfg
}

// FindConfigPath returns $RESNET_CONFIG if it names an existing file, then
// ./resnet.yaml, or "" when neither exists.
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}
	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package config

// Config is the root configuration structure.
type Config struct {
	Version  int            `yaml:"version"`
	Model    ModelConfig    `yaml:"model"`
	Train    TrainConfig    `yaml:"train"`
	Parallel ParallelConfig `yaml:"parallel"`
}

// ModelConfig describes the network to build.
type ModelConfig struct {
	Name            string `yaml:"name"`
	InputShape      []int  `yaml:"input_shape,flow"` // height, width, channels
	NumClasses      int    `yaml:"num_classes"`
	UseDownsampling bool   `yaml:"use_downsampling"`
	Seed            int64  `yaml:"seed"`
}

// TrainConfig describes the optimizer and the synthetic training run.
type TrainConfig struct {
	Optimizer    string  `yaml:"optimizer"` // sgd, adam
	LearningRate float32 `yaml:"learning_rate"`
	Momentum     float32 `yaml:"momentum"`
	Nesterov     bool    `yaml:"nesterov"`
	BatchSize    int     `yaml:"batch_size"`
	Steps        int     `yaml:"steps"`
	LogEvery     int     `yaml:"log_every"`
	Samples      int     `yaml:"samples"`   // synthetic dataset size
	DataSeed     int64   `yaml:"data_seed"` // synthetic dataset seed
}

// ParallelConfig controls the CPU kernels.
type ParallelConfig struct {
	Workers int `yaml:"workers"` // 0 = one per CPU
}

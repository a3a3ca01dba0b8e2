// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"github.com/born-ml/resnet/internal/parallel"
	"github.com/born-ml/resnet/internal/tensor"
)

// CPUBackend implements the tensor.Backend kernels on the CPU.
type CPUBackend struct {
	parallel parallel.Config
}

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend that fans work out across all CPUs.
func New() *CPUBackend {
	return &CPUBackend{parallel: parallel.DefaultConfig()}
}

// NewWithConfig creates a CPU backend with an explicit parallelism setting.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{parallel: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Parallel returns the parallel execution settings.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.parallel
}

// Package cpu implements the CPU backend with gonum BLAS matrix products and
// chunked parallel element-wise kernels.
package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/parallel"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// It is stateless apart from its configuration and safe for concurrent use:
// every operation reads its operands and writes a freshly allocated result.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend with the default parallel configuration.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend that splits element-wise kernels
// according to cfg.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// alloc creates a zeroed result tensor, raising a fault tagged with op on
// an invalid shape.
func (cpu *CPUBackend) alloc(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		exceptions.Panicf("%s: failed to create result tensor: %v", op, err)
	}
	return result
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, func(x, y float64) float64 { return x * y })
}

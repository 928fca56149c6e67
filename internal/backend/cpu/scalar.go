package cpu

import (
	"math"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// Scalar operations - element-wise operations with a scalar value.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("mulScalar", x, func(v float64) float64 { return v * scalar })
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("addScalar", x, func(v float64) float64 { return v + scalar })
}

// PowScalar raises each element to a scalar power: x^p.
func (cpu *CPUBackend) PowScalar(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	return cpu.unary("pow", x, func(v float64) float64 { return math.Pow(v, exponent) })
}

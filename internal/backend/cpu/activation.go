package cpu

import (
	"math"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// ReLU computes max(0, x).
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float64) float64 { return max(v, 0) })
}

// LeakyReLU computes x for x > 0 and slope*x otherwise.
func (cpu *CPUBackend) LeakyReLU(x *tensor.RawTensor, slope float64) *tensor.RawTensor {
	return cpu.unary("leakyRelu", x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return slope * v
	})
}

// GELU computes the exact Gaussian error linear unit: x·Φ(x).
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("gelu", x, GELU)
}

// Tanh computes the hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, math.Tanh)
}

// Sigmoid computes 1 / (1 + exp(-x)).
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, Sigmoid)
}

// SiLU computes x·sigmoid(x).
func (cpu *CPUBackend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("silu", x, func(v float64) float64 { return v * Sigmoid(v) })
}

// GELU is the scalar exact GELU, shared with the gradient code.
func GELU(v float64) float64 {
	return 0.5 * v * (1 + math.Erf(v/math.Sqrt2))
}

// Sigmoid is the scalar logistic function.
func Sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

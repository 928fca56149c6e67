package ops

import (
	"math"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// PowOp represents raising to a constant power: output = x^p.
type PowOp struct {
	unaryOp
	exponent float64
}

// NewPowOp creates a new power operation.
func NewPowOp(input, output *tensor.RawTensor, exponent float64) *PowOp {
	return &PowOp{unaryOp: unaryOp{input: input, output: output}, exponent: exponent}
}

// Backward computes dL/dx = grad * p * x^(p-1).
func (op *PowOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	p := op.exponent
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(x, _ float64) float64 {
		if p == 0 {
			return 0
		}
		return p * math.Pow(x, p-1)
	})}
}

// ExpOp represents the exponential: output = e^x.
type ExpOp struct{ unaryOp }

// NewExpOp creates a new exponential operation.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{unaryOp{input: input, output: output}}
}

// Backward computes dL/dx = grad * e^x, reusing the forward output.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// SinOp represents the sine: output = sin(x).
type SinOp struct{ unaryOp }

// NewSinOp creates a new sine operation.
func NewSinOp(input, output *tensor.RawTensor) *SinOp {
	return &SinOp{unaryOp{input: input, output: output}}
}

// Backward computes dL/dx = grad * cos(x).
func (op *SinOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(x, _ float64) float64 {
		return math.Cos(x)
	})}
}

// CosOp represents the cosine: output = cos(x).
type CosOp struct{ unaryOp }

// NewCosOp creates a new cosine operation.
func NewCosOp(input, output *tensor.RawTensor) *CosOp {
	return &CosOp{unaryOp{input: input, output: output}}
}

// Backward computes dL/dx = -grad * sin(x).
func (op *CosOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(x, _ float64) float64 {
		return -math.Sin(x)
	})}
}

// MeanOp represents the mean over all elements: output = sum(x) / n.
type MeanOp struct{ unaryOp }

// NewMeanOp creates a new mean operation.
func NewMeanOp(input, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{unaryOp{input: input, output: output}}
}

// Backward spreads grad / n over every input element.
func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	n := op.input.NumElements()
	value := 0.0
	if n > 0 {
		value = scalarValue(outputGrad) / float64(n)
	}
	return []*tensor.RawTensor{filled(op.input.Shape(), op.input.DType(), op.input.Device(), value)}
}

package ops

import (
	"math"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// TanhOp represents the hyperbolic tangent activation.
type TanhOp struct{ unaryOp }

// NewTanhOp creates a new tanh operation.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{unaryOp{input: input, output: output}}
}

// Backward computes dL/dx = grad * (1 - tanh²(x)) from the forward output.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(_, y float64) float64 {
		return 1 - y*y
	})}
}

// SigmoidOp represents the logistic activation.
type SigmoidOp struct{ unaryOp }

// NewSigmoidOp creates a new sigmoid operation.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{unaryOp{input: input, output: output}}
}

// Backward computes dL/dx = grad * σ(x)(1 - σ(x)) from the forward output.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(_, y float64) float64 {
		return y * (1 - y)
	})}
}

// ReLUOp represents max(0, x).
type ReLUOp struct{ unaryOp }

// NewReLUOp creates a new ReLU operation.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{unaryOp{input: input, output: output}}
}

// Backward passes the gradient where x > 0.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(x, _ float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	})}
}

// LeakyReLUOp represents x for x > 0 and slope*x otherwise.
type LeakyReLUOp struct {
	unaryOp
	slope float64
}

// NewLeakyReLUOp creates a new leaky ReLU operation.
func NewLeakyReLUOp(input, output *tensor.RawTensor, slope float64) *LeakyReLUOp {
	return &LeakyReLUOp{unaryOp: unaryOp{input: input, output: output}, slope: slope}
}

// Backward passes the gradient where x > 0 and scales it by slope elsewhere.
func (op *LeakyReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(x, _ float64) float64 {
		if x > 0 {
			return 1
		}
		return op.slope
	})}
}

// GELUOp represents the exact GELU: x·Φ(x).
type GELUOp struct{ unaryOp }

// NewGELUOp creates a new GELU operation.
func NewGELUOp(input, output *tensor.RawTensor) *GELUOp {
	return &GELUOp{unaryOp{input: input, output: output}}
}

// Backward computes dL/dx = grad * (Φ(x) + x·φ(x)).
func (op *GELUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(x, _ float64) float64 {
		cdf := 0.5 * (1 + math.Erf(x/math.Sqrt2))
		pdf := math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
		return cdf + x*pdf
	})}
}

// SiLUOp represents x·σ(x).
type SiLUOp struct{ unaryOp }

// NewSiLUOp creates a new SiLU operation.
func NewSiLUOp(input, output *tensor.RawTensor) *SiLUOp {
	return &SiLUOp{unaryOp{input: input, output: output}}
}

// Backward computes dL/dx = grad * σ(x)(1 + x(1 - σ(x))).
func (op *SiLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{elementwiseGrad(outputGrad, op.input, op.output, func(x, _ float64) float64 {
		s := 1 / (1 + math.Exp(-x))
		return s * (1 + x*(1-s))
	})}
}

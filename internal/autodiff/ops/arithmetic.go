package ops

import "github.com/born-ml/mandelnet/internal/tensor"

// AddOp represents element-wise addition: output = a + b.
//
// Backward: both inputs receive outputGrad, summed over broadcast dimensions.
type AddOp struct{ binaryOp }

// NewAddOp creates a new addition operation.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{binaryOp{a: a, b: b, output: output}}
}

// Backward computes the input gradients of the addition.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape()),
		reduceBroadcast(outputGrad, op.b.Shape()),
	}
}

// SubOp represents element-wise subtraction: output = a - b.
type SubOp struct{ binaryOp }

// NewSubOp creates a new subtraction operation.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{binaryOp{a: a, b: b, output: output}}
}

// Backward computes the input gradients: dL/da = grad, dL/db = -grad.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape()),
		reduceBroadcast(backend.MulScalar(outputGrad, -1), op.b.Shape()),
	}
}

// MulOp represents element-wise multiplication: output = a * b.
type MulOp struct{ binaryOp }

// NewMulOp creates a new multiplication operation.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{binaryOp{a: a, b: b, output: output}}
}

// Backward computes the input gradients: dL/da = grad * b, dL/db = grad * a.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(outputGrad, op.b), op.a.Shape()),
		reduceBroadcast(backend.Mul(outputGrad, op.a), op.b.Shape()),
	}
}

// MulScalarOp represents multiplication by a constant: output = x * s.
type MulScalarOp struct {
	unaryOp
	scalar float64
}

// NewMulScalarOp creates a new scalar multiplication operation.
func NewMulScalarOp(input, output *tensor.RawTensor, scalar float64) *MulScalarOp {
	return &MulScalarOp{unaryOp: unaryOp{input: input, output: output}, scalar: scalar}
}

// Backward computes dL/dx = grad * s.
func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
}

// AddScalarOp represents addition of a constant: output = x + s.
type AddScalarOp struct{ unaryOp }

// NewAddScalarOp creates a new scalar addition operation.
func NewAddScalarOp(input, output *tensor.RawTensor) *AddScalarOp {
	return &AddScalarOp{unaryOp{input: input, output: output}}
}

// Backward passes the gradient through unchanged.
func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}

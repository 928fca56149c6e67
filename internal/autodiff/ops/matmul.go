package ops

import "github.com/born-ml/mandelnet/internal/tensor"

// MatMulOp represents matrix multiplication: output = a @ b.
//
// Backward:
//
//	dL/da = dL/doutput @ b^T
//	dL/db = a^T @ dL/doutput
type MatMulOp struct{ binaryOp }

// NewMatMulOp creates a new matrix multiplication operation.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{binaryOp{a: a, b: b, output: output}}
}

// Backward computes the input gradients of the matrix product.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.MatMul(outputGrad, backend.Transpose(op.b)),
		backend.MatMul(backend.Transpose(op.a), outputGrad),
	}
}

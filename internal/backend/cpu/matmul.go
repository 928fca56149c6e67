package cpu

import (
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N), computed with BLAS GEMM.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		exceptions.Panicf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape))
	}
	if a.DType() != b.DType() {
		exceptions.Panicf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType())
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		exceptions.Panicf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n)
	}

	result := cpu.alloc("matmul", tensor.Shape{m, n}, a.DType())
	if m == 0 || n == 0 || k == 0 {
		// Empty product: the result is all zeros (or empty).
		return result
	}

	switch a.DType() {
	case tensor.Float32:
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas32.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat32()},
			blas32.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat32()},
			0,
			blas32.General{Rows: m, Cols: n, Stride: n, Data: result.AsFloat32()})
	case tensor.Float64:
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas64.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat64()},
			blas64.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat64()},
			0,
			blas64.General{Rows: m, Cols: n, Stride: n, Data: result.AsFloat64()})
	default:
		exceptions.Panicf("matmul: unsupported dtype %s", a.DType())
	}
	return result
}

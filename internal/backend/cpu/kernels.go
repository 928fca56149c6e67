package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/parallel"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// unary allocates a result shaped like x and fills it with f(x[i]).
func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result := cpu.alloc(op, x.Shape(), x.DType())
	switch x.DType() {
	case tensor.Float32:
		mapUnary(result.AsFloat32(), x.AsFloat32(), f, cpu.parallel)
	case tensor.Float64:
		mapUnary(result.AsFloat64(), x.AsFloat64(), f, cpu.parallel)
	default:
		exceptions.Panicf("%s: unsupported dtype %s", op, x.DType())
	}
	return result
}

func mapUnary[T tensor.DType](dst, src []T, f func(float64) float64, cfg parallel.Config) {
	parallel.ForRange(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = T(f(float64(src[i])))
		}
	}, cfg)
}

// binary broadcasts a and b against each other and fills the result with
// f(a[i], b[i]).
func (cpu *CPUBackend) binary(op string, a, b *tensor.RawTensor, f func(x, y float64) float64) *tensor.RawTensor {
	if a.DType() != b.DType() {
		exceptions.Panicf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType())
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		exceptions.Panicf("%s: %v", op, err)
	}

	result := cpu.alloc(op, outShape, a.DType())
	switch a.DType() {
	case tensor.Float32:
		mapBinary(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBroadcast, f, cpu.parallel)
	case tensor.Float64:
		mapBinary(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBroadcast, f, cpu.parallel)
	default:
		exceptions.Panicf("%s: unsupported dtype %s", op, a.DType())
	}
	return result
}

func mapBinary[T tensor.DType](dst, a, b []T, aShape, bShape, outShape tensor.Shape,
	needsBroadcast bool, f func(x, y float64) float64, cfg parallel.Config) {
	if !needsBroadcast {
		parallel.ForRange(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = T(f(float64(a[i]), float64(b[i])))
			}
		}, cfg)
		return
	}

	aStrides := aShape.BroadcastStrides(outShape)
	bStrides := bShape.BroadcastStrides(outShape)
	outStrides := outShape.ComputeStrides()
	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			ai, bi, rem := 0, 0, i
			for d, stride := range outStrides {
				idx := rem / stride
				rem %= stride
				ai += idx * aStrides[d]
				bi += idx * bStrides[d]
			}
			dst[i] = T(f(float64(a[ai]), float64(b[bi])))
		}
	}, cfg)
}

package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// Mean returns the arithmetic mean of all elements as a scalar (shape []).
// The mean of an empty tensor is 0.
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.alloc("mean", tensor.Shape{}, x.DType())
	n := x.NumElements()
	if n == 0 {
		return result
	}

	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = float32(sum(x.AsFloat32()) / float64(n))
	case tensor.Float64:
		result.AsFloat64()[0] = sum(x.AsFloat64()) / float64(n)
	default:
		exceptions.Panicf("mean: unsupported dtype %s", x.DType())
	}
	return result
}

func sum[T tensor.DType](values []T) float64 {
	var total float64
	for _, v := range values {
		total += float64(v)
	}
	return total
}

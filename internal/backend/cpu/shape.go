package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// Reshape returns a copy of t with a new shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result, err := t.Clone().WithShape(newShape)
	if err != nil {
		exceptions.Panicf("reshape: %v", err)
	}
	return result
}

// Transpose permutes the dimensions of t. With no axes the dimensions are
// reversed, which for 2D tensors is the usual matrix transpose.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		exceptions.Panicf("transpose: got %d axes for %dD tensor", len(axes), ndim)
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			exceptions.Panicf("transpose: invalid permutation %v", axes)
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	result := cpu.alloc("transpose", newShape, t.DType())
	srcStrides := t.Strides()
	// Strides of the source, reordered to follow the output dimensions.
	permStrides := make([]int, ndim)
	for i, ax := range axes {
		permStrides[i] = srcStrides[ax]
	}
	outStrides := newShape.ComputeStrides()

	switch t.DType() {
	case tensor.Float32:
		permute(result.AsFloat32(), t.AsFloat32(), outStrides, permStrides)
	case tensor.Float64:
		permute(result.AsFloat64(), t.AsFloat64(), outStrides, permStrides)
	default:
		exceptions.Panicf("transpose: unsupported dtype %s", t.DType())
	}
	return result
}

func permute[T tensor.DType](dst, src []T, outStrides, srcStrides []int) {
	for i := range dst {
		rem, srcIdx := i, 0
		for d, stride := range outStrides {
			idx := rem / stride
			rem %= stride
			srcIdx += idx * srcStrides[d]
		}
		dst[i] = src[srcIdx]
	}
}

package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// normalizeDim maps a possibly negative dimension into [0, ndim).
func normalizeDim(op string, dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		exceptions.Panicf("%s: dimension %d out of range for %dD tensor", op, dim, ndim)
	}
	return dim
}

// outerInner returns the number of blocks before dim and the block size after it.
func outerInner(shape tensor.Shape, dim int) (outer, inner int) {
	outer, inner = 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	return outer, inner
}

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation
// dimension, where zero-sized operands are allowed and contribute nothing.
// Supports negative dim indexing (-1 = last dimension).
//
// Example:
//
//	a: [2, 3], b: [2, 0], c: [2, 5]
//	backend.Cat([]*RawTensor{a, b, c}, 1) // Shape: [2, 8]
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		exceptions.Panicf("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()
	dim = normalizeDim("cat", dim, ndim)

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			exceptions.Panicf("cat: tensor %d has %d dimensions, expected %d", i, len(tShape), ndim)
		}
		if t.DType() != dtype {
			exceptions.Panicf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype)
		}
		for d := range ndim {
			if d == dim {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				exceptions.Panicf("cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d])
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = totalDim
	result := cpu.alloc("cat", outShape, dtype)

	switch dtype {
	case tensor.Float32:
		parts := make([][]float32, len(tensors))
		for i, t := range tensors {
			parts[i] = t.AsFloat32()
		}
		catInto(result.AsFloat32(), parts, tensors, dim)
	case tensor.Float64:
		parts := make([][]float64, len(tensors))
		for i, t := range tensors {
			parts[i] = t.AsFloat64()
		}
		catInto(result.AsFloat64(), parts, tensors, dim)
	default:
		exceptions.Panicf("cat: unsupported dtype %s", dtype)
	}
	return result
}

func catInto[T tensor.DType](dst []T, parts [][]T, tensors []*tensor.RawTensor, dim int) {
	outer, inner := outerInner(tensors[0].Shape(), dim)
	pos := 0
	for o := range outer {
		for i, part := range parts {
			block := tensors[i].Shape()[dim] * inner
			pos += copy(dst[pos:pos+block], part[o*block:(o+1)*block])
		}
	}
}

// Narrow returns the slice [start, start+length) of x along dim.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("narrow", dim, len(shape))
	if start < 0 || length < 0 || start+length > shape[dim] {
		exceptions.Panicf("narrow: range [%d, %d) out of bounds for dimension %d of size %d",
			start, start+length, dim, shape[dim])
	}

	outShape := shape.Clone()
	outShape[dim] = length
	result := cpu.alloc("narrow", outShape, x.DType())

	switch x.DType() {
	case tensor.Float32:
		narrowInto(result.AsFloat32(), x.AsFloat32(), shape, dim, start, length)
	case tensor.Float64:
		narrowInto(result.AsFloat64(), x.AsFloat64(), shape, dim, start, length)
	default:
		exceptions.Panicf("narrow: unsupported dtype %s", x.DType())
	}
	return result
}

func narrowInto[T tensor.DType](dst, src []T, shape tensor.Shape, dim, start, length int) {
	outer, inner := outerInner(shape, dim)
	srcBlock := shape[dim] * inner
	dstBlock := length * inner
	for o := range outer {
		from := o*srcBlock + start*inner
		copy(dst[o*dstBlock:(o+1)*dstBlock], src[from:from+dstBlock])
	}
}

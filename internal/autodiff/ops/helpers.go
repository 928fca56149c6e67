package ops

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}
	if len(targetShape) > len(gradShape) {
		exceptions.Panicf("reduceBroadcast: cannot reduce %v to larger rank %v", gradShape, targetShape)
	}

	result := tensor.MustNewRaw(targetShape, grad.DType(), grad.Device())
	targetStrides := targetShape.BroadcastStrides(gradShape)
	gradStrides := gradShape.ComputeStrides()

	switch grad.DType() {
	case tensor.Float32:
		accumulateInto(result.AsFloat32(), grad.AsFloat32(), gradStrides, targetStrides)
	case tensor.Float64:
		accumulateInto(result.AsFloat64(), grad.AsFloat64(), gradStrides, targetStrides)
	default:
		exceptions.Panicf("reduceBroadcast: unsupported dtype %s", grad.DType())
	}
	return result
}

func accumulateInto[T tensor.DType](dst, src []T, srcStrides, dstStrides []int) {
	for i, v := range src {
		rem, idx := i, 0
		for d, stride := range srcStrides {
			coord := rem / stride
			rem %= stride
			idx += coord * dstStrides[d]
		}
		dst[idx] += v
	}
}

// elementwiseGrad returns outputGrad ⊙ deriv(input, output), the chain rule
// for element-wise operations whose local derivative depends only on the
// input and output value at the same position.
func elementwiseGrad(outputGrad, input, output *tensor.RawTensor, deriv func(x, y float64) float64) *tensor.RawTensor {
	result := tensor.MustNewRaw(input.Shape(), input.DType(), input.Device())
	switch input.DType() {
	case tensor.Float32:
		chain(result.AsFloat32(), outputGrad.AsFloat32(), input.AsFloat32(), output.AsFloat32(), deriv)
	case tensor.Float64:
		chain(result.AsFloat64(), outputGrad.AsFloat64(), input.AsFloat64(), output.AsFloat64(), deriv)
	default:
		exceptions.Panicf("elementwiseGrad: unsupported dtype %s", input.DType())
	}
	return result
}

func chain[T tensor.DType](dst, grad, x, y []T, deriv func(x, y float64) float64) {
	for i := range dst {
		dst[i] = T(float64(grad[i]) * deriv(float64(x[i]), float64(y[i])))
	}
}

// filled returns a tensor of the given shape with every element set to value.
func filled(shape tensor.Shape, dtype tensor.DataType, device tensor.Device, value float64) *tensor.RawTensor {
	result := tensor.MustNewRaw(shape, dtype, device)
	switch dtype {
	case tensor.Float32:
		data := result.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] = value
		}
	}
	return result
}

// scalarValue reads the single value of a one-element tensor.
func scalarValue(t *tensor.RawTensor) float64 {
	if t.NumElements() != 1 {
		exceptions.Panicf("expected a single-element gradient, got shape %v", t.Shape())
	}
	return t.Float64s()[0]
}

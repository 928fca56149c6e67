package tensor

import "fmt"

// Add performs element-wise addition with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// MatMul performs matrix multiplication.
//
// Shape requirements:
//   - t: [M, K]
//   - other: [K, N]
//   - result: [M, N]
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data and a new shape.
// The total number of elements must remain the same.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	shape := Shape(newShape)
	if shape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shape %v for tensor with %d elements", shape, t.NumElements()))
	}
	return New[T, B](t.backend.Reshape(t.raw, shape), t.backend)
}

// Transpose permutes tensor dimensions.
// With no axes it reverses the dimensions.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T is shorthand for the 2D transpose.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic(fmt.Sprintf("T() requires 2D tensor, got %dD", len(t.Shape())))
	}
	return t.Transpose(1, 0)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, float64(scalar)), t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, float64(scalar)), t.backend)
}

// Pow raises every element to the given power.
func (t *Tensor[T, B]) Pow(exponent T) *Tensor[T, B] {
	return New[T, B](t.backend.PowScalar(t.raw, float64(exponent)), t.backend)
}

// Exp computes e^x element-wise.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Sin computes the sine element-wise.
func (t *Tensor[T, B]) Sin() *Tensor[T, B] {
	return New[T, B](t.backend.Sin(t.raw), t.backend)
}

// Cos computes the cosine element-wise.
func (t *Tensor[T, B]) Cos() *Tensor[T, B] {
	return New[T, B](t.backend.Cos(t.raw), t.backend)
}

// Mean returns the mean of all elements as a scalar tensor.
func (t *Tensor[T, B]) Mean() *Tensor[T, B] {
	return New[T, B](t.backend.Mean(t.raw), t.backend)
}

// Narrow returns the slice [start, start+length) along dim.
//
// Example:
//
//	x := tensor.Zeros[float32](Shape{8, 2}, backend)
//	col := x.Narrow(1, 0, 1) // [8, 1], first column
func (t *Tensor[T, B]) Narrow(dim, start, length int) *Tensor[T, B] {
	return New[T, B](t.backend.Narrow(t.raw, dim, start, length), t.backend)
}

// Cat concatenates tensors along dim.
// All tensors must share the same shape except along dim, where
// zero-sized operands are allowed.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: no tensors")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	b := tensors[0].backend
	return New[T, B](b.Cat(raws, dim), b)
}

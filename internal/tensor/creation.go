package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, inferDataType[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Uniform creates a tensor with values drawn uniformly from [low, high).
// A nil rng uses the package-level math/rand source.
func Uniform[T DType, B Backend](shape Shape, low, high float64, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		var u float64
		if rng != nil {
			u = rng.Float64()
		} else {
			u = rand.Float64() //nolint:gosec // weights do not need crypto randomness
		}
		data[i] = T(low + (high-low)*u)
	}
	return t
}

// Arange creates a 1D tensor with values start, start+1, ..., end-1.
func Arange[T DType, B Backend](start, end int, b B) *Tensor[T, B] {
	n := max(end-start, 0)
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = T(start + i)
	}
	return t
}

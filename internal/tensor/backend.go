package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - CPU: pure Go, matrix products through gonum BLAS
//   - Autodiff: decorator that records operations for reverse-mode gradients
//
// Every operation returns a newly allocated RawTensor. Shape violations are
// programmer errors and panic.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul multiplies two 2D matrices: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	PowScalar(x *RawTensor, exponent float64) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor
	Sin(x *RawTensor) *RawTensor
	Cos(x *RawTensor) *RawTensor

	// Mean reduces all elements to a scalar (shape []).
	Mean(x *RawTensor) *RawTensor

	// Manipulation operations
	Cat(tensors []*RawTensor, dim int) *RawTensor           // concatenate along dimension
	Narrow(x *RawTensor, dim, start, length int) *RawTensor // slice [start, start+length) along dimension

	// Metadata
	Name() string
	Device() Device
}

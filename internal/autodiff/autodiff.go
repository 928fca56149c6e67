// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and adds gradient tracking
// capabilities through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: Records operations during forward pass
//   - Operation interface: Each op (Add, Mul, MatMul, ...) implements its backward pass
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x, _ := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, backend)
//	y := x.Mul(x) // y = x²
//	grads := autodiff.Backward(y, backend)
//	fmt.Println(grads[x.Raw()]) // dy/dx = 2x = 4.0
package autodiff

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/autodiff/ops"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// activationBackend is implemented by backends that provide the non-linear
// activation kernels (the CPU backend does).
type activationBackend interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
	LeakyReLU(x *tensor.RawTensor, slope float64) *tensor.RawTensor
	GELU(x *tensor.RawTensor) *tensor.RawTensor
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
	SiLU(x *tensor.RawTensor) *tensor.RawTensor
}

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
// The tape starts stopped: forward passes record nothing until
// Tape().StartRecording() is called.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

func (b *AutodiffBackend[B]) record(op ops.Operation) {
	if b.tape.IsRecording() {
		b.tape.Record(op)
	}
}

func (b *AutodiffBackend[B]) activations() activationBackend {
	act, ok := any(b.inner).(activationBackend)
	if !ok {
		exceptions.Panicf("backend %s does not implement activation functions", b.inner.Name())
	}
	return act
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(a, c)
	b.record(ops.NewAddOp(a, c, result))
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(a, c)
	b.record(ops.NewSubOp(a, c, result))
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(a, c)
	b.record(ops.NewMulOp(a, c, result))
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(a, c)
	b.record(ops.NewMatMulOp(a, c, result))
	return result
}

// Reshape changes the tensor shape and records the operation.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	b.record(ops.NewReshapeOp(t, result))
	return result
}

// Transpose permutes dimensions and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	result := b.inner.Transpose(t, axes...)
	b.record(ops.NewTransposeOp(t, result, append([]int(nil), axes...)))
	return result
}

// MulScalar multiplies by a constant and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.MulScalar(x, scalar)
	b.record(ops.NewMulScalarOp(x, result, scalar))
	return result
}

// AddScalar adds a constant and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.AddScalar(x, scalar)
	b.record(ops.NewAddScalarOp(x, result))
	return result
}

// PowScalar raises to a constant power and records the operation.
func (b *AutodiffBackend[B]) PowScalar(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	result := b.inner.PowScalar(x, exponent)
	b.record(ops.NewPowOp(x, result, exponent))
	return result
}

// Exp computes e^x and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Exp(x)
	b.record(ops.NewExpOp(x, result))
	return result
}

// Sin computes sin(x) and records the operation.
func (b *AutodiffBackend[B]) Sin(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sin(x)
	b.record(ops.NewSinOp(x, result))
	return result
}

// Cos computes cos(x) and records the operation.
func (b *AutodiffBackend[B]) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Cos(x)
	b.record(ops.NewCosOp(x, result))
	return result
}

// Mean reduces to the scalar mean and records the operation.
func (b *AutodiffBackend[B]) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mean(x)
	b.record(ops.NewMeanOp(x, result))
	return result
}

// Cat concatenates along dim and records the operation.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Cat(tensors, dim)
	if dim < 0 {
		dim += len(result.Shape())
	}
	b.record(ops.NewCatOp(append([]*tensor.RawTensor(nil), tensors...), dim, result))
	return result
}

// Narrow slices along dim and records the operation.
func (b *AutodiffBackend[B]) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	result := b.inner.Narrow(x, dim, start, length)
	if dim < 0 {
		dim += len(x.Shape())
	}
	b.record(ops.NewNarrowOp(x, result, dim, start))
	return result
}

// ReLU applies max(0, x) and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.activations().ReLU(x)
	b.record(ops.NewReLUOp(x, result))
	return result
}

// LeakyReLU applies the leaky rectifier and records the operation.
func (b *AutodiffBackend[B]) LeakyReLU(x *tensor.RawTensor, slope float64) *tensor.RawTensor {
	result := b.activations().LeakyReLU(x, slope)
	b.record(ops.NewLeakyReLUOp(x, result, slope))
	return result
}

// GELU applies the Gaussian error linear unit and records the operation.
func (b *AutodiffBackend[B]) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.activations().GELU(x)
	b.record(ops.NewGELUOp(x, result))
	return result
}

// Tanh applies the hyperbolic tangent and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.activations().Tanh(x)
	b.record(ops.NewTanhOp(x, result))
	return result
}

// Sigmoid applies the logistic function and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.activations().Sigmoid(x)
	b.record(ops.NewSigmoidOp(x, result))
	return result
}

// SiLU applies x·σ(x) and records the operation.
func (b *AutodiffBackend[B]) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.activations().SiLU(x)
	b.record(ops.NewSiLUOp(x, result))
	return result
}

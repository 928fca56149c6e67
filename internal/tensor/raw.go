package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation.
//
// Data is always contiguous and row-major. Operations never write into their
// operands: every backend op allocates a fresh RawTensor, which keeps values
// recorded on a gradient tape stable.
type RawTensor struct {
	shape  Shape     // Tensor dimensions
	stride []int     // Memory strides (row-major)
	dtype  DataType  // Runtime type information
	device Device    // Compute device
	f32    []float32 // Set when dtype == Float32
	f64    []float64 // Set when dtype == Float64
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}

	r := &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}
	switch dtype {
	case Float32:
		r.f32 = make([]float32, shape.NumElements())
	case Float64:
		r.f64 = make([]float64, shape.NumElements())
	default:
		return nil, errors.Errorf("unsupported data type %s", dtype)
	}
	return r, nil
}

// MustNewRaw is like NewRaw but panics on an invalid shape.
func MustNewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// AsFloat32 returns the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	return r.f32
}

// AsFloat64 returns the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	return r.f64
}

// Float64s returns a float64 copy of the data regardless of dtype.
func (r *RawTensor) Float64s() []float64 {
	if r.dtype == Float64 {
		return append([]float64(nil), r.f64...)
	}
	out := make([]float64, len(r.f32))
	for i, v := range r.f32 {
		out[i] = float64(v)
	}
	return out
}

// SetFloat64s overwrites the data from a float64 slice, converting to the
// tensor's dtype. The slice length must match NumElements.
func (r *RawTensor) SetFloat64s(values []float64) error {
	if len(values) != r.NumElements() {
		return errors.Errorf("expected %d values, got %d", r.NumElements(), len(values))
	}
	if r.dtype == Float64 {
		copy(r.f64, values)
		return nil
	}
	for i, v := range values {
		r.f32[i] = float32(v)
	}
	return nil
}

// Clone creates a deep copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	return &RawTensor{
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		f32:    append([]float32(nil), r.f32...),
		f64:    append([]float64(nil), r.f64...),
	}
}

// WithShape returns a RawTensor sharing r's data under a new shape with the
// same number of elements.
func (r *RawTensor) WithShape(shape Shape) (*RawTensor, error) {
	if shape.NumElements() != r.NumElements() {
		return nil, errors.Errorf("cannot view %v (%d elements) as %v (%d elements)",
			r.shape, r.NumElements(), shape, shape.NumElements())
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
		f32:    r.f32,
		f64:    r.f64,
	}, nil
}

// CopyFrom copies all values from src, which must have the same dtype and
// number of elements.
func (r *RawTensor) CopyFrom(src *RawTensor) error {
	if src.dtype != r.dtype || src.NumElements() != r.NumElements() {
		return errors.Errorf("cannot copy %s%v into %s%v", src.dtype, src.shape, r.dtype, r.shape)
	}
	copy(r.f32, src.f32)
	copy(r.f64, src.f64)
	return nil
}

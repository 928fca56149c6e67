package ops

import "github.com/born-ml/mandelnet/internal/tensor"

// ReshapeOp represents a reshape; the gradient is reshaped back.
type ReshapeOp struct{ unaryOp }

// NewReshapeOp creates a new reshape operation.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{unaryOp{input: input, output: output}}
}

// Backward reshapes the gradient to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

// TransposeOp represents a dimension permutation.
type TransposeOp struct {
	unaryOp
	axes []int
}

// NewTransposeOp creates a new transpose operation. axes is the permutation
// applied in the forward pass (empty means reversed dimensions).
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{unaryOp: unaryOp{input: input, output: output}, axes: axes}
}

// Backward applies the inverse permutation to the gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if len(op.axes) == 0 {
		return []*tensor.RawTensor{backend.Transpose(outputGrad)}
	}
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// CatOp represents a concatenation along a dimension.
//
// Backward: outputGrad is split along dim at the input boundaries, each input
// receiving the slice matching its contribution. Zero-sized inputs receive a
// zero-sized gradient.
type CatOp struct {
	inputs []*tensor.RawTensor
	dim    int
	output *tensor.RawTensor
}

// NewCatOp creates a new cat operation. dim must already be normalized.
func NewCatOp(inputs []*tensor.RawTensor, dim int, output *tensor.RawTensor) *CatOp {
	return &CatOp{inputs: inputs, dim: dim, output: output}
}

// Inputs returns the input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward splits the gradient among the inputs.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, input := range op.inputs {
		size := input.Shape()[op.dim]
		grads[i] = backend.Narrow(outputGrad, op.dim, offset, size)
		offset += size
	}
	return grads
}

// NarrowOp represents taking the slice [start, start+length) along dim.
//
// Backward: the gradient is scattered back into a zero tensor shaped like
// the input.
type NarrowOp struct {
	unaryOp
	dim, start int
}

// NewNarrowOp creates a new narrow operation. dim must already be normalized.
func NewNarrowOp(input, output *tensor.RawTensor, dim, start int) *NarrowOp {
	return &NarrowOp{unaryOp: unaryOp{input: input, output: output}, dim: dim, start: start}
}

// Backward pads the gradient with zeros outside the narrowed range.
func (op *NarrowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	length := op.output.Shape()[op.dim]

	before := inShape.Clone()
	before[op.dim] = op.start
	after := inShape.Clone()
	after[op.dim] = inShape[op.dim] - op.start - length

	parts := []*tensor.RawTensor{
		tensor.MustNewRaw(before, outputGrad.DType(), outputGrad.Device()),
		outputGrad,
		tensor.MustNewRaw(after, outputGrad.DType(), outputGrad.Device()),
	}
	return []*tensor.RawTensor{backend.Cat(parts, op.dim)}
}

// Package ops defines the differentiable operations recorded on a gradient tape.
package ops

import "github.com/born-ml/mandelnet/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
//
// Each operation stores its inputs and output from the forward pass and
// implements Backward, which maps the gradient of the output to gradients of
// the inputs using the chain rule.
type Operation interface {
	// Backward returns one gradient per input, in the order of Inputs.
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of the forward pass.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor of the forward pass.
	Output() *tensor.RawTensor
}

// unaryOp holds the tensors of a single-input operation.
type unaryOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns the input tensor.
func (op *unaryOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *unaryOp) Output() *tensor.RawTensor {
	return op.output
}

// binaryOp holds the tensors of a two-input operation.
type binaryOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns both input tensors.
func (op *binaryOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *binaryOp) Output() *tensor.RawTensor {
	return op.output
}

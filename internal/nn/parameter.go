package nn

import (
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are handles: optimizers receive the same *Parameter values the
// owning module reads during Forward, and update the tensor data in place.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//	grad := weight.Grad() // set after a backward pass
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "in_layer.weight")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
	grad   *tensor.Tensor[float32, B] // Gradient tensor (computed during backward pass)
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet (before backward pass).
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// CollectGradients copies the gradients found in grads (as returned by
// autodiff.Backward) onto the parameters. Parameters that did not take part
// in the computation get a nil gradient.
func CollectGradients[B tensor.Backend](params []*Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range params {
		if g, ok := grads[p.Tensor().Raw()]; ok {
			p.SetGrad(tensor.New[float32, B](g, p.Tensor().Backend()))
		} else {
			p.ZeroGrad()
		}
	}
}

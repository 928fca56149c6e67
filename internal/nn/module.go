// Package nn implements neural network modules for the mandelnet engine.
//
// This package provides building blocks for constructing neural networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Linear: Fully connected layer
//   - Activations: ReLU, LeakyReLU, GELU, Tanh, Sigmoid, SiLU
//   - MSELoss: differentiable mean squared error
package nn

import (
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Linear expects [batch_size, in_features].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]
}

// Stateful is implemented by modules whose parameters can be exported and
// restored by name.
type Stateful interface {
	// StateDict returns the module's tensors keyed by parameter name.
	// The returned tensors are the live parameter storage.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies values from stateDict into the module's
	// parameters, validating names, shapes and dtypes.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// CountParameters returns the total number of scalar parameters.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	total := 0
	for _, p := range params {
		total += p.Tensor().NumElements()
	}
	return total
}

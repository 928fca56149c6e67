package nn

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// The loss is built from recorded backend operations, so gradients flow back
// to the predictions when the backend is an AutodiffBackend.
//
// Example:
//
//	mse := nn.NewMSELoss[Backend]()
//	loss := mse.Forward(model.Forward(input), targets)
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward computes the MSE loss as a scalar tensor (shape []).
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		exceptions.Panicf("MSELoss: predictions %v and targets %v must have the same shape",
			predictions.Shape(), targets.Shape())
	}
	diff := predictions.Sub(targets)
	return diff.Mul(diff).Mean()
}

package models

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Predict runs model.Forward, returning engine faults (such as a shape
// mismatch) as an error instead of a panic.
func Predict[B tensor.Backend](model Regressor[B], x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	var out *tensor.Tensor[float32, B]
	err := exceptions.TryCatch[error](func() {
		out = model.Forward(x)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s forward", model.Kind())
	}
	return out, nil
}

// NumParameters returns the number of trainable scalars in model.
func NumParameters[B tensor.Backend](model Regressor[B]) int {
	return nn.CountParameters(model.Parameters())
}

// Interface checks.
var (
	_ Regressor[tensor.Backend] = (*SkipConn[tensor.Backend])(nil)
	_ Regressor[tensor.Backend] = (*Fourier[tensor.Backend])(nil)
	_ Regressor[tensor.Backend] = (*Fourier2D[tensor.Backend])(nil)
	_ Regressor[tensor.Backend] = (*Taylor[tensor.Backend])(nil)
)

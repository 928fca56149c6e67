// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers hold the same *nn.Parameter handles the model reads during
// Forward and update their tensors in place.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	backend.Tape().StartRecording()
//	loss := lossFunc.Forward(model.Forward(input), targets)
//	grads := autodiff.Backward(loss, backend)
//	backend.Tape().StopRecording()
//	backend.Tape().Clear()
//
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes a gradient map from Backward() and updates parameters in-place.
	// Parameters absent from the map are left untouched.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate.
	SetLR(lr float32)

	// StateDict returns copies of the optimizer's running state, keyed by
	// "<parameter name>.<slot>". Slots for parameters that never received a
	// gradient are omitted.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores state saved by StateDict. Keys must name
	// parameters of this optimizer and shapes must match.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// getGradient safely retrieves gradient data for a parameter.
//
// Returns nil if no gradient is found (parameter wasn't part of computation graph).
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	if param == nil {
		return nil
	}
	grad, ok := grads[param.Tensor().Raw()]
	if !ok {
		return nil
	}
	return grad.AsFloat32()
}

// slotState copies a per-parameter buffer into a tensor shaped like the parameter.
func slotState[B tensor.Backend](param *nn.Parameter[B], values []float32) *tensor.RawTensor {
	raw := tensor.MustNewRaw(param.Tensor().Shape(), tensor.Float32, tensor.CPU)
	copy(raw.AsFloat32(), values)
	return raw
}

// loadSlots distributes stateDict entries named "<param>.<slot>" into the
// per-parameter buffers of slots. Entries in skip are ignored.
func loadSlots[B tensor.Backend](params []*nn.Parameter[B], stateDict map[string]*tensor.RawTensor,
	slots map[string]map[*nn.Parameter[B]][]float32, skip ...string) error {
	byName := make(map[string]*nn.Parameter[B], len(params))
	for _, p := range params {
		byName[p.Name()] = p
	}
	for key, raw := range stateDict {
		if slices.Contains(skip, key) {
			continue
		}
		dot := strings.LastIndexByte(key, '.')
		if dot < 0 {
			return errors.Errorf("optimizer state %q: missing slot suffix", key)
		}
		param, ok := byName[key[:dot]]
		if !ok {
			return errors.Errorf("optimizer state %q: unknown parameter", key)
		}
		buffers, ok := slots[key[dot+1:]]
		if !ok {
			return errors.Errorf("optimizer state %q: unknown slot", key)
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) || raw.DType() != tensor.Float32 {
			return errors.Errorf("optimizer state %q: got %s%v, want float32%v",
				key, raw.DType(), raw.Shape(), param.Tensor().Shape())
		}
		buffers[param] = append([]float32(nil), raw.AsFloat32()...)
	}
	return nil
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// A Backend wraps any other backend and records the operations it executes
// on a GradientTape while recording is enabled. Backward replays the tape in
// reverse and returns the gradient of every tensor that took part.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	x, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
//
//	backend.Tape().StartRecording()
//	y := x.Mul(x).Mean()
//	grads := autodiff.Backward(y, backend)
//	backend.Tape().StopRecording()
//	backend.Tape().Clear()
//
//	dx := grads[x.Raw()] // 2x/3
//
// The tape is not safe for concurrent use. A backend that is not recording
// may be shared by goroutines running inference.
package autodiff

import (
	"github.com/born-ml/mandelnet/internal/autodiff"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients of t with respect to every recorded input.
// It panics if nothing was recorded.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}

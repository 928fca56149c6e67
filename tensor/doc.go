// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for mandelnet.
//
// # Overview
//
// Tensors are the data structure every model in mandelnet is built on.
// This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - Row-vector and scalar broadcasting
//   - Zero-width dimensions, used for empty concatenation blocks
//   - Device abstraction (CPU, CUDA)
//
// # Basic Usage
//
//	backend := cpu.New()
//
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	z := x.Add(y)
//	result := x.MatMul(y.Transpose())
//
// # Supported Data Types
//
// Tensors hold float32 or float64 elements. Models train in float32.
//
// # Backends
//
// A Backend executes the operations. backend/cpu is a pure Go
// implementation; autodiff.New wraps any backend to record operations for
// backpropagation.
//
// # Errors
//
// Creation functions that take user data return errors. Operations on
// incompatible shapes panic; the panic carries an error describing the
// mismatch.
package tensor

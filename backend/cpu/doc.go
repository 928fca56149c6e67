// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Matrix multiplication through gonum BLAS
//   - Float32 and Float64 support
//   - Row-vector and scalar broadcasting
//   - Zero-width tensors, so concatenation with an empty block is legal
//
// # Basic Usage
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
//
// # Errors
//
// Shape mismatches panic with an exception raised through
// github.com/gomlx/exceptions. Use models.Predict, or exceptions.TryCatch,
// to turn them into errors.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// allocates its result and does not share mutable state.
package cpu

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides coordinate regressors that learn the Mandelbrot
// set membership function.
//
// # Overview
//
// Every regressor maps a batch of coordinates [N, D] to membership scores
// [N, 1] in [0, 1]. Four variants are available:
//   - SkipConn: an MLP where every hidden layer sees the two previous
//     activations and the raw input
//   - Fourier: SkipConn over per-axis sin/cos features
//   - Fourier2D: SkipConn over 2D Fourier cross terms
//   - Taylor: SkipConn over per-axis powers (empirically the weakest)
//
// A CenteredLinearMap can normalize coordinates before the network.
//
// # Basic Usage
//
//	backend := autodiff.New(cpu.New())
//
//	cfg := models.DefaultConfig()
//	cfg.HiddenSize, cfg.NumHiddenLayers = 50, 5
//	cfg.LinMap = &models.LinMapConfig{Domain: models.DefaultDomain()}
//
//	model, err := models.New(cfg, backend)
//	if err != nil {
//	    return err
//	}
//	scores, err := models.Predict(model, coords)
//
// # Errors
//
// Construction returns errors wrapping ErrInvalidConfig, ErrInputSize or
// ErrDeviceUnavailable. Forward panics on a wrong input shape; Predict
// returns that failure as an error.
//
// # Persistence
//
// Save and Load store the configuration together with the weights, so a
// model can be rebuilt without knowing its hyperparameters.
package models

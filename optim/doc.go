// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training regressors.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Optimizers hold the model's parameter handles and update them in place.
//
// # Training Loop Pattern
//
//	backend := autodiff.New(cpu.New())
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//	criterion := nn.NewMSELoss[*autodiff.Backend[*cpu.Backend]]()
//
//	for _, batch := range batches {
//	    backend.Tape().StartRecording()
//	    loss := criterion.Forward(model.Forward(batch.Input), batch.Target)
//	    grads := autodiff.Backward(loss, backend)
//	    backend.Tape().StopRecording()
//	    backend.Tape().Clear()
//
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
//
// The train package runs this loop with shuffling, logging and checkpoints.
package optim

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers regressors are built from.
//
// # Overview
//
// This package contains:
//   - Layers: Linear
//   - Activations: ReLU, LeakyReLU, GELU, Sigmoid, Tanh, SiLU
//   - Loss functions: MSELoss
//   - Utilities: Module and Stateful interfaces, Parameter
//   - Persistence: Save and Load of a module's state dictionary
//
// # Basic Usage
//
//	backend := cpu.New()
//
//	layer := nn.NewLinear(2, 50, backend, nn.WithName("in_layer"))
//	act := nn.NewGELU[*cpu.Backend]()
//	out := act.Forward(layer.Forward(input))
//
// # Activations
//
// Activations can be chosen by name, as model configurations do:
//
//	a, err := nn.ParseActivation("leaky_relu")
//	module := nn.NewActivation[*cpu.Backend](a)
//
// # Parameter Management
//
// Access parameters for optimization:
//
//	for _, param := range layer.Parameters() {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
package nn

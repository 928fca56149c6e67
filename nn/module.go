// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/serialization"
	"github.com/born-ml/mandelnet/tensor"
)

// Module is the base interface for all neural network components.
//
// Every module implements:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] = nn.Module[B]

// Stateful is implemented by modules whose weights can be exported and
// restored by name.
type Stateful = nn.Stateful

// Save writes a module's state dictionary to a .mnet file.
//
// Example:
//
//	layer := nn.NewLinear(2, 10, backend)
//	err := nn.Save(layer, "layer.mnet", map[string]string{"note": "warm start"})
func Save(module Stateful, path string, metadata map[string]string) error {
	header := serialization.Header{Metadata: metadata}
	if err := serialization.WriteFile(path, module.StateDict(), header, serialization.WriteOptions{}); err != nil {
		return errors.Wrapf(err, "saving module to %s", path)
	}
	return nil
}

// Load reads a .mnet file into module. Names, shapes and dtypes must match
// the module exactly.
//
// Example:
//
//	layer := nn.NewLinear(2, 10, backend)
//	metadata, err := nn.Load("layer.mnet", layer)
func Load(path string, module Stateful) (map[string]string, error) {
	stateDict, header, err := serialization.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := module.LoadStateDict(stateDict); err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return header.Metadata, nil
}

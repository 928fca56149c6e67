// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// CountParameters returns the number of scalar weights in params.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	return nn.CountParameters(params)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// LinearOption configures NewLinear.
type LinearOption = nn.LinearOption

// WithRand draws the initial weights from rng.
func WithRand(rng *rand.Rand) LinearOption { return nn.WithRand(rng) }

// WithXavierInit uses Xavier/Glorot initialization for the weight.
func WithXavierInit() LinearOption { return nn.WithXavierInit() }

// WithName prefixes the parameter names, giving "name.weight" and "name.bias".
func WithName(name string) LinearOption { return nn.WithName(name) }

// NewLinear creates a new linear layer. Weight and bias are drawn from
// U(-1/sqrt(in), 1/sqrt(in)) unless WithXavierInit is given.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(2, 50, backend, nn.WithName("in_layer"))
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B, opts ...LinearOption) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend, opts...)
}

// Activations

// Activation names an element-wise activation function.
type Activation = nn.Activation

// Supported activations.
const (
	ActivationNone      = nn.ActivationNone
	ActivationReLU      = nn.ActivationReLU
	ActivationLeakyReLU = nn.ActivationLeakyReLU
	ActivationGELU      = nn.ActivationGELU
	ActivationTanh      = nn.ActivationTanh
	ActivationSigmoid   = nn.ActivationSigmoid
	ActivationSiLU      = nn.ActivationSiLU
)

// DefaultLeakyReLUSlope is the negative slope used by ActivationLeakyReLU.
const DefaultLeakyReLUSlope = nn.DefaultLeakyReLUSlope

// ParseActivation converts a name such as "gelu" or "leaky_relu" to an Activation.
func ParseActivation(name string) (Activation, error) {
	return nn.ParseActivation(name)
}

// NewActivation returns the module computing a.
func NewActivation[B tensor.Backend](a Activation) Module[B] {
	return nn.NewActivation[B](a)
}

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// LeakyReLU passes negative inputs scaled by a slope.
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a LeakyReLU with the given negative slope.
func NewLeakyReLU[B tensor.Backend](slope float64) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](slope)
}

// GELU is the exact (erf-based) Gaussian Error Linear Unit.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a new GELU activation layer.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return nn.NewGELU[B]()
}

// Sigmoid represents the sigmoid activation function.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new Sigmoid activation layer.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh represents the hyperbolic tangent activation function.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new Tanh activation layer.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// SiLU is x * sigmoid(x).
type SiLU[B tensor.Backend] = nn.SiLU[B]

// NewSiLU creates a new SiLU activation layer.
func NewSiLU[B tensor.Backend]() *SiLU[B] {
	return nn.NewSiLU[B]()
}

// Loss Functions

// MSELoss is the mean squared error between predictions and targets.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates a new MSE loss.
//
// Example:
//
//	criterion := nn.NewMSELoss[*autodiff.Backend[*cpu.Backend]]()
//	loss := criterion.Forward(predictions, targets)
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

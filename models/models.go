// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"math/rand"

	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/serialization"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Regressor maps coordinates to membership scores in [0, 1].
type Regressor[B tensor.Backend] = models.Regressor[B]

// Config holds the hyperparameters of a regressor.
type Config = models.Config

// Kind selects one of the regressor variants.
type Kind = models.Kind

// Regressor variants.
const (
	KindSkipConn  = models.KindSkipConn
	KindFourier   = models.KindFourier
	KindFourier2D = models.KindFourier2D
	KindTaylor    = models.KindTaylor
)

// Squash maps the output layer into [0, 1].
type Squash = models.Squash

// Squash functions.
const (
	SquashTanh    = models.SquashTanh
	SquashSigmoid = models.SquashSigmoid
)

// Domain is a coordinate rectangle.
type Domain = models.Domain

// PixelSize optionally rescales a Domain to pixel units.
type PixelSize = models.PixelSize

// LinMapConfig configures the coordinate normalizer.
type LinMapConfig = models.LinMapConfig

// Construction errors.
var (
	ErrInvalidConfig     = models.ErrInvalidConfig
	ErrDeviceUnavailable = models.ErrDeviceUnavailable
	ErrInputSize         = models.ErrInputSize
)

// DefaultConfig returns a SkipConn with 100 hidden units and 7 hidden layers.
func DefaultConfig() Config { return models.DefaultConfig() }

// DefaultDomain returns x in [-2.5, 1] and y in [-1.1, 1.1].
func DefaultDomain() Domain { return models.DefaultDomain() }

// ParseKind converts "skipconn", "fourier", "fourier2d" or "taylor" to a Kind.
func ParseKind(name string) (Kind, error) { return models.ParseKind(name) }

// Option configures New.
type Option[B tensor.Backend] = models.Option[B]

// WithLinearMap shares an existing normalizer instead of building one from
// the configuration.
func WithLinearMap[B tensor.Backend](m *CenteredLinearMap[B]) Option[B] {
	return models.WithLinearMap(m)
}

// WithRand draws the initial weights from rng instead of the configured seed.
func WithRand[B tensor.Backend](rng *rand.Rand) Option[B] {
	return models.WithRand[B](rng)
}

// New builds the variant selected by cfg.Kind.
func New[B tensor.Backend](cfg Config, backend B, opts ...Option[B]) (Regressor[B], error) {
	return models.New(cfg, backend, opts...)
}

// Predict runs model.Forward and reports input faults as errors.
func Predict[B tensor.Backend](model Regressor[B], x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return models.Predict(model, x)
}

// NumParameters returns the number of scalar weights in model.
func NumParameters[B tensor.Backend](model Regressor[B]) int {
	return models.NumParameters(model)
}

// CenteredLinearMap maps a Domain affinely so that it is centred on 0.
type CenteredLinearMap[B tensor.Backend] = models.CenteredLinearMap[B]

// NewCenteredLinearMap builds a normalizer for domain. With a nil size the
// scale is 1 on both axes.
func NewCenteredLinearMap[B tensor.Backend](domain Domain, size *PixelSize, backend B) (*CenteredLinearMap[B], error) {
	return models.NewCenteredLinearMap(domain, size, backend)
}

// FourierFeatures expands [N, 2] coordinates to [N, 4*order+2].
func FourierFeatures[B tensor.Backend](x *tensor.Tensor[float32, B], order int) *tensor.Tensor[float32, B] {
	return models.FourierFeatures(x, order)
}

// Fourier2DFeatures expands [N, 2] coordinates to [N, 4*order*order+2].
func Fourier2DFeatures[B tensor.Backend](x *tensor.Tensor[float32, B], order int) *tensor.Tensor[float32, B] {
	return models.Fourier2DFeatures(x, order)
}

// TaylorFeatures expands [N, D] coordinates to [N, D*(order+1)].
func TaylorFeatures[B tensor.Backend](x *tensor.Tensor[float32, B], order int) *tensor.Tensor[float32, B] {
	return models.TaylorFeatures(x, order)
}

// SaveOptions configures Save.
type SaveOptions = serialization.SaveOptions

// Header describes a saved model.
type Header = serialization.Header

// Save writes model's configuration and weights to a .mnet file.
func Save[B tensor.Backend](path string, model Regressor[B], opts SaveOptions) error {
	return serialization.SaveModel(path, model, opts)
}

// Load rebuilds a model saved with Save on backend.
func Load[B tensor.Backend](path string, backend B) (Regressor[B], Header, error) {
	return serialization.LoadModel(path, backend)
}

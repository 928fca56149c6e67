// Package models implements the coordinate-to-membership regressors.
//
// Every variant maps a [N, D] batch of coordinates to a [N, 1] batch of
// scores in [0, 1]:
//   - SkipConn: fully connected network with dense skip connections
//   - Fourier: per-axis sine/cosine harmonics fed to a SkipConn
//   - Fourier2D: cross-axis sine/cosine products fed to a SkipConn
//   - Taylor: per-axis power series fed to a SkipConn
//
// The variant is chosen at construction through Config.Kind:
//
//	backend := autodiff.New(cpu.New())
//	model, err := models.New(models.DefaultConfig(), backend)
//	scores := model.Forward(coords) // [N, 2] -> [N, 1]
package models

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Regressor is the capability shared by all variants.
//
// Forward panics (through exceptions.Panicf) when the input width does not
// match InputSize; use Predict to receive an error instead.
type Regressor[B tensor.Backend] interface {
	nn.Module[B]
	nn.Stateful

	// Kind identifies the variant.
	Kind() Kind

	// Config returns the hyperparameters the regressor was built with.
	Config() Config

	// InputSize is the expected number of input columns.
	InputSize() int
}

// Option customizes a regressor at construction.
type Option[B tensor.Backend] func(*options[B])

type options[B tensor.Backend] struct {
	linmap *CenteredLinearMap[B]
	rng    *rand.Rand
}

// WithLinearMap shares an existing coordinate map with the regressor,
// overriding Config.LinMap. The regressor's Config reports the shared map.
func WithLinearMap[B tensor.Backend](m *CenteredLinearMap[B]) Option[B] {
	return func(o *options[B]) { o.linmap = m }
}

// WithRand draws the initial weights from rng instead of Config.Seed.
func WithRand[B tensor.Backend](rng *rand.Rand) Option[B] {
	return func(o *options[B]) { o.rng = rng }
}

// New builds the variant selected by cfg.Kind.
func New[B tensor.Backend](cfg Config, backend B, opts ...Option[B]) (Regressor[B], error) {
	switch cfg.Kind {
	case KindSkipConn:
		return NewSkipConn(cfg, backend, opts...)
	case KindFourier:
		return NewFourier(cfg, backend, opts...)
	case KindFourier2D:
		return NewFourier2D(cfg, backend, opts...)
	case KindTaylor:
		return NewTaylor(cfg, backend, opts...)
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown model kind %d", int(cfg.Kind))
	}
}

// prepare validates cfg for kind and resolves the shared construction state.
func prepare[B tensor.Backend](kind Kind, cfg Config, backend B, opts []Option[B]) (Config, *options[B], error) {
	o := &options[B]{}
	for _, opt := range opts {
		opt(o)
	}
	cfg.Kind = kind
	if o.linmap != nil {
		lm := o.linmap.Config()
		cfg.LinMap = &lm
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	if cfg.UseCUDA && backend.Device() != tensor.CUDA {
		return cfg, nil, errors.Wrapf(ErrDeviceUnavailable, "use_cuda requested but backend %s runs on %s",
			backend.Name(), backend.Device())
	}

	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // Weight init, not cryptography.
	}
	if o.linmap == nil && cfg.LinMap != nil {
		m, err := NewCenteredLinearMap(cfg.LinMap.Domain, cfg.LinMap.Size, backend)
		if err != nil {
			return cfg, nil, err
		}
		o.linmap = m
	}
	return cfg, o, nil
}

// stateDict exposes params keyed by name.
func stateDict[B tensor.Backend](params []*nn.Parameter[B]) map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		sd[p.Name()] = p.Tensor().Raw()
	}
	return sd
}

// loadStateDict copies sd into params, requiring an exact name set.
func loadStateDict[B tensor.Backend](params []*nn.Parameter[B], sd map[string]*tensor.RawTensor) error {
	if len(sd) != len(params) {
		return errors.Errorf("state dict has %d tensors, model has %d parameters", len(sd), len(params))
	}
	for _, p := range params {
		raw, ok := sd[p.Name()]
		if !ok {
			return errors.Errorf("missing %s in state dict", p.Name())
		}
		if !raw.Shape().Equal(p.Tensor().Shape()) {
			return errors.Errorf("%s shape mismatch: expected %v, got %v", p.Name(), p.Tensor().Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return errors.Errorf("%s dtype mismatch: expected float32, got %v", p.Name(), raw.DType())
		}
	}
	for _, p := range params {
		copy(p.Tensor().Data(), sd[p.Name()].AsFloat32())
	}
	return nil
}

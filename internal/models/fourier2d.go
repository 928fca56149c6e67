package models

import (
	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Fourier2D expands a 2D coordinate into products of harmonics of both axes,
// orders 0..Order-1 (see Fourier2DFeatures), and feeds the 4*Order²+2
// features to an inner SkipConn. The order 0 terms act as constant inputs.
type Fourier2D[B tensor.Backend] struct {
	cfg    Config
	inner  *SkipConn[B]
	orders *tensor.Tensor[float32, B] // [1, Order], nil for Order 0
	linmap *CenteredLinearMap[B]
}

// NewFourier2D builds a Fourier2D regressor. The inner SkipConn defaults to LeakyReLU.
func NewFourier2D[B tensor.Backend](cfg Config, backend B, opts ...Option[B]) (*Fourier2D[B], error) {
	cfg, o, err := prepare(KindFourier2D, cfg, backend, opts)
	if err != nil {
		return nil, err
	}
	act, _ := cfg.activation()
	innerCfg := cfg
	innerCfg.InitSize = 4*cfg.Order*cfg.Order + 2
	return &Fourier2D[B]{
		cfg:    cfg,
		inner:  buildSkipConn(innerCfg, act, nil, o.rng, backend),
		orders: harmonics(0, cfg.Order, backend),
		linmap: o.linmap,
	}, nil
}

// Forward maps [N, 2] coordinates to [N, 1] scores.
func (f *Fourier2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkInput("Fourier2D", x, f.cfg.InitSize)
	if f.linmap != nil {
		x = f.linmap.Map(x)
	}
	return f.inner.forward(fourier2DFeatures(x, f.orders))
}

// Parameters returns the inner network's parameters.
func (f *Fourier2D[B]) Parameters() []*nn.Parameter[B] { return f.inner.Parameters() }

// StateDict returns the live parameter tensors keyed by name.
func (f *Fourier2D[B]) StateDict() map[string]*tensor.RawTensor { return f.inner.StateDict() }

// LoadStateDict copies a state dict produced by a Fourier2D of the same shape.
func (f *Fourier2D[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	return f.inner.LoadStateDict(sd)
}

// Kind returns KindFourier2D.
func (f *Fourier2D[B]) Kind() Kind { return KindFourier2D }

// Config returns the construction config.
func (f *Fourier2D[B]) Config() Config { return f.cfg }

// InputSize returns 2.
func (f *Fourier2D[B]) InputSize() int { return f.cfg.InitSize }

// FeatureSize returns the inner network's input width, 4*Order²+2.
func (f *Fourier2D[B]) FeatureSize() int { return f.inner.InputSize() }

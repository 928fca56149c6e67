package models

import (
	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Fourier expands each coordinate axis into sine and cosine harmonics of
// orders 1..Order (see FourierFeatures) and feeds the 4*Order+2 features to
// an inner SkipConn. It requires InitSize 2.
type Fourier[B tensor.Backend] struct {
	cfg    Config
	inner  *SkipConn[B]
	orders *tensor.Tensor[float32, B] // [1, Order], nil for Order 0
	linmap *CenteredLinearMap[B]
}

// NewFourier builds a Fourier regressor. The inner SkipConn defaults to LeakyReLU.
func NewFourier[B tensor.Backend](cfg Config, backend B, opts ...Option[B]) (*Fourier[B], error) {
	cfg, o, err := prepare(KindFourier, cfg, backend, opts)
	if err != nil {
		return nil, err
	}
	act, _ := cfg.activation()
	innerCfg := cfg
	innerCfg.InitSize = 4*cfg.Order + 2
	return &Fourier[B]{
		cfg:    cfg,
		inner:  buildSkipConn(innerCfg, act, nil, o.rng, backend),
		orders: harmonics(1, cfg.Order, backend),
		linmap: o.linmap,
	}, nil
}

// Forward maps [N, 2] coordinates to [N, 1] scores.
func (f *Fourier[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkInput("Fourier", x, f.cfg.InitSize)
	if f.linmap != nil {
		x = f.linmap.Map(x)
	}
	return f.inner.forward(fourierFeatures(x, f.orders))
}

// Parameters returns the inner network's parameters.
func (f *Fourier[B]) Parameters() []*nn.Parameter[B] { return f.inner.Parameters() }

// StateDict returns the live parameter tensors keyed by name.
func (f *Fourier[B]) StateDict() map[string]*tensor.RawTensor { return f.inner.StateDict() }

// LoadStateDict copies a state dict produced by a Fourier of the same shape.
func (f *Fourier[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	return f.inner.LoadStateDict(sd)
}

// Kind returns KindFourier.
func (f *Fourier[B]) Kind() Kind { return KindFourier }

// Config returns the construction config.
func (f *Fourier[B]) Config() Config { return f.cfg }

// InputSize returns 2.
func (f *Fourier[B]) InputSize() int { return f.cfg.InitSize }

// FeatureSize returns the inner network's input width, 4*Order+2.
func (f *Fourier[B]) FeatureSize() int { return f.inner.InputSize() }

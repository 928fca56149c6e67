package models

import (
	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Taylor expands every coordinate axis into powers 1..Order (see
// TaylorFeatures) and feeds the InitSize*(Order+1) features to an inner
// SkipConn.
//
// In practice it fits the Mandelbrot set noticeably worse than SkipConn or
// Fourier; it is kept for comparison.
type Taylor[B tensor.Backend] struct {
	cfg    Config
	inner  *SkipConn[B]
	linmap *CenteredLinearMap[B]
}

// NewTaylor builds a Taylor regressor. The inner SkipConn defaults to GELU.
func NewTaylor[B tensor.Backend](cfg Config, backend B, opts ...Option[B]) (*Taylor[B], error) {
	cfg, o, err := prepare(KindTaylor, cfg, backend, opts)
	if err != nil {
		return nil, err
	}
	act, _ := cfg.activation()
	innerCfg := cfg
	innerCfg.InitSize = cfg.InitSize * (cfg.Order + 1)
	return &Taylor[B]{
		cfg:    cfg,
		inner:  buildSkipConn(innerCfg, act, nil, o.rng, backend),
		linmap: o.linmap,
	}, nil
}

// Forward maps [N, InitSize] coordinates to [N, 1] scores.
func (t *Taylor[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkInput("Taylor", x, t.cfg.InitSize)
	if t.linmap != nil {
		x = t.linmap.Map(x)
	}
	return t.inner.forward(TaylorFeatures(x, t.cfg.Order))
}

// Parameters returns the inner network's parameters.
func (t *Taylor[B]) Parameters() []*nn.Parameter[B] { return t.inner.Parameters() }

// StateDict returns the live parameter tensors keyed by name.
func (t *Taylor[B]) StateDict() map[string]*tensor.RawTensor { return t.inner.StateDict() }

// LoadStateDict copies a state dict produced by a Taylor of the same shape.
func (t *Taylor[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	return t.inner.LoadStateDict(sd)
}

// Kind returns KindTaylor.
func (t *Taylor[B]) Kind() Kind { return KindTaylor }

// Config returns the construction config.
func (t *Taylor[B]) Config() Config { return t.cfg }

// InputSize returns cfg.InitSize.
func (t *Taylor[B]) InputSize() int { return t.cfg.InitSize }

// FeatureSize returns the inner network's input width, InitSize*(Order+1).
func (t *Taylor[B]) FeatureSize() int { return t.inner.InputSize() }

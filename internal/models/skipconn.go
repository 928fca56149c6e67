package models

import (
	"fmt"
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// SkipConn is a fully connected network where every hidden layer sees the
// concatenation [current activation, previous activation, original input].
//
// Layer widths, for hidden size H and input size D:
//
//	in_layer:  D -> H
//	hidden.0:  H+D -> H
//	hidden.i:  2H+D -> H   (i > 0)
//	out_layer: 2H+D -> 1   (H+D without hidden layers)
//
// The output is squashed into [0, 1].
type SkipConn[B tensor.Backend] struct {
	cfg        Config
	backend    B
	inLayer    *nn.Linear[B]
	hidden     []*nn.Linear[B]
	outLayer   *nn.Linear[B]
	activation nn.Module[B]
	squash     nn.Module[B]
	linmap     *CenteredLinearMap[B]
}

// NewSkipConn builds a SkipConn over cfg.InitSize input columns.
func NewSkipConn[B tensor.Backend](cfg Config, backend B, opts ...Option[B]) (*SkipConn[B], error) {
	cfg, o, err := prepare(KindSkipConn, cfg, backend, opts)
	if err != nil {
		return nil, err
	}
	act, _ := cfg.activation()
	return buildSkipConn(cfg, act, o.linmap, o.rng, backend), nil
}

// buildSkipConn assumes cfg has been validated.
func buildSkipConn[B tensor.Backend](cfg Config, act nn.Activation, linmap *CenteredLinearMap[B], rng *rand.Rand, backend B) *SkipConn[B] {
	h, d := cfg.HiddenSize, cfg.InitSize
	s := &SkipConn[B]{
		cfg:        cfg,
		backend:    backend,
		inLayer:    nn.NewLinear(d, h, backend, nn.WithRand(rng), nn.WithName("in_layer")),
		hidden:     make([]*nn.Linear[B], cfg.NumHiddenLayers),
		activation: nn.NewActivation[B](act),
		linmap:     linmap,
	}
	for i := range s.hidden {
		in := 2*h + d
		if i == 0 {
			in = h + d
		}
		s.hidden[i] = nn.NewLinear(in, h, backend, nn.WithRand(rng), nn.WithName(fmt.Sprintf("hidden.%d", i)))
	}
	outIn := 2*h + d
	if cfg.NumHiddenLayers == 0 {
		outIn = h + d
	}
	s.outLayer = nn.NewLinear(outIn, 1, backend, nn.WithRand(rng), nn.WithName("out_layer"))

	switch cfg.Squash {
	case SquashSigmoid:
		s.squash = nn.NewSigmoid[B]()
	default:
		s.squash = nn.NewTanh[B]()
	}
	return s
}

// Forward maps [N, InputSize] coordinates to [N, 1] scores.
func (s *SkipConn[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	checkInput("SkipConn", x, s.cfg.InitSize)
	if s.linmap != nil {
		x = s.linmap.Map(x)
	}
	return s.forward(x)
}

// forward runs the network on already mapped features.
func (s *SkipConn[B]) forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	cur := s.activation.Forward(s.inLayer.Forward(x))
	prev := tensor.Zeros[float32](tensor.Shape{x.Shape()[0], 0}, s.backend)
	for _, layer := range s.hidden {
		combined := tensor.Cat([]*tensor.Tensor[float32, B]{cur, prev, x}, 1)
		prev = cur
		cur = s.activation.Forward(layer.Forward(combined))
	}
	y := s.outLayer.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{cur, prev, x}, 1))
	y = s.squash.Forward(y)
	if s.cfg.Squash == SquashTanh {
		y = y.AddScalar(1).MulScalar(0.5)
	}
	return y
}

// Parameters returns in_layer, hidden and out_layer weights and biases, in order.
func (s *SkipConn[B]) Parameters() []*nn.Parameter[B] {
	params := s.inLayer.Parameters()
	for _, layer := range s.hidden {
		params = append(params, layer.Parameters()...)
	}
	return append(params, s.outLayer.Parameters()...)
}

// StateDict returns the live parameter tensors keyed by name.
func (s *SkipConn[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDict(s.Parameters())
}

// LoadStateDict copies a state dict produced by a SkipConn of the same shape.
func (s *SkipConn[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	return loadStateDict(s.Parameters(), sd)
}

// Kind returns KindSkipConn.
func (s *SkipConn[B]) Kind() Kind { return KindSkipConn }

// Config returns the construction config.
func (s *SkipConn[B]) Config() Config { return s.cfg }

// InputSize returns cfg.InitSize.
func (s *SkipConn[B]) InputSize() int { return s.cfg.InitSize }

// LinearMap returns the coordinate map, or nil.
func (s *SkipConn[B]) LinearMap() *CenteredLinearMap[B] { return s.linmap }

// NumHiddenLayers returns the number of hidden layers.
func (s *SkipConn[B]) NumHiddenLayers() int { return len(s.hidden) }

func checkInput[B tensor.Backend](name string, x *tensor.Tensor[float32, B], width int) {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != width {
		exceptions.Panicf("%s.Forward: expected input [batch, %d], got shape %v", name, width, shape)
	}
}

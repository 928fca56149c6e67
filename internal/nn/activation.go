package nn

import (
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// DefaultLeakyReLUSlope is the negative slope used by NewLeakyReLU.
const DefaultLeakyReLUSlope = 0.01

// ReLUBackend is an interface for backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// LeakyReLUBackend is an interface for backends that support leaky ReLU activation.
type LeakyReLUBackend interface {
	LeakyReLU(x *tensor.RawTensor, slope float64) *tensor.RawTensor
}

// GELUBackend is an interface for backends that support GELU activation.
type GELUBackend interface {
	GELU(*tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is an interface for backends that support Sigmoid activation.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is an interface for backends that support Tanh activation.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// SiLUBackend is an interface for backends that support SiLU activation.
type SiLUBackend interface {
	SiLU(*tensor.RawTensor) *tensor.RawTensor
}

// Activation enumerates the supported activation functions.
//
// It converts to and from snake-case names (ActivationLeakyReLU <-> "leaky_relu"),
// which is how activations are named in configuration files.
type Activation int

// Supported activations.
const (
	ActivationNone Activation = iota
	ActivationReLU
	ActivationLeakyReLU
	ActivationGELU
	ActivationTanh
	ActivationSigmoid
	ActivationSiLU
)

var activationNames = map[Activation]string{
	ActivationNone:      "none",
	ActivationReLU:      "relu",
	ActivationLeakyReLU: "leaky_relu",
	ActivationGELU:      "gelu",
	ActivationTanh:      "tanh",
	ActivationSigmoid:   "sigmoid",
	ActivationSiLU:      "silu",
}

// String returns the snake-case name of the activation.
func (a Activation) String() string {
	if name, ok := activationNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseActivation converts an activation name to its type.
// Names are case-insensitive; "swish" is accepted as an alias of "silu".
func ParseActivation(name string) (Activation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "swish" {
		return ActivationSiLU, nil
	}
	for a, n := range activationNames {
		if n == name {
			return a, nil
		}
	}
	return ActivationNone, errors.Errorf("unknown activation %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (a Activation) MarshalText() ([]byte, error) {
	if _, ok := activationNames[a]; !ok {
		return nil, errors.Errorf("invalid activation value %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Activation) UnmarshalText(text []byte) error {
	parsed, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// NewActivation returns the module implementing the given activation.
func NewActivation[B tensor.Backend](a Activation) Module[B] {
	switch a {
	case ActivationNone:
		return NewIdentity[B]()
	case ActivationReLU:
		return NewReLU[B]()
	case ActivationLeakyReLU:
		return NewLeakyReLU[B](DefaultLeakyReLUSlope)
	case ActivationGELU:
		return NewGELU[B]()
	case ActivationTanh:
		return NewTanh[B]()
	case ActivationSigmoid:
		return NewSigmoid[B]()
	case ActivationSiLU:
		return NewSiLU[B]()
	default:
		exceptions.Panicf("NewActivation: invalid activation value %d", int(a))
	}
	return nil
}

// requireBackend asserts that the backend implements the optional
// activation interface I.
func requireBackend[I any, B tensor.Backend](name string, backend B) I {
	impl, ok := any(backend).(I)
	if !ok {
		exceptions.Panicf("%s: backend %s must implement %s (use autodiff.AutodiffBackend or the CPU backend)",
			name, backend.Name(), name)
	}
	return impl
}

// Identity passes its input through unchanged.
type Identity[B tensor.Backend] struct{}

// NewIdentity creates a new Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return &Identity[B]{}
}

// Forward returns input.
func (m *Identity[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input
}

// Parameters returns an empty slice.
func (m *Identity[B]) Parameters() []*Parameter[B] {
	return nil
}

// ReLU is a Rectified Linear Unit activation module: f(x) = max(0, x).
//
// Example:
//
//	relu := nn.NewReLU[Backend]()
//	output := relu.Forward(input)  // All negative values become 0
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	impl := requireBackend[ReLUBackend]("ReLU", backend)
	return tensor.New[float32, B](impl.ReLU(input.Raw()), backend)
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// LeakyReLU is a leaky rectifier: f(x) = x for x > 0, slope*x otherwise.
type LeakyReLU[B tensor.Backend] struct {
	slope float64
}

// NewLeakyReLU creates a new LeakyReLU activation module.
func NewLeakyReLU[B tensor.Backend](slope float64) *LeakyReLU[B] {
	return &LeakyReLU[B]{slope: slope}
}

// Forward applies the leaky rectifier.
func (r *LeakyReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	impl := requireBackend[LeakyReLUBackend]("LeakyReLU", backend)
	return tensor.New[float32, B](impl.LeakyReLU(input.Raw(), r.slope), backend)
}

// Slope returns the negative slope.
func (r *LeakyReLU[B]) Slope() float64 {
	return r.slope
}

// Parameters returns an empty slice.
func (r *LeakyReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// GELU is the Gaussian error linear unit: f(x) = x·Φ(x).
type GELU[B tensor.Backend] struct{}

// NewGELU creates a new GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies GELU.
func (g *GELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	impl := requireBackend[GELUBackend]("GELU", backend)
	return tensor.New[float32, B](impl.GELU(input.Raw()), backend)
}

// Parameters returns an empty slice.
func (g *GELU[B]) Parameters() []*Parameter[B] {
	return nil
}

// Sigmoid is a sigmoid activation module: σ(x) = 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies Sigmoid activation.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	impl := requireBackend[SigmoidBackend]("Sigmoid", backend)
	return tensor.New[float32, B](impl.Sigmoid(input.Raw()), backend)
}

// Parameters returns an empty slice.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] {
	return nil
}

// Tanh is a hyperbolic tangent activation module.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies Tanh activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	impl := requireBackend[TanhBackend]("Tanh", backend)
	return tensor.New[float32, B](impl.Tanh(input.Raw()), backend)
}

// Parameters returns an empty slice.
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return nil
}

// SiLU is the sigmoid linear unit (swish): f(x) = x·σ(x).
type SiLU[B tensor.Backend] struct{}

// NewSiLU creates a new SiLU activation module.
func NewSiLU[B tensor.Backend]() *SiLU[B] {
	return &SiLU[B]{}
}

// Forward applies SiLU.
func (s *SiLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	impl := requireBackend[SiLUBackend]("SiLU", backend)
	return tensor.New[float32, B](impl.SiLU(input.Raw()), backend)
}

// Parameters returns an empty slice.
func (s *SiLU[B]) Parameters() []*Parameter[B] {
	return nil
}

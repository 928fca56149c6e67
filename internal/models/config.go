package models

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/nn"
)

// Kind selects one of the regressor variants.
type Kind int

// Regressor variants.
const (
	KindSkipConn Kind = iota
	KindFourier
	KindFourier2D
	KindTaylor
)

var kindNames = map[Kind]string{
	KindSkipConn:  "skipconn",
	KindFourier:   "fourier",
	KindFourier2D: "fourier2d",
	KindTaylor:    "taylor",
}

// String returns the configuration name of the variant.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind converts a variant name ("skipconn", "fourier", "fourier2d", "taylor") to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindSkipConn, errors.Wrapf(ErrInvalidConfig, "unknown model kind %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, errors.Errorf("invalid model kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Squash is the final function mapping the output layer into [0,1].
type Squash int

const (
	// SquashTanh computes (tanh(y)+1)/2.
	SquashTanh Squash = iota
	// SquashSigmoid computes 1/(1+exp(-y)).
	SquashSigmoid
)

// String returns "tanh" or "sigmoid".
func (s Squash) String() string {
	switch s {
	case SquashTanh:
		return "tanh"
	case SquashSigmoid:
		return "sigmoid"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Squash) MarshalText() ([]byte, error) {
	if s != SquashTanh && s != SquashSigmoid {
		return nil, errors.Errorf("invalid squash value %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Squash) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "tanh", "":
		*s = SquashTanh
	case "sigmoid":
		*s = SquashSigmoid
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown squash %q", string(text))
	}
	return nil
}

// Domain is the coordinate rectangle a CenteredLinearMap centers.
type Domain struct {
	XMin float64 `yaml:"xmin" json:"xmin"`
	XMax float64 `yaml:"xmax" json:"xmax"`
	YMin float64 `yaml:"ymin" json:"ymin"`
	YMax float64 `yaml:"ymax" json:"ymax"`
}

// DefaultDomain returns the rectangle enclosing the Mandelbrot set:
// x in [-2.5, 1], y in [-1.1, 1.1].
func DefaultDomain() Domain {
	return Domain{XMin: -2.5, XMax: 1.0, YMin: -1.1, YMax: 1.1}
}

// Validate checks that both axis ranges are non-empty.
func (d Domain) Validate() error {
	if d.XMax <= d.XMin {
		return errors.Wrapf(ErrInvalidConfig, "domain xmax (%g) must be greater than xmin (%g)", d.XMax, d.XMin)
	}
	if d.YMax <= d.YMin {
		return errors.Wrapf(ErrInvalidConfig, "domain ymax (%g) must be greater than ymin (%g)", d.YMax, d.YMin)
	}
	return nil
}

// PixelSize is the target extent a CenteredLinearMap scales the domain to.
type PixelSize struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// LinMapConfig describes a CenteredLinearMap. A nil Size keeps unit scale.
type LinMapConfig struct {
	Domain Domain     `yaml:",inline" json:"domain"`
	Size   *PixelSize `yaml:"size,omitempty" json:"size,omitempty"`
}

// Config holds the construction-time hyperparameters shared by all variants.
//
// Zero values of Activation and Squash select the variant defaults: GELU for
// SkipConn and Taylor, LeakyReLU for Fourier and Fourier2D, tanh squashing.
type Config struct {
	Kind            Kind          `yaml:"kind" json:"kind"`
	HiddenSize      int           `yaml:"hidden_size" json:"hidden_size"`
	NumHiddenLayers int           `yaml:"num_hidden_layers" json:"num_hidden_layers"`
	InitSize        int           `yaml:"init_size" json:"init_size"`
	Order           int           `yaml:"order" json:"order"` // Fourier, Fourier2D and Taylor only.
	LinMap          *LinMapConfig `yaml:"linmap,omitempty" json:"linmap,omitempty"`
	Activation      string        `yaml:"activation,omitempty" json:"activation,omitempty"`
	Squash          Squash        `yaml:"squash" json:"squash"`
	UseCUDA         bool          `yaml:"use_cuda" json:"use_cuda"`
	Seed            int64         `yaml:"seed" json:"seed"`
}

// DefaultConfig returns a SkipConn with 7 hidden layers of width 100 over 2D
// coordinates.
func DefaultConfig() Config {
	return Config{
		Kind:            KindSkipConn,
		HiddenSize:      100,
		NumHiddenLayers: 7,
		InitSize:        2,
		Order:           4,
	}
}

// Validate checks the hyperparameters. Errors wrap ErrInvalidConfig or
// ErrInputSize.
func (c Config) Validate() error {
	if _, ok := kindNames[c.Kind]; !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown model kind %d", int(c.Kind))
	}
	if c.HiddenSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "hidden_size must be positive, got %d", c.HiddenSize)
	}
	if c.NumHiddenLayers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "num_hidden_layers must be non-negative, got %d", c.NumHiddenLayers)
	}
	if c.InitSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "init_size must be positive, got %d", c.InitSize)
	}
	if c.Order < 0 {
		return errors.Wrapf(ErrInvalidConfig, "order must be non-negative, got %d", c.Order)
	}
	if c.Squash != SquashTanh && c.Squash != SquashSigmoid {
		return errors.Wrapf(ErrInvalidConfig, "invalid squash value %d", int(c.Squash))
	}
	if _, err := c.activation(); err != nil {
		return err
	}
	if (c.Kind == KindFourier || c.Kind == KindFourier2D) && c.InitSize != 2 {
		return errors.Wrapf(ErrInputSize, "%s features need init_size 2, got %d", c.Kind, c.InitSize)
	}
	if c.LinMap != nil {
		if c.InitSize != 2 {
			return errors.Wrapf(ErrInputSize, "linmap needs init_size 2, got %d", c.InitSize)
		}
		if err := c.LinMap.Domain.Validate(); err != nil {
			return err
		}
		if s := c.LinMap.Size; s != nil && (s.Width <= 0 || s.Height <= 0) {
			return errors.Wrapf(ErrInvalidConfig, "linmap size must be positive, got %gx%g", s.Width, s.Height)
		}
	}
	return nil
}

// activation resolves the configured activation name, falling back to the
// variant default.
func (c Config) activation() (nn.Activation, error) {
	if c.Activation == "" {
		switch c.Kind {
		case KindFourier, KindFourier2D:
			return nn.ActivationLeakyReLU, nil
		default:
			return nn.ActivationGELU, nil
		}
	}
	a, err := nn.ParseActivation(c.Activation)
	if err != nil {
		return a, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return a, nil
}

package models

import (
	"github.com/born-ml/mandelnet/internal/tensor"
)

// CenteredLinearMap is an affine coordinate normalizer that moves the center
// of a domain rectangle to the origin, optionally scaling it to a target size:
//
//	scale_i  = size_i / (max_i - min_i)   (1 when no size is given)
//	offset_i = -(min_i + max_i) * scale_i / 2
//	map(x)   = scale ⊙ x + offset
//
// Its tensors are created on the backend at construction and never change.
// A map can be shared by several networks.
type CenteredLinearMap[B tensor.Backend] struct {
	domain Domain
	size   *PixelSize
	scale  [2]float64
	offset [2]float64

	scaleT    *tensor.Tensor[float32, B] // [1, 2]
	offsetT   *tensor.Tensor[float32, B] // [1, 2]
	invScaleT *tensor.Tensor[float32, B] // [1, 2]
}

// NewCenteredLinearMap builds the map for domain. A nil size keeps unit scale.
func NewCenteredLinearMap[B tensor.Backend](domain Domain, size *PixelSize, backend B) (*CenteredLinearMap[B], error) {
	if err := domain.Validate(); err != nil {
		return nil, err
	}
	m := &CenteredLinearMap[B]{domain: domain, scale: [2]float64{1, 1}}
	if size != nil {
		sz := *size
		m.size = &sz
		m.scale[0] = size.Width / (domain.XMax - domain.XMin)
		m.scale[1] = size.Height / (domain.YMax - domain.YMin)
	}
	m.offset[0] = -(domain.XMin + domain.XMax) * m.scale[0] / 2
	m.offset[1] = -(domain.YMin + domain.YMax) * m.scale[1] / 2

	var err error
	if m.scaleT, err = rowVector(m.scale, backend); err != nil {
		return nil, err
	}
	if m.offsetT, err = rowVector(m.offset, backend); err != nil {
		return nil, err
	}
	if m.invScaleT, err = rowVector([2]float64{1 / m.scale[0], 1 / m.scale[1]}, backend); err != nil {
		return nil, err
	}
	return m, nil
}

// NewDefaultLinearMap centers DefaultDomain with unit scale.
func NewDefaultLinearMap[B tensor.Backend](backend B) *CenteredLinearMap[B] {
	m, err := NewCenteredLinearMap(DefaultDomain(), nil, backend)
	if err != nil {
		panic(err) // DefaultDomain is valid.
	}
	return m
}

func rowVector[B tensor.Backend](v [2]float64, backend B) (*tensor.Tensor[float32, B], error) {
	return tensor.FromSlice([]float32{float32(v[0]), float32(v[1])}, tensor.Shape{1, 2}, backend)
}

// Map applies scale ⊙ x + offset to a [N, 2] batch.
func (m *CenteredLinearMap[B]) Map(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Mul(m.scaleT).Add(m.offsetT)
}

// Inverse maps a normalized [N, 2] batch back into domain coordinates.
func (m *CenteredLinearMap[B]) Inverse(y *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return y.Sub(m.offsetT).Mul(m.invScaleT)
}

// Scale returns the per-axis scale.
func (m *CenteredLinearMap[B]) Scale() [2]float64 {
	return m.scale
}

// Offset returns the per-axis offset.
func (m *CenteredLinearMap[B]) Offset() [2]float64 {
	return m.offset
}

// Config describes the map so that it can be rebuilt.
func (m *CenteredLinearMap[B]) Config() LinMapConfig {
	cfg := LinMapConfig{Domain: m.domain}
	if m.size != nil {
		sz := *m.size
		cfg.Size = &sz
	}
	return cfg
}

// Domain returns the rectangle the map was built for.
func (m *CenteredLinearMap[B]) Domain() Domain {
	return m.domain
}

package models

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// FourierFeatures expands every input axis v of a [N, D] batch into
// [sin(k v) for k=1..order, cos(k v) for k=1..order, v], axis after axis.
// The result has D*(2*order+1) columns; for D=2 that is 4*order+2.
func FourierFeatures[B tensor.Backend](x *tensor.Tensor[float32, B], order int) *tensor.Tensor[float32, B] {
	return fourierFeatures(x, harmonics(1, order, x.Backend()))
}

// Fourier2DFeatures expands a [N, 2] batch into [x0, x1] followed by, for
// every pair (n, m) in 0..order-1:
//
//	cos(n x0)cos(m x1), cos(n x0)sin(m x1), sin(n x0)cos(m x1), sin(n x0)sin(m x1)
//
// The result has 4*order²+2 columns.
func Fourier2DFeatures[B tensor.Backend](x *tensor.Tensor[float32, B], order int) *tensor.Tensor[float32, B] {
	return fourier2DFeatures(x, harmonics(0, order, x.Backend()))
}

// TaylorFeatures expands a [N, D] batch into the blocks [x, x^1, ..., x^order].
// The result has D*(order+1) columns; order 0 returns x itself.
func TaylorFeatures[B tensor.Backend](x *tensor.Tensor[float32, B], order int) *tensor.Tensor[float32, B] {
	requireMatrix("TaylorFeatures", x)
	if order == 0 {
		return x
	}
	parts := make([]*tensor.Tensor[float32, B], 0, order+1)
	parts = append(parts, x)
	for k := 1; k <= order; k++ {
		parts = append(parts, x.Pow(float32(k)))
	}
	return tensor.Cat(parts, 1)
}

// harmonics returns the orders first..first+count-1 as a [1, count] row.
// It returns nil when count is 0.
func harmonics[B tensor.Backend](first, count int, backend B) *tensor.Tensor[float32, B] {
	if count < 0 {
		exceptions.Panicf("harmonic order must be non-negative, got %d", count)
	}
	if count == 0 {
		return nil
	}
	orders := make([]float32, count)
	for i := range orders {
		orders[i] = float32(first + i)
	}
	t, err := tensor.FromSlice(orders, tensor.Shape{1, count}, backend)
	if err != nil {
		exceptions.Panicf("harmonics: %v", err)
	}
	return t
}

func fourierFeatures[B tensor.Backend](x, orders *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	requireMatrix("FourierFeatures", x)
	numAxes := x.Shape()[1]
	parts := make([]*tensor.Tensor[float32, B], 0, 3*numAxes)
	for axis := range numAxes {
		v := x.Narrow(1, axis, 1) // [N, 1]
		if orders != nil {
			kv := v.MatMul(orders) // [N, order]
			parts = append(parts, kv.Sin(), kv.Cos())
		}
		parts = append(parts, v)
	}
	return tensor.Cat(parts, 1)
}

func fourier2DFeatures[B tensor.Backend](x, orders *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	requireMatrix("Fourier2DFeatures", x)
	if x.Shape()[1] != 2 {
		exceptions.Panicf("Fourier2DFeatures: expected [N, 2] input, got shape %v", x.Shape())
	}
	if orders == nil {
		return x
	}
	order := orders.Shape()[1]
	n0 := x.Narrow(1, 0, 1).MatMul(orders) // [N, order]
	n1 := x.Narrow(1, 1, 1).MatMul(orders)
	cos0, sin0 := n0.Cos(), n0.Sin()
	cos1, sin1 := n1.Cos(), n1.Sin()

	parts := make([]*tensor.Tensor[float32, B], 0, 4*order*order+1)
	parts = append(parts, x)
	for n := range order {
		c0, s0 := cos0.Narrow(1, n, 1), sin0.Narrow(1, n, 1)
		for m := range order {
			c1, s1 := cos1.Narrow(1, m, 1), sin1.Narrow(1, m, 1)
			parts = append(parts, c0.Mul(c1), c0.Mul(s1), s0.Mul(c1), s0.Mul(s1))
		}
	}
	return tensor.Cat(parts, 1)
}

func requireMatrix[B tensor.Backend](name string, x *tensor.Tensor[float32, B]) {
	if len(x.Shape()) != 2 {
		exceptions.Panicf("%s: expected 2D input [batch, features], got shape %v", name, x.Shape())
	}
}

package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// A nil rng uses the package-level math/rand source.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform[float32](shape, -bound, bound, rng, backend)
}

// FanInUniform draws values from U(-1/sqrt(fan_in), 1/sqrt(fan_in)), the
// common default for both weights and biases of a linear layer.
func FanInUniform[B tensor.Backend](fanIn int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	if fanIn <= 0 {
		return tensor.Zeros[float32](shape, backend)
	}
	bound := 1 / math.Sqrt(float64(fanIn))
	return tensor.Uniform[float32](shape, -bound, bound, rng, backend)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

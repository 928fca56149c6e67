package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights and biases are drawn from U(-1/sqrt(in), 1/sqrt(in)) by default.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	layer := nn.NewLinear(2, 100, backend)
//	output := layer.Forward(input) // [batch, 2] -> [batch, 100]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features]
}

// LinearOption configures NewLinear.
type LinearOption func(*linearOptions)

type linearOptions struct {
	rng    *rand.Rand
	xavier bool
	name   string
}

// paramName prefixes a parameter name with the layer name, if any.
func (o *linearOptions) paramName(name string) string {
	if o.name == "" {
		return name
	}
	return o.name + "." + name
}

// WithRand draws initial values from rng, for reproducible models.
func WithRand(rng *rand.Rand) LinearOption {
	return func(o *linearOptions) { o.rng = rng }
}

// WithXavierInit initializes weights with Xavier/Glorot uniform values and
// biases with zeros.
func WithXavierInit() LinearOption {
	return func(o *linearOptions) { o.xavier = true }
}

// WithName prefixes the layer's parameter names, e.g. "in_layer.weight".
func WithName(name string) LinearOption {
	return func(o *linearOptions) { o.name = name }
}

// NewLinear creates a new Linear layer.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B, opts ...LinearOption) *Linear[B] {
	var o linearOptions
	for _, opt := range opts {
		opt(&o)
	}

	weightShape := tensor.Shape{outFeatures, inFeatures}
	biasShape := tensor.Shape{outFeatures}
	var weightTensor, biasTensor *tensor.Tensor[float32, B]
	if o.xavier {
		weightTensor = Xavier(inFeatures, outFeatures, weightShape, o.rng, backend)
		biasTensor = Zeros(biasShape, backend)
	} else {
		weightTensor = FanInUniform(inFeatures, weightShape, o.rng, backend)
		biasTensor = FanInUniform(inFeatures, biasShape, o.rng, backend)
	}

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(o.paramName("weight"), weightTensor),
		bias:        NewParameter(o.paramName("bias"), biasTensor),
	}
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		exceptions.Panicf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape)
	}
	if inputShape[1] != l.inFeatures {
		exceptions.Panicf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1])
	}

	output := input.MatMul(l.weight.Tensor().T())
	// Bias [out] is broadcast over the batch as [1, out].
	return output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns a map of parameter names to raw tensors.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
		"bias":   l.bias.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadInto(stateDict, "weight", l.weight, tensor.Shape{l.outFeatures, l.inFeatures}); err != nil {
		return err
	}
	return loadInto(stateDict, "bias", l.bias, tensor.Shape{l.outFeatures})
}

func loadInto[B tensor.Backend](stateDict map[string]*tensor.RawTensor, name string, p *Parameter[B], shape tensor.Shape) error {
	raw, ok := stateDict[name]
	if !ok {
		return errors.Errorf("missing %s in state dict", name)
	}
	if !raw.Shape().Equal(shape) {
		return errors.Errorf("%s shape mismatch: expected %v, got %v", name, shape, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return errors.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
	}
	copy(p.Tensor().Data(), raw.AsFloat32())
	return nil
}

package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mandelnet/internal/autodiff"
	"github.com/born-ml/mandelnet/internal/backend/cpu"
	"github.com/born-ml/mandelnet/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

type T64 = tensor.Tensor[float64, Backend]

func TestAutodiffBackend_NameAndDevice(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.NotNil(t, backend.Inner())
}

func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	assert.False(t, tape.IsRecording())

	a, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	_ = a.Add(a)
	assert.Equal(t, 0, tape.NumOps(), "stopped tape must not record")

	tape.StartRecording()
	_ = a.Add(a).Mul(a)
	assert.Equal(t, 2, tape.NumOps())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	assert.True(t, tape.IsRecording(), "Clear keeps the recording state")

	tape.StopRecording()
	assert.False(t, tape.IsRecording())
}

func TestBackward_Square(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{3}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	y := x.Mul(x)

	grads := autodiff.Backward(y, backend)
	require.Contains(t, grads, x.Raw())
	assert.InDelta(t, 6.0, float64(grads[x.Raw()].AsFloat32()[0]), 1e-6)
	assert.True(t, backend.Tape().IsRecording(), "Backward restores the recording state")
}

func TestBackward_NoOpsPanics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := tensor.Ones[float32](tensor.Shape{1}, backend)
	assert.Panics(t, func() { autodiff.Backward(x, backend) })
}

func TestBackward_AccumulatesSharedInputs(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float64{2, -1}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	// y = x + 3x → dy/dx = 4
	y := x.Add(x.MulScalar(3)).Mean()
	grads := autodiff.Backward(y, backend)
	assert.InDeltaSlice(t, []float64{2, 2}, grads[x.Raw()].AsFloat64(), 1e-12)
}

// checkGradient compares the autodiff gradient of mean(f(x)) with central
// finite differences.
func checkGradient(t *testing.T, shape tensor.Shape, values []float64, f func(x *T64) *T64) {
	t.Helper()
	backend := autodiff.New(cpu.New())

	eval := func(v []float64) float64 {
		x, err := tensor.FromSlice(v, shape, backend)
		require.NoError(t, err)
		return f(x).Mean().Item()
	}

	x, err := tensor.FromSlice(values, shape, backend)
	require.NoError(t, err)
	backend.Tape().StartRecording()
	loss := f(x).Mean()
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()

	grad, ok := grads[x.Raw()]
	require.True(t, ok, "no gradient for input")
	require.Equal(t, shape, grad.Shape())

	const eps = 1e-6
	for i := range values {
		plus := append([]float64(nil), values...)
		minus := append([]float64(nil), values...)
		plus[i] += eps
		minus[i] -= eps
		numeric := (eval(plus) - eval(minus)) / (2 * eps)
		assert.InDelta(t, numeric, grad.AsFloat64()[i], 1e-5, "element %d", i)
	}
}

func constant(t *testing.T, backend Backend, shape tensor.Shape, values ...float64) *T64 {
	t.Helper()
	c, err := tensor.FromSlice(values, shape, backend)
	require.NoError(t, err)
	return c
}

func TestGradients_FiniteDifference(t *testing.T) {
	shape := tensor.Shape{2, 3}
	values := []float64{0.3, -1.2, 0.7, 1.5, -0.4, 2.1}

	tests := []struct {
		name string
		f    func(x *T64) *T64
	}{
		{"Tanh", func(x *T64) *T64 { return tensor.New[float64](x.Backend().Tanh(x.Raw()), x.Backend()) }},
		{"Sigmoid", func(x *T64) *T64 { return tensor.New[float64](x.Backend().Sigmoid(x.Raw()), x.Backend()) }},
		{"GELU", func(x *T64) *T64 { return tensor.New[float64](x.Backend().GELU(x.Raw()), x.Backend()) }},
		{"SiLU", func(x *T64) *T64 { return tensor.New[float64](x.Backend().SiLU(x.Raw()), x.Backend()) }},
		{"ReLU", func(x *T64) *T64 { return tensor.New[float64](x.Backend().ReLU(x.Raw()), x.Backend()) }},
		{"LeakyReLU", func(x *T64) *T64 {
			return tensor.New[float64](x.Backend().LeakyReLU(x.Raw(), 0.01), x.Backend())
		}},
		{"SinCos", func(x *T64) *T64 { return x.MulScalar(2).Sin().Mul(x.Cos()) }},
		{"Exp", func(x *T64) *T64 { return x.Exp() }},
		{"Pow", func(x *T64) *T64 { return x.Pow(3).AddScalar(1) }},
		{"SubSelf", func(x *T64) *T64 { return x.Mul(x).Sub(x) }},
		{"Transpose", func(x *T64) *T64 { return x.T().Mul(x.T()) }},
		{"Reshape", func(x *T64) *T64 { return x.Reshape(3, 2).Pow(2) }},
		{"NarrowCat", func(x *T64) *T64 {
			left := x.Narrow(1, 0, 1)
			right := x.Narrow(1, 1, 2)
			empty := x.Narrow(1, 3, 0)
			return tensor.Cat([]*T64{right.Pow(2), empty, left, x}, 1)
		}},
		{"MatMulBroadcastBias", func(x *T64) *T64 {
			b := x.Backend()
			w := constant(t, b, tensor.Shape{3, 2}, 0.5, -1, 2, 0.25, -0.75, 1.5)
			bias := constant(t, b, tensor.Shape{1, 2}, 0.1, -0.2)
			return x.MatMul(w).Add(bias).Pow(2)
		}},
		{"ColumnBroadcast", func(x *T64) *T64 {
			col := x.Narrow(1, 0, 1) // [2, 1]
			return x.Mul(col).Sub(col)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradient(t, shape, values, tt.f)
		})
	}
}

func TestGradients_BroadcastOperandReceivesReducedGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := constant(t, backend, tensor.Shape{3, 2}, 1, 2, 3, 4, 5, 6)
	bias := constant(t, backend, tensor.Shape{1, 2}, 0, 0)
	loss := x.Add(bias).Mean()

	grads := autodiff.Backward(loss, backend)
	require.Equal(t, tensor.Shape{1, 2}, grads[bias.Raw()].Shape())
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, grads[bias.Raw()].AsFloat64(), 1e-12)
}

package models_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/mandelnet/internal/autodiff"
	"github.com/born-ml/mandelnet/internal/backend/cpu"
	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() Backend {
	return autodiff.New(cpu.New())
}

// randomPoints samples n coordinates in [-2,1]×[-1,1].
func randomPoints(t *testing.T, n int, backend Backend) *tensor.Tensor[float32, Backend] {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	data := make([]float32, 2*n)
	for i := range n {
		data[2*i] = float32(-2 + 3*rng.Float64())
		data[2*i+1] = float32(-1 + 2*rng.Float64())
	}
	x, err := tensor.FromSlice(data, tensor.Shape{n, 2}, backend)
	require.NoError(t, err)
	return x
}

func matrix(t *testing.T, backend Backend, rows [][]float32) *tensor.Tensor[float32, Backend] {
	t.Helper()
	var data []float32
	for _, r := range rows {
		data = append(data, r...)
	}
	x, err := tensor.FromSlice(data, tensor.Shape{len(rows), len(rows[0])}, backend)
	require.NoError(t, err)
	return x
}

func assertScores(t *testing.T, out *tensor.Tensor[float32, Backend], n int) {
	t.Helper()
	require.Equal(t, tensor.Shape{n, 1}, out.Shape())
	for i, v := range out.Data() {
		require.GreaterOrEqual(t, v, float32(0), "score %d", i)
		require.LessOrEqual(t, v, float32(1), "score %d", i)
	}
}

func smallConfig(kind models.Kind) models.Config {
	cfg := models.DefaultConfig()
	cfg.Kind = kind
	cfg.HiddenSize = 8
	cfg.NumHiddenLayers = 2
	cfg.Order = 2
	return cfg
}

func TestSkipConn_EndToEnd(t *testing.T) {
	backend := newBackend()
	cfg := models.DefaultConfig()
	cfg.HiddenSize = 10
	cfg.NumHiddenLayers = 2
	cfg.InitSize = 2
	model, err := models.NewSkipConn(cfg, backend)
	require.NoError(t, err)

	out := model.Forward(randomPoints(t, 1000, backend))
	assertScores(t, out, 1000)

	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range out.Data() {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	assert.Greater(t, hi-lo, float32(1e-4), "output should vary across inputs")
}

func TestSkipConn_LayerWidths(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.HiddenSize = 10
	cfg.NumHiddenLayers = 3
	model, err := models.NewSkipConn(cfg, newBackend())
	require.NoError(t, err)

	shapes := make(map[string]tensor.Shape)
	for _, p := range model.Parameters() {
		shapes[p.Name()] = p.Tensor().Shape()
	}
	assert.Equal(t, tensor.Shape{10, 2}, shapes["in_layer.weight"])
	assert.Equal(t, tensor.Shape{10, 12}, shapes["hidden.0.weight"])
	assert.Equal(t, tensor.Shape{10, 22}, shapes["hidden.1.weight"])
	assert.Equal(t, tensor.Shape{10, 22}, shapes["hidden.2.weight"])
	assert.Equal(t, tensor.Shape{1, 22}, shapes["out_layer.weight"])
	assert.Equal(t, tensor.Shape{1}, shapes["out_layer.bias"])
	assert.Len(t, shapes, 10)
}

func TestSkipConn_NoHiddenLayers(t *testing.T) {
	backend := newBackend()
	cfg := models.DefaultConfig()
	cfg.HiddenSize = 6
	cfg.NumHiddenLayers = 0
	model, err := models.NewSkipConn(cfg, backend)
	require.NoError(t, err)
	assert.Equal(t, 0, model.NumHiddenLayers())

	assertScores(t, model.Forward(randomPoints(t, 17, backend)), 17)
	// in_layer 6x2+6, out_layer 1x8+1
	assert.Equal(t, 18+9, models.NumParameters[Backend](model))
}

func TestSkipConn_SigmoidSquash(t *testing.T) {
	backend := newBackend()
	cfg := smallConfig(models.KindSkipConn)
	cfg.Squash = models.SquashSigmoid
	model, err := models.NewSkipConn(cfg, backend)
	require.NoError(t, err)
	assertScores(t, model.Forward(randomPoints(t, 50, backend)), 50)
}

func TestNew_AllKinds(t *testing.T) {
	for _, kind := range []models.Kind{models.KindSkipConn, models.KindFourier, models.KindFourier2D, models.KindTaylor} {
		t.Run(kind.String(), func(t *testing.T) {
			backend := newBackend()
			model, err := models.New(smallConfig(kind), backend)
			require.NoError(t, err)
			assert.Equal(t, kind, model.Kind())
			assert.Equal(t, 2, model.InputSize())
			assertScores(t, model.Forward(randomPoints(t, 64, backend)), 64)
		})
	}
}

func TestNew_FeatureWidths(t *testing.T) {
	backend := newBackend()
	cfg := smallConfig(models.KindFourier)
	cfg.Order = 3

	fourier, err := models.NewFourier(cfg, backend)
	require.NoError(t, err)
	assert.Equal(t, 14, fourier.FeatureSize())

	fourier2D, err := models.NewFourier2D(cfg, backend)
	require.NoError(t, err)
	assert.Equal(t, 38, fourier2D.FeatureSize())

	taylor, err := models.NewTaylor(cfg, backend)
	require.NoError(t, err)
	assert.Equal(t, 8, taylor.FeatureSize())
}

func TestNew_Errors(t *testing.T) {
	backend := newBackend()
	tests := []struct {
		name   string
		modify func(*models.Config)
		want   error
	}{
		{"zero hidden size", func(c *models.Config) { c.HiddenSize = 0 }, models.ErrInvalidConfig},
		{"negative depth", func(c *models.Config) { c.NumHiddenLayers = -1 }, models.ErrInvalidConfig},
		{"negative order", func(c *models.Config) { c.Order = -1 }, models.ErrInvalidConfig},
		{"bad activation", func(c *models.Config) { c.Activation = "softplus" }, models.ErrInvalidConfig},
		{"bad kind", func(c *models.Config) { c.Kind = models.Kind(42) }, models.ErrInvalidConfig},
		{"fourier 3D", func(c *models.Config) { c.Kind = models.KindFourier; c.InitSize = 3 }, models.ErrInputSize},
		{"fourier2d 1D", func(c *models.Config) { c.Kind = models.KindFourier2D; c.InitSize = 1 }, models.ErrInputSize},
		{"linmap 3D", func(c *models.Config) {
			c.InitSize = 3
			c.LinMap = &models.LinMapConfig{Domain: models.DefaultDomain()}
		}, models.ErrInputSize},
		{"empty domain", func(c *models.Config) {
			c.LinMap = &models.LinMapConfig{Domain: models.Domain{XMin: 1, XMax: 1, YMin: 0, YMax: 1}}
		}, models.ErrInvalidConfig},
		{"cuda", func(c *models.Config) { c.UseCUDA = true }, models.ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig(models.KindSkipConn)
			tt.modify(&cfg)
			_, err := models.New(cfg, backend)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestTaylor_ArbitraryInputSize(t *testing.T) {
	backend := newBackend()
	cfg := smallConfig(models.KindTaylor)
	cfg.InitSize = 3
	model, err := models.NewTaylor(cfg, backend)
	require.NoError(t, err)

	x := matrix(t, backend, [][]float32{{0.1, 0.2, 0.3}, {-0.5, 0.4, 1}})
	assertScores(t, model.Forward(x), 2)
}

func TestForward_WrongInputPanics(t *testing.T) {
	backend := newBackend()
	model, err := models.New(smallConfig(models.KindSkipConn), backend)
	require.NoError(t, err)

	x := matrix(t, backend, [][]float32{{1, 2, 3}})
	assert.Panics(t, func() { model.Forward(x) })

	_, err = models.Predict(model, x)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skipconn forward")
}

func TestPredict(t *testing.T) {
	backend := newBackend()
	model, err := models.New(smallConfig(models.KindFourier), backend)
	require.NoError(t, err)
	out, err := models.Predict(model, randomPoints(t, 5, backend))
	require.NoError(t, err)
	assertScores(t, out, 5)
}

func TestStateDict_RoundTrip(t *testing.T) {
	backend := newBackend()
	cfgA := smallConfig(models.KindFourier2D)
	cfgA.Seed = 1
	cfgB := cfgA
	cfgB.Seed = 2
	a, err := models.New(cfgA, backend)
	require.NoError(t, err)
	b, err := models.New(cfgB, backend)
	require.NoError(t, err)

	x := randomPoints(t, 20, backend)
	want := a.Forward(x).Data()
	assert.NotEqual(t, want, b.Forward(x).Data())

	require.NoError(t, b.LoadStateDict(a.StateDict()))
	assert.Equal(t, want, b.Forward(x).Data())
}

func TestStateDict_Mismatch(t *testing.T) {
	backend := newBackend()
	small, err := models.New(smallConfig(models.KindSkipConn), backend)
	require.NoError(t, err)
	cfg := smallConfig(models.KindSkipConn)
	cfg.HiddenSize = 4
	other, err := models.New(cfg, backend)
	require.NoError(t, err)

	err = small.LoadStateDict(other.StateDict())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")

	sd := small.StateDict()
	delete(sd, "in_layer.bias")
	require.Error(t, small.LoadStateDict(sd))
}

func TestSeedIsReproducible(t *testing.T) {
	backend := newBackend()
	a, err := models.New(smallConfig(models.KindTaylor), backend)
	require.NoError(t, err)
	b, err := models.New(smallConfig(models.KindTaylor), backend)
	require.NoError(t, err)
	for name, raw := range a.StateDict() {
		assert.Equal(t, raw.AsFloat32(), b.StateDict()[name].AsFloat32(), name)
	}
}

func TestGradientsReachEveryParameter(t *testing.T) {
	for _, kind := range []models.Kind{models.KindSkipConn, models.KindFourier, models.KindFourier2D, models.KindTaylor} {
		t.Run(kind.String(), func(t *testing.T) {
			backend := newBackend()
			cfg := smallConfig(kind)
			cfg.LinMap = &models.LinMapConfig{Domain: models.DefaultDomain()}
			model, err := models.New(cfg, backend)
			require.NoError(t, err)

			x := randomPoints(t, 8, backend)
			targets := tensor.Zeros[float32](tensor.Shape{8, 1}, backend)

			backend.Tape().StartRecording()
			loss := nn.NewMSELoss[Backend]().Forward(model.Forward(x), targets)
			grads := autodiff.Backward(loss, backend)
			backend.Tape().StopRecording()
			backend.Tape().Clear()

			for _, p := range model.Parameters() {
				grad, ok := grads[p.Tensor().Raw()]
				require.True(t, ok, "no gradient for %s", p.Name())
				assert.Equal(t, p.Tensor().Shape(), grad.Shape(), p.Name())
			}
		})
	}
}

func TestLinearMap_Defaults(t *testing.T) {
	backend := newBackend()
	m, err := models.NewCenteredLinearMap(models.DefaultDomain(), nil, backend)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Scale()[0], 1e-12)
	assert.InDelta(t, 1.0, m.Scale()[1], 1e-12)
	assert.InDelta(t, 0.75, m.Offset()[0], 1e-12)
	assert.InDelta(t, 0.0, m.Offset()[1], 1e-12)

	out := m.Map(matrix(t, backend, [][]float32{{-2.5, -1.1}, {1, 1.1}}))
	assert.InDeltaSlice(t, []float32{-1.75, -1.1, 1.75, 1.1}, out.Data(), 1e-6)
}

func TestLinearMap_PixelSize(t *testing.T) {
	backend := newBackend()
	m, err := models.NewCenteredLinearMap(models.DefaultDomain(), &models.PixelSize{Width: 350, Height: 220}, backend)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, m.Scale()[0], 1e-9)
	assert.InDelta(t, 100.0, m.Scale()[1], 1e-9)
	assert.InDelta(t, 75.0, m.Offset()[0], 1e-9)

	// Corners land on ±size/2.
	out := m.Map(matrix(t, backend, [][]float32{{-2.5, -1.1}, {1, 1.1}}))
	assert.InDeltaSlice(t, []float32{-175, -110, 175, 110}, out.Data(), 1e-3)
}

func TestLinearMap_Inverse(t *testing.T) {
	backend := newBackend()
	domain := models.Domain{XMin: -1.8, XMax: -0.9, YMin: 0.1, YMax: 0.3}
	m, err := models.NewCenteredLinearMap(domain, &models.PixelSize{Width: 64, Height: 32}, backend)
	require.NoError(t, err)

	x := randomPoints(t, 10, backend)
	back := m.Inverse(m.Map(x))
	assert.InDeltaSlice(t, x.Data(), back.Data(), 1e-4)
}

func TestLinearMap_Shared(t *testing.T) {
	backend := newBackend()
	m := models.NewDefaultLinearMap(backend)
	model, err := models.NewSkipConn(smallConfig(models.KindSkipConn), backend, models.WithLinearMap(m))
	require.NoError(t, err)
	assert.Same(t, m, model.LinearMap())
	require.NotNil(t, model.Config().LinMap)
	assert.Equal(t, m.Config(), *model.Config().LinMap)
}

func TestLinearMap_SharedRequiresPlaneInput(t *testing.T) {
	backend := newBackend()
	cfg := smallConfig(models.KindTaylor)
	cfg.InitSize = 3
	_, err := models.New(cfg, backend, models.WithLinearMap(models.NewDefaultLinearMap(backend)))
	assert.True(t, errors.Is(err, models.ErrInputSize))
}

func TestForward_AppliesLinearMapFirst(t *testing.T) {
	domain := models.Domain{XMin: -1.8, XMax: -0.9, YMin: 0.1, YMax: 0.3}
	size := &models.PixelSize{Width: 4, Height: 2}
	for _, kind := range []models.Kind{models.KindSkipConn, models.KindFourier, models.KindFourier2D, models.KindTaylor} {
		t.Run(kind.String(), func(t *testing.T) {
			backend := newBackend()
			cfg := smallConfig(kind)
			cfg.Seed = 3
			plain, err := models.New(cfg, backend)
			require.NoError(t, err)

			m, err := models.NewCenteredLinearMap(domain, size, backend)
			require.NoError(t, err)
			mapped, err := models.New(cfg, backend, models.WithLinearMap(m))
			require.NoError(t, err)

			viaConfig := cfg
			viaConfig.LinMap = &models.LinMapConfig{Domain: domain, Size: size}
			configured, err := models.New(viaConfig, backend)
			require.NoError(t, err)

			x := randomPoints(t, 16, backend)
			want := plain.Forward(m.Map(x)).Data()
			assert.InDeltaSlice(t, want, mapped.Forward(x).Data(), 1e-6)
			assert.InDeltaSlice(t, want, configured.Forward(x).Data(), 1e-6)
			assert.NotEqual(t, plain.Forward(x).Data(), want)
		})
	}
}

func TestFourierFeatures_AtZero(t *testing.T) {
	backend := newBackend()
	for order := 1; order <= 4; order++ {
		x := tensor.Zeros[float32](tensor.Shape{3, 2}, backend)
		features := models.FourierFeatures(x, order)
		require.Equal(t, tensor.Shape{3, 4*order + 2}, features.Shape())

		block := 2*order + 1
		for row := range 3 {
			for axis := range 2 {
				base := axis * block
				for k := range order {
					assert.InDelta(t, 0, features.At(row, base+k), 1e-7, "sin term")
					assert.InDelta(t, 1, features.At(row, base+order+k), 1e-7, "cos term")
				}
				assert.InDelta(t, 0, features.At(row, base+2*order), 1e-7, "raw term")
			}
		}
	}
}

func TestFourierFeatures_Layout(t *testing.T) {
	backend := newBackend()
	x := matrix(t, backend, [][]float32{{0.5, -1}})
	features := models.FourierFeatures(x, 2)

	s := func(v float64) float32 { return float32(math.Sin(v)) }
	c := func(v float64) float32 { return float32(math.Cos(v)) }
	want := []float32{
		s(0.5), s(1), c(0.5), c(1), 0.5,
		s(-1), s(-2), c(-1), c(-2), -1,
	}
	assert.InDeltaSlice(t, want, features.Data(), 1e-6)
}

func TestFourierFeatures_OrderZero(t *testing.T) {
	backend := newBackend()
	x := matrix(t, backend, [][]float32{{0.25, 0.75}})
	assert.Equal(t, []float32{0.25, 0.75}, models.FourierFeatures(x, 0).Data())
}

func TestFourier2DFeatures_OrderOne(t *testing.T) {
	backend := newBackend()
	x := matrix(t, backend, [][]float32{{0.3, -0.7}, {2, 1}})
	features := models.Fourier2DFeatures(x, 1)
	require.Equal(t, tensor.Shape{2, 6}, features.Shape())
	assert.InDeltaSlice(t, []float32{0.3, -0.7, 1, 0, 0, 0, 2, 1, 1, 0, 0, 0}, features.Data(), 1e-7)
}

func TestFourier2DFeatures_CrossTerms(t *testing.T) {
	backend := newBackend()
	x0, x1 := 0.4, -1.3
	x := matrix(t, backend, [][]float32{{float32(x0), float32(x1)}})
	features := models.Fourier2DFeatures(x, 2)
	require.Equal(t, tensor.Shape{1, 18}, features.Shape())

	// Pair (n, m) starts at column 2 + 4*(n*order+m).
	for n := range 2 {
		for m := range 2 {
			base := 2 + 4*(n*2+m)
			cn, sn := math.Cos(float64(n)*x0), math.Sin(float64(n)*x0)
			cm, sm := math.Cos(float64(m)*x1), math.Sin(float64(m)*x1)
			assert.InDelta(t, cn*cm, features.At(0, base), 1e-6)
			assert.InDelta(t, cn*sm, features.At(0, base+1), 1e-6)
			assert.InDelta(t, sn*cm, features.At(0, base+2), 1e-6)
			assert.InDelta(t, sn*sm, features.At(0, base+3), 1e-6)
		}
	}
}

func TestTaylorFeatures(t *testing.T) {
	backend := newBackend()
	x := matrix(t, backend, [][]float32{{2, -3}})

	identity := models.TaylorFeatures(x, 0)
	assert.Equal(t, tensor.Shape{1, 2}, identity.Shape())
	assert.Equal(t, []float32{2, -3}, identity.Data())

	cubic := models.TaylorFeatures(x, 3)
	assert.Equal(t, tensor.Shape{1, 8}, cubic.Shape())
	assert.InDeltaSlice(t, []float32{2, -3, 2, -3, 4, 9, 8, -27}, cubic.Data(), 1e-5)
}

func TestConfig_YAML(t *testing.T) {
	src := `
kind: fourier
hidden_size: 50
num_hidden_layers: 5
init_size: 2
order: 6
activation: silu
squash: sigmoid
linmap:
  xmin: -2
  xmax: 1
  ymin: -1
  ymax: 1
  size:
    width: 300
    height: 200
`
	var cfg models.Config
	require.NoError(t, yaml.Unmarshal([]byte(src), &cfg))
	assert.Equal(t, models.KindFourier, cfg.Kind)
	assert.Equal(t, 50, cfg.HiddenSize)
	assert.Equal(t, 6, cfg.Order)
	assert.Equal(t, models.SquashSigmoid, cfg.Squash)
	require.NotNil(t, cfg.LinMap)
	assert.InDelta(t, -2.0, cfg.LinMap.Domain.XMin, 0)
	require.NotNil(t, cfg.LinMap.Size)
	assert.InDelta(t, 200.0, cfg.LinMap.Size.Height, 0)
	require.NoError(t, cfg.Validate())

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	var back models.Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, cfg, back)
}

func TestParseKind(t *testing.T) {
	k, err := models.ParseKind(" Fourier2D ")
	require.NoError(t, err)
	assert.Equal(t, models.KindFourier2D, k)

	_, err = models.ParseKind("mlp")
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

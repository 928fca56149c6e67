package render_test

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mandelnet/internal/autodiff"
	"github.com/born-ml/mandelnet/internal/backend/cpu"
	"github.com/born-ml/mandelnet/internal/dataset"
	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/parallel"
	"github.com/born-ml/mandelnet/internal/render"
	"github.com/born-ml/mandelnet/internal/tensor"
	"github.com/born-ml/mandelnet/internal/train"
)

func newModel[B tensor.Backend](t *testing.T, backend B) models.Regressor[B] {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.HiddenSize = 8
	cfg.NumHiddenLayers = 1
	cfg.LinMap = &models.LinMapConfig{Domain: models.DefaultDomain()}
	model, err := models.New(cfg, backend)
	require.NoError(t, err)
	return model
}

func smallConfig(w, h int) render.Config {
	cfg := render.DefaultConfig()
	cfg.Width, cfg.Height = w, h
	cfg.RowsPerBatch = 3
	return cfg
}

func TestConfig_YRangeFollowsAspectRatio(t *testing.T) {
	cfg := render.DefaultConfig()
	cfg.Width, cfg.Height = 350, 100
	cfg.YOffset = 0.5
	ymin, ymax := cfg.YRange()
	assert.InDelta(t, 0.5-0.5, ymin, 1e-12)
	assert.InDelta(t, 0.5+0.5, ymax, 1e-12)
}

func TestConfig_PixelCorners(t *testing.T) {
	cfg := smallConfig(5, 5)
	x, y := cfg.Pixel(0, 0)
	assert.InDelta(t, -2.5, x, 1e-12)
	assert.InDelta(t, 1.75, y, 1e-12)

	x, y = cfg.Pixel(4, 4)
	assert.InDelta(t, 1.0, x, 1e-12)
	assert.InDelta(t, -1.75, y, 1e-12)

	grid := cfg.Grid(1, 3)
	require.Len(t, grid, 2*2*5)
	x, y = cfg.Pixel(2, 1)
	assert.InDelta(t, x, float64(grid[4]), 1e-6)
	assert.InDelta(t, y, float64(grid[5]), 1e-6)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, render.DefaultConfig().Validate())

	cfg := render.DefaultConfig()
	cfg.Width = 0
	require.Error(t, cfg.Validate())

	cfg = render.DefaultConfig()
	cfg.XMax = cfg.XMin
	require.Error(t, cfg.Validate())
}

func TestGenerate_MatchesPredict(t *testing.T) {
	backend := cpu.New()
	model := newModel(t, backend)
	cfg := smallConfig(7, 5)

	img, err := render.Generate(model, backend, cfg)
	require.NoError(t, err)
	require.Equal(t, 7, img.Bounds().Dx())
	require.Equal(t, 5, img.Bounds().Dy())

	x, err := tensor.FromSlice(cfg.Grid(0, cfg.Height), tensor.Shape{7 * 5, 2}, backend)
	require.NoError(t, err)
	scores, err := models.Predict(model, x)
	require.NoError(t, err)
	for i, s := range scores.Data() {
		want := uint8(math.Round(float64(s) * 255))
		assert.InDelta(t, want, img.Pix[i], 1, "pixel %d", i)
	}
}

func TestGenerate_ParallelMatchesSequential(t *testing.T) {
	backend := cpu.New()
	model := newModel(t, backend)

	seq := smallConfig(16, 11)
	seq.Parallel = parallel.Sequential()
	par := seq
	par.Parallel = parallel.Config{Enabled: true, NumWorkers: 4}

	want, err := render.Generate(model, backend, seq)
	require.NoError(t, err)
	got, err := render.Generate(model, backend, par)
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)
}

func TestGenerate_Supersample(t *testing.T) {
	backend := cpu.New()
	model := newModel(t, backend)
	cfg := smallConfig(6, 4)
	cfg.Supersample = 2

	img, err := render.Generate(model, backend, cfg)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestGenerate_RecordingBackend(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newModel(t, backend)

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()
	_, err := render.Generate(model, backend, smallConfig(4, 4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording")
}

func TestGenerate_InputMismatch(t *testing.T) {
	backend := cpu.New()
	cfg := models.DefaultConfig()
	cfg.HiddenSize = 4
	cfg.NumHiddenLayers = 0
	cfg.InitSize = 3
	model, err := models.New(cfg, backend)
	require.NoError(t, err)

	_, err = render.Generate(model, backend, smallConfig(4, 4))
	require.Error(t, err)
}

func TestSave(t *testing.T) {
	backend := cpu.New()
	img, err := render.Generate(newModel(t, backend), backend, smallConfig(9, 6))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mandelbrot.png")
	require.NoError(t, render.Save(img, path))

	loaded, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Bounds().Dx())
	assert.Equal(t, 6, loaded.Bounds().Dy())
}

func TestCapturer_WritesFramesAtRate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newModel(t, backend)
	data, err := dataset.MandelbrotDataSet(40, dataset.DefaultConfig())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "frames")
	capturer, err := render.NewCapturer(dir, 8, 6, 2, backend)
	require.NoError(t, err)

	cfg := train.DefaultConfig()
	cfg.Epochs = 2
	cfg.BatchSize = 10
	result, err := train.Train(context.Background(), model, backend, data, cfg, capturer)
	require.NoError(t, err)
	require.Equal(t, 8, result.Steps)
	require.Equal(t, 4, capturer.Frames())

	for i := range capturer.Frames() {
		frame, err := imaging.Open(filepath.Join(dir, fmt.Sprintf(render.FramePattern, i)))
		require.NoError(t, err)
		assert.Equal(t, 8, frame.Bounds().Dx())
		assert.Equal(t, 6, frame.Bounds().Dy())
	}
}

func TestNewCapturer_InvalidRate(t *testing.T) {
	_, err := render.NewCapturer(t.TempDir(), 8, 8, 0, cpu.New())
	require.Error(t, err)
}

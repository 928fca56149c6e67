package train_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mandelnet/internal/autodiff"
	"github.com/born-ml/mandelnet/internal/backend/cpu"
	"github.com/born-ml/mandelnet/internal/dataset"
	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/serialization"
	"github.com/born-ml/mandelnet/internal/train"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func setup(t *testing.T, points int) (Backend, models.Regressor[Backend], *dataset.DataSet) {
	t.Helper()
	backend := autodiff.New(cpu.New())
	cfg := models.DefaultConfig()
	cfg.HiddenSize = 16
	cfg.NumHiddenLayers = 2
	cfg.LinMap = &models.LinMapConfig{Domain: models.DefaultDomain()}
	model, err := models.New(cfg, backend)
	require.NoError(t, err)

	data, err := dataset.MandelbrotDataSet(points, dataset.DefaultConfig())
	require.NoError(t, err)
	return backend, model, data
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, train.DefaultConfig().Validate())

	tests := map[string]func(*train.Config){
		"epochs":    func(c *train.Config) { c.Epochs = 0 },
		"batch":     func(c *train.Config) { c.BatchSize = -1 },
		"optimizer": func(c *train.Config) { c.Optimizer = "lbfgs" },
		"lr":        func(c *train.Config) { c.LR = -0.1 },
		"momentum":  func(c *train.Config) { c.Momentum = 1 },
	}
	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := train.DefaultConfig()
			modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTrain_LossDecreases(t *testing.T) {
	backend, model, data := setup(t, 800)
	cfg := train.DefaultConfig()
	cfg.Epochs = 6
	cfg.BatchSize = 100
	cfg.LR = 0.01

	result, err := train.Train(context.Background(), model, backend, data, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 6, result.Epochs)
	assert.Equal(t, 48, result.Steps)
	require.Len(t, result.EpochLosses, 6)
	assert.Less(t, result.EpochLosses[5], result.EpochLosses[0])
	assert.InDelta(t, result.EpochLosses[5], result.FinalLoss, 0)
	assert.Zero(t, backend.Tape().NumOps(), "tape must be cleared after each step")
	assert.False(t, backend.Tape().IsRecording())
	assert.Contains(t, result.Summary(), result.RunID)
}

func TestTrain_SGD(t *testing.T) {
	backend, model, data := setup(t, 300)
	cfg := train.DefaultConfig()
	cfg.Epochs = 2
	cfg.BatchSize = 50
	cfg.Optimizer = train.OptimizerSGD
	cfg.LR = 0.1
	cfg.Momentum = 0.9

	before := append([]float32(nil), model.StateDict()["out_layer.weight"].AsFloat32()...)
	result, err := train.Train(context.Background(), model, backend, data, cfg)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Steps)
	assert.NotEqual(t, before, model.StateDict()["out_layer.weight"].AsFloat32())
}

func TestTrain_Hooks(t *testing.T) {
	backend, model, data := setup(t, 250)
	cfg := train.DefaultConfig()
	cfg.Epochs = 2
	cfg.BatchSize = 100

	var steps []train.Step
	hook := train.StepHookFunc[Backend](func(_ context.Context, s train.Step, m models.Regressor[Backend]) error {
		assert.Same(t, model, m)
		steps = append(steps, s)
		return nil
	})
	result, err := train.Train(context.Background(), model, backend, data, cfg, hook)
	require.NoError(t, err)
	require.Len(t, steps, 6)
	for i, s := range steps {
		assert.Equal(t, i+1, s.Step)
		assert.Equal(t, i/3, s.Epoch)
		assert.Equal(t, result.RunID, s.RunID)
		assert.Positive(t, s.Loss)
	}
}

func TestTrain_Cancel(t *testing.T) {
	backend, model, data := setup(t, 500)
	cfg := train.DefaultConfig()
	cfg.BatchSize = 50

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hook := train.StepHookFunc[Backend](func(_ context.Context, s train.Step, _ models.Regressor[Backend]) error {
		if s.Step == 2 {
			cancel()
		}
		return nil
	})
	result, err := train.Train(ctx, model, backend, data, cfg, hook)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, 0, result.Epochs)
}

func TestTrain_HookError(t *testing.T) {
	backend, model, data := setup(t, 100)
	boom := errors.New("boom")
	hook := train.StepHookFunc[Backend](func(context.Context, train.Step, models.Regressor[Backend]) error {
		return boom
	})
	result, err := train.Train(context.Background(), model, backend, data, train.DefaultConfig(), hook)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, result.Steps)
}

func TestTrain_CheckpointAndProgress(t *testing.T) {
	backend, model, data := setup(t, 200)
	var progress bytes.Buffer
	cfg := train.DefaultConfig()
	cfg.Epochs = 2
	cfg.BatchSize = 100
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "ckpt.mnet")
	cfg.ShowProgress = true
	cfg.ProgressWriter = &progress

	result, err := train.Train(context.Background(), model, backend, data, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, progress.String())

	loaded, header, err := serialization.LoadModel(cfg.CheckpointPath, backend)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, header.RunID)
	require.NotNil(t, header.Checkpoint)
	assert.Equal(t, 2, header.Checkpoint.Epoch)
	assert.Equal(t, int64(4), header.Checkpoint.Step)
	assert.Equal(t, "adam", header.Checkpoint.Optimizer)
	for name, raw := range model.StateDict() {
		assert.Equal(t, raw.AsFloat32(), loaded.StateDict()[name].AsFloat32(), name)
	}
}

func TestTrain_InvalidConfig(t *testing.T) {
	backend, model, data := setup(t, 10)
	cfg := train.DefaultConfig()
	cfg.Epochs = 0
	_, err := train.Train(context.Background(), model, backend, data, cfg)
	assert.Error(t, err)
}

func TestTrain_ResumeMatchesUninterrupted(t *testing.T) {
	dir := t.TempDir()
	cfg := train.DefaultConfig()
	cfg.BatchSize = 50
	cfg.Seed = 5

	backend, straight, data := setup(t, 150)
	cfg.Epochs = 2
	want, err := train.Train(context.Background(), straight, backend, data, cfg)
	require.NoError(t, err)

	firstBackend, first, _ := setup(t, 150)
	cfg.Epochs = 1
	cfg.CheckpointPath = filepath.Join(dir, "epoch1.mnet")
	partial, err := train.Train(context.Background(), first, firstBackend, data, cfg)
	require.NoError(t, err)

	resumedBackend, resumed, _ := setup(t, 150)
	cfg.Epochs = 2
	cfg.ResumeFrom = cfg.CheckpointPath
	cfg.CheckpointPath = ""
	got, err := train.Train(context.Background(), resumed, resumedBackend, data, cfg)
	require.NoError(t, err)

	assert.Equal(t, partial.RunID, got.RunID)
	assert.Equal(t, want.Epochs, got.Epochs)
	assert.Equal(t, want.Steps, got.Steps)
	assert.Len(t, got.EpochLosses, 1)
	assert.InDelta(t, want.FinalLoss, got.FinalLoss, 1e-5)
	for name, raw := range straight.StateDict() {
		assert.InDeltaSlice(t, raw.AsFloat32(), resumed.StateDict()[name].AsFloat32(), 1e-5, name)
	}
}

func TestTrain_ResumeRejectsOtherOptimizer(t *testing.T) {
	backend, model, data := setup(t, 40)
	cfg := train.DefaultConfig()
	cfg.Epochs = 1
	cfg.BatchSize = 20
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "adam.mnet")
	_, err := train.Train(context.Background(), model, backend, data, cfg)
	require.NoError(t, err)

	cfg.Optimizer = train.OptimizerSGD
	cfg.Epochs = 2
	cfg.ResumeFrom = cfg.CheckpointPath
	_, err = train.Train(context.Background(), model, backend, data, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adam")
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mandelnet/backend/cpu"
	"github.com/born-ml/mandelnet/models"
	"github.com/born-ml/mandelnet/tensor"
)

func TestNew_EndToEnd(t *testing.T) {
	backend := cpu.New()
	cfg := models.DefaultConfig()
	cfg.HiddenSize = 10
	cfg.NumHiddenLayers = 2
	cfg.LinMap = &models.LinMapConfig{Domain: models.DefaultDomain()}
	model, err := models.New(cfg, backend)
	require.NoError(t, err)

	x := tensor.Uniform[float32](tensor.Shape{1000, 2}, -2, 2, rand.New(rand.NewSource(1)), backend)
	y, err := models.Predict(model, x)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{1000, 1}, y.Shape())

	lo, hi := float32(1), float32(0)
	for _, v := range y.Data() {
		lo, hi = min(lo, v), max(hi, v)
	}
	assert.GreaterOrEqual(t, lo, float32(0))
	assert.LessOrEqual(t, hi, float32(1))
	assert.Less(t, lo, hi)
}

func TestNew_InputSizeError(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.Kind = models.KindFourier
	cfg.InitSize = 3
	_, err := models.New(cfg, cpu.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInputSize))
}

func TestSaveLoad(t *testing.T) {
	backend := cpu.New()
	cfg := models.DefaultConfig()
	cfg.Kind = models.KindFourier2D
	cfg.HiddenSize = 6
	cfg.NumHiddenLayers = 1
	cfg.Order = 2
	model, err := models.New(cfg, backend)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.mnet")
	require.NoError(t, models.Save(path, model, models.SaveOptions{RunID: "run-1"}))

	loaded, header, err := models.Load(path, backend)
	require.NoError(t, err)
	assert.Equal(t, "run-1", header.RunID)
	assert.Equal(t, models.KindFourier2D, loaded.Kind())

	x, err := tensor.FromSlice([]float32{0.1, -0.3, 0.5, 0.7}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	want, err := models.Predict(model, x)
	require.NoError(t, err)
	got, err := models.Predict(loaded, x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Data(), got.Data(), 1e-6)
}

func TestLinearMap_DefaultDomain(t *testing.T) {
	m, err := models.NewCenteredLinearMap(models.DefaultDomain(), nil, cpu.New())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Scale()[0], 1e-12)
	assert.InDelta(t, 0.75, m.Offset()[0], 1e-12)
}

package dataset_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mandelnet/internal/backend/cpu"
	"github.com/born-ml/mandelnet/internal/dataset"
	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/parallel"
	"github.com/born-ml/mandelnet/internal/tensor"
)

func TestMembership(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want float32
	}{
		{"origin", 0, 0, 1},
		{"minus one", -1, 0, 1},
		{"tip", -2, 0, 1},
		{"main cardioid", -0.1, 0.1, 1},
		{"right of set", 0.5, 0, 0},
		{"far away", 2, 2, 0},
		{"above set", 0, 1.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dataset.Membership(tt.x, tt.y, dataset.DefaultMaxDepth))
		})
	}
}

func TestMandelbrotDataSet(t *testing.T) {
	cfg := dataset.DefaultConfig()
	cfg.Seed = 3
	d, err := dataset.MandelbrotDataSet(5000, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5000, d.Len())

	dom := models.DefaultDomain()
	for i := range d.Len() {
		x, y, label := d.Point(i)
		require.GreaterOrEqual(t, float64(x), dom.XMin)
		require.Less(t, float64(x), dom.XMax)
		require.GreaterOrEqual(t, float64(y), dom.YMin)
		require.Less(t, float64(y), dom.YMax)
		require.Equal(t, dataset.Membership(float64(x), float64(y), cfg.MaxDepth), label)
	}

	// The set covers roughly a fifth of the default domain.
	assert.InDelta(t, 0.2, d.InsideFraction(), 0.1)
}

func TestMandelbrotDataSet_ParallelMatchesSequential(t *testing.T) {
	cfg := dataset.DefaultConfig()
	cfg.Parallel = parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16}
	a, err := dataset.MandelbrotDataSet(1000, cfg)
	require.NoError(t, err)

	cfg.Parallel = parallel.Sequential()
	b, err := dataset.MandelbrotDataSet(1000, cfg)
	require.NoError(t, err)

	for i := range a.Len() {
		ax, ay, al := a.Point(i)
		bx, by, bl := b.Point(i)
		require.Equal(t, [3]float32{ax, ay, al}, [3]float32{bx, by, bl})
	}
}

func TestMandelbrotDataSet_Errors(t *testing.T) {
	_, err := dataset.MandelbrotDataSet(0, dataset.DefaultConfig())
	assert.Error(t, err)

	cfg := dataset.DefaultConfig()
	cfg.MaxDepth = 0
	_, err = dataset.MandelbrotDataSet(10, cfg)
	assert.Error(t, err)

	cfg = dataset.DefaultConfig()
	cfg.Domain.XMax = cfg.Domain.XMin
	_, err = dataset.MandelbrotDataSet(10, cfg)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestBatches(t *testing.T) {
	d, err := dataset.MandelbrotDataSet(2500, dataset.DefaultConfig())
	require.NoError(t, err)

	batches := d.Batches(1000, rand.New(rand.NewSource(1)))
	require.Len(t, batches, 3)
	assert.Equal(t, 1000, batches[0].Size())
	assert.Equal(t, 500, batches[2].Size())

	// Every point appears exactly once.
	seen := make(map[[2]float32]int)
	for _, b := range batches {
		require.Len(t, b.Inputs, 2*b.Size())
		for i := range b.Size() {
			seen[[2]float32{b.Inputs[2*i], b.Inputs[2*i+1]}]++
		}
	}
	total := 0
	for _, c := range seen {
		total += c
	}
	assert.Equal(t, 2500, total)

	ordered := d.Batches(0, nil)
	require.Len(t, ordered, 1)
	x, y, label := d.Point(7)
	assert.Equal(t, []float32{x, y}, ordered[0].Inputs[14:16])
	assert.Equal(t, label, ordered[0].Targets[7])
}

func TestTensors(t *testing.T) {
	d, err := dataset.MandelbrotDataSet(10, dataset.DefaultConfig())
	require.NoError(t, err)
	b := d.Batches(4, nil)[0]

	inputs, targets, err := dataset.Tensors(b, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 2}, inputs.Shape())
	assert.Equal(t, tensor.Shape{4, 1}, targets.Shape())
	assert.Equal(t, b.Targets, targets.Data())
}

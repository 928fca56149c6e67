// Package dataset generates labelled Mandelbrot training points.
//
// Points are drawn uniformly from a domain rectangle and labelled 1 when
// the escape-time iteration z = z² + c stays bounded for MaxDepth steps,
// 0 otherwise.
package dataset

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/parallel"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// DefaultMaxDepth is the default escape-time iteration limit.
const DefaultMaxDepth = 50

// Config controls point sampling and labelling.
type Config struct {
	Domain   models.Domain   `yaml:"domain"`
	MaxDepth int             `yaml:"max_depth"`
	Seed     int64           `yaml:"seed"`
	Parallel parallel.Config `yaml:"-"`
}

// DefaultConfig samples the default model domain with depth 50.
func DefaultConfig() Config {
	return Config{
		Domain:   models.DefaultDomain(),
		MaxDepth: DefaultMaxDepth,
		Parallel: parallel.DefaultConfig(),
	}
}

// DataSet holds N labelled points in memory.
type DataSet struct {
	inputs []float32 // [N, 2] row-major
	labels []float32 // [N]
	cfg    Config
}

// MandelbrotDataSet samples size points and labels them.
func MandelbrotDataSet(size int, cfg Config) (*DataSet, error) {
	if size <= 0 {
		return nil, errors.Errorf("dataset size must be positive, got %d", size)
	}
	if cfg.MaxDepth <= 0 {
		return nil, errors.Errorf("max depth must be positive, got %d", cfg.MaxDepth)
	}
	if err := cfg.Domain.Validate(); err != nil {
		return nil, err
	}

	//nolint:gosec // Sampling, not cryptography.
	rng := rand.New(rand.NewSource(cfg.Seed))
	d := &DataSet{
		inputs: make([]float32, 2*size),
		labels: make([]float32, size),
		cfg:    cfg,
	}
	dom := cfg.Domain
	for i := range size {
		d.inputs[2*i] = float32(dom.XMin + rng.Float64()*(dom.XMax-dom.XMin))
		d.inputs[2*i+1] = float32(dom.YMin + rng.Float64()*(dom.YMax-dom.YMin))
	}
	parallel.ForRange(size, func(start, end int) {
		for i := start; i < end; i++ {
			d.labels[i] = Membership(float64(d.inputs[2*i]), float64(d.inputs[2*i+1]), cfg.MaxDepth)
		}
	}, cfg.Parallel)
	return d, nil
}

// Membership returns 1 if c = x+iy stays within |z| <= 2 for maxDepth
// iterations of z = z² + c starting at 0, and 0 otherwise.
func Membership(x, y float64, maxDepth int) float32 {
	var zr, zi float64
	for range maxDepth {
		zr, zi = zr*zr-zi*zi+x, 2*zr*zi+y
		if zr*zr+zi*zi > 4 {
			return 0
		}
	}
	return 1
}

// Len returns the number of points.
func (d *DataSet) Len() int { return len(d.labels) }

// Point returns the i-th coordinate and its label.
func (d *DataSet) Point(i int) (x, y, label float32) {
	return d.inputs[2*i], d.inputs[2*i+1], d.labels[i]
}

// InsideFraction returns the share of points labelled inside.
func (d *DataSet) InsideFraction() float64 {
	var inside float64
	for _, l := range d.labels {
		inside += float64(l)
	}
	return inside / float64(len(d.labels))
}

// Config returns the sampling configuration.
func (d *DataSet) Config() Config { return d.cfg }

// Batch is a mini-batch of coordinates and labels.
type Batch struct {
	Inputs  []float32 // [Size, 2]
	Targets []float32 // [Size, 1]
}

// Size returns the number of points in the batch.
func (b Batch) Size() int { return len(b.Targets) }

// Tensors copies the batch into [Size, 2] inputs and [Size, 1] targets.
func Tensors[B tensor.Backend](b Batch, backend B) (inputs, targets *tensor.Tensor[float32, B], err error) {
	if inputs, err = tensor.FromSlice(b.Inputs, tensor.Shape{b.Size(), 2}, backend); err != nil {
		return nil, nil, errors.Wrap(err, "batch inputs")
	}
	if targets, err = tensor.FromSlice(b.Targets, tensor.Shape{b.Size(), 1}, backend); err != nil {
		return nil, nil, errors.Wrap(err, "batch targets")
	}
	return inputs, targets, nil
}

// Batches shuffles the points with rng and splits them into batches of
// batchSize; the last batch may be smaller. A nil rng keeps dataset order.
func (d *DataSet) Batches(batchSize int, rng *rand.Rand) []Batch {
	n := d.Len()
	if batchSize <= 0 {
		batchSize = n
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	batches := make([]Batch, 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		b := Batch{
			Inputs:  make([]float32, 0, 2*(end-start)),
			Targets: make([]float32, 0, end-start),
		}
		for _, idx := range order[start:end] {
			b.Inputs = append(b.Inputs, d.inputs[2*idx], d.inputs[2*idx+1])
			b.Targets = append(b.Targets, d.labels[idx])
		}
		batches = append(batches, b)
	}
	return batches
}

// Package render turns a trained regressor into grayscale images of the
// complex plane.
package render

import (
	"image"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/autodiff"
	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/parallel"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Config frames the rendered view. The horizontal range is [XMin, XMax];
// the vertical range is centred on YOffset with the image's aspect ratio.
type Config struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	XMin    float64 `yaml:"xmin"`
	XMax    float64 `yaml:"xmax"`
	YOffset float64 `yaml:"yoffset"`

	// Supersample renders k times larger and downsamples with a Lanczos filter.
	Supersample int `yaml:"supersample"`

	// RowsPerBatch is the number of image rows evaluated per forward pass.
	RowsPerBatch int             `yaml:"rows_per_batch"`
	Parallel     parallel.Config `yaml:"-"`
}

// DefaultConfig renders the whole set at 304x304.
func DefaultConfig() Config {
	return Config{
		Width:        304,
		Height:       304,
		XMin:         -2.5,
		XMax:         1.0,
		Supersample:  1,
		RowsPerBatch: 16,
		Parallel:     parallel.DefaultConfig(),
	}
}

// Validate checks the view parameters.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("image size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.XMax <= c.XMin {
		return errors.Errorf("xmax (%g) must be greater than xmin (%g)", c.XMax, c.XMin)
	}
	if c.Supersample < 0 || c.RowsPerBatch < 0 {
		return errors.New("supersample and rows_per_batch must be non-negative")
	}
	return nil
}

// YRange returns the vertical extent implied by the aspect ratio.
func (c Config) YRange() (ymin, ymax float64) {
	half := (c.XMax - c.XMin) * float64(c.Height) / float64(c.Width) / 2
	return c.YOffset - half, c.YOffset + half
}

// Pixel returns the plane coordinate of pixel (px, py). Row 0 is the top
// of the image, at the largest y.
func (c Config) Pixel(px, py int) (x, y float64) {
	ymin, ymax := c.YRange()
	return lerp(c.XMin, c.XMax, px, c.Width), lerp(ymax, ymin, py, c.Height)
}

func lerp(from, to float64, i, n int) float64 {
	if n == 1 {
		return (from + to) / 2
	}
	return from + (to-from)*float64(i)/float64(n-1)
}

// Grid returns the coordinates of rows [rowStart, rowEnd) as a row-major
// [(rowEnd-rowStart)*Width, 2] slice.
func (c Config) Grid(rowStart, rowEnd int) []float32 {
	coords := make([]float32, 0, 2*(rowEnd-rowStart)*c.Width)
	for py := rowStart; py < rowEnd; py++ {
		for px := range c.Width {
			x, y := c.Pixel(px, py)
			coords = append(coords, float32(x), float32(y))
		}
	}
	return coords
}

// Generate evaluates model on every pixel and maps each score s to the gray
// level round(255*s). Row batches are evaluated concurrently, so backend must
// not be recording gradients.
func Generate[B tensor.Backend](model models.Regressor[B], backend B, cfg Config) (*image.Gray, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if isRecording(backend) {
		return nil, errors.New("render: backend is recording gradients; stop the tape first")
	}

	scale := max(cfg.Supersample, 1)
	view := cfg
	view.Width, view.Height = cfg.Width*scale, cfg.Height*scale
	rows := cfg.RowsPerBatch
	if rows <= 0 {
		rows = view.Height
	}

	img := image.NewGray(image.Rect(0, 0, view.Width, view.Height))
	numBatches := (view.Height + rows - 1) / rows
	var (
		mu       sync.Mutex
		firstErr error
	)
	parallel.For(numBatches, func(b int) {
		start, end := b*rows, min((b+1)*rows, view.Height)
		err := renderRows(model, backend, view, img, start, end)
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}, batchParallelism(cfg.Parallel))
	if firstErr != nil {
		return nil, firstErr
	}

	if scale == 1 {
		return img, nil
	}
	return toGray(imaging.Resize(img, cfg.Width, cfg.Height, imaging.Lanczos)), nil
}

func renderRows[B tensor.Backend](model models.Regressor[B], backend B, view Config, img *image.Gray, start, end int) error {
	n := (end - start) * view.Width
	x, err := tensor.FromSlice(view.Grid(start, end), tensor.Shape{n, 2}, backend)
	if err != nil {
		return errors.Wrap(err, "render: building grid")
	}
	scores, err := models.Predict(model, x)
	if err != nil {
		return errors.Wrap(err, "render")
	}
	copy(img.Pix[start*img.Stride:], grayLevels(scores.Data()))
	return nil
}

// grayLevels maps [0,1] scores to 8-bit intensities.
func grayLevels(scores []float32) []uint8 {
	pix := make([]uint8, len(scores))
	for i, s := range scores {
		v := math.Round(float64(s) * 255)
		pix[i] = uint8(min(max(v, 0), 255))
	}
	return pix
}

// batchParallelism runs every row batch on its own worker when enabled.
func batchParallelism(cfg parallel.Config) parallel.Config {
	cfg.MinChunkSize = 1
	return cfg
}

func isRecording[B tensor.Backend](backend B) bool {
	if owner, ok := any(backend).(autodiff.BackwardCapable); ok {
		return owner.GetTape().IsRecording()
	}
	return false
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		for x := range b.Dx() {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			gray.Pix[y*gray.Stride+x] = uint8(r >> 8)
		}
	}
	return gray
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "saving image to %s", path)
	}
	return nil
}

package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/tensor"
	"github.com/born-ml/mandelnet/internal/train"
)

// FramePattern names captured frames inside the capture directory.
const FramePattern = "frame_%06d.png"

// Capturer is a training hook that renders the model every CaptureRate
// steps and writes the frames as numbered PNG files.
//
// Hooks run after the tape has stopped recording, so frames are rendered
// on the training backend itself.
type Capturer[B tensor.Backend] struct {
	Dir         string
	CaptureRate int
	Config      Config

	backend B
	frames  int
}

// NewCapturer creates dir if needed. Frame numbering starts at 0.
func NewCapturer[B tensor.Backend](dir string, width, height, captureRate int, backend B) (*Capturer[B], error) {
	if captureRate <= 0 {
		return nil, errors.Errorf("capture rate must be positive, got %d", captureRate)
	}
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = width, height
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "creating capture directory %s", dir)
	}
	return &Capturer[B]{Dir: dir, CaptureRate: captureRate, Config: cfg, backend: backend}, nil
}

// Frames returns the number of frames written so far.
func (c *Capturer[B]) Frames() int {
	return c.frames
}

// OnStep implements train.StepHook.
func (c *Capturer[B]) OnStep(ctx context.Context, step train.Step, model models.Regressor[B]) error {
	if step.Step%c.CaptureRate != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := Generate(model, c.backend, c.Config)
	if err != nil {
		return errors.Wrapf(err, "capturing frame at step %d", step.Step)
	}
	path := filepath.Join(c.Dir, fmt.Sprintf(FramePattern, c.frames))
	if err := Save(img, path); err != nil {
		return err
	}
	c.frames++
	klog.V(2).Infof("captured %s (epoch %d, step %d, loss %.5f)", path, step.Epoch+1, step.Step, step.Loss)
	return nil
}

var _ train.StepHook[tensor.Backend] = (*Capturer[tensor.Backend])(nil)

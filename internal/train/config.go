package train

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Optimizer names accepted in Config.Optimizer.
const (
	OptimizerAdam = "adam"
	OptimizerSGD  = "sgd"
)

// Config controls a training run.
type Config struct {
	Epochs    int     `yaml:"epochs"`
	BatchSize int     `yaml:"batch_size"`
	Optimizer string  `yaml:"optimizer"` // "adam" or "sgd"
	LR        float32 `yaml:"lr"`        // 0 selects the optimizer default
	Momentum  float32 `yaml:"momentum"`  // SGD only
	Seed      int64   `yaml:"seed"`      // Batch shuffling seed

	// CheckpointPath, if set, receives the model after every epoch.
	CheckpointPath string `yaml:"checkpoint_path,omitempty"`

	// ResumeFrom, if set, restores weights, optimizer state and progress
	// from a checkpoint before training. Epochs counts the epochs already
	// completed there. Resuming with the same Seed replays the same batches.
	ResumeFrom string `yaml:"resume_from,omitempty"`

	// ShowProgress draws a progress bar on ProgressWriter (os.Stderr if nil).
	ShowProgress   bool      `yaml:"show_progress"`
	ProgressWriter io.Writer `yaml:"-"`
}

// DefaultConfig trains for 10 epochs of 1000-point batches with Adam.
func DefaultConfig() Config {
	return Config{
		Epochs:    10,
		BatchSize: 1000,
		Optimizer: OptimizerAdam,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	switch strings.ToLower(c.Optimizer) {
	case OptimizerAdam, OptimizerSGD:
	default:
		return errors.Errorf("unknown optimizer %q (want %q or %q)", c.Optimizer, OptimizerAdam, OptimizerSGD)
	}
	if c.LR < 0 {
		return errors.Errorf("lr must be non-negative, got %g", c.LR)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return errors.Errorf("momentum must be in [0, 1), got %g", c.Momentum)
	}
	return nil
}

// Package train fits a regressor to a Mandelbrot dataset.
//
// Each step runs forward, MSE loss, backward and an optimizer update on one
// mini-batch, strictly in that order: the autodiff tape and the parameters
// have a single writer.
package train

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/born-ml/mandelnet/internal/autodiff"
	"github.com/born-ml/mandelnet/internal/dataset"
	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/nn"
	"github.com/born-ml/mandelnet/internal/optim"
	"github.com/born-ml/mandelnet/internal/serialization"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Step describes a finished optimization step.
type Step struct {
	RunID string
	Epoch int     // 0-based epoch
	Step  int     // 1-based global step
	Loss  float64 // Batch loss before the update
}

// StepHook is called after every optimization step, with the tape idle.
// Returning an error stops training.
type StepHook[B tensor.Backend] interface {
	OnStep(ctx context.Context, step Step, model models.Regressor[B]) error
}

// StepHookFunc adapts a function to StepHook.
type StepHookFunc[B tensor.Backend] func(ctx context.Context, step Step, model models.Regressor[B]) error

// OnStep implements StepHook.
func (f StepHookFunc[B]) OnStep(ctx context.Context, step Step, model models.Regressor[B]) error {
	return f(ctx, step, model)
}

// Result summarizes a training run.
type Result struct {
	RunID       string
	Epochs      int       // Completed epochs
	Steps       int       // Completed steps
	FinalLoss   float64   // Mean loss of the last completed epoch
	EpochLosses []float64 // Mean loss per completed epoch
	Duration    time.Duration
}

// Train fits model to data. The backend must be the one model was built on.
//
// Cancelling ctx stops training between steps; the partial Result is
// returned along with the context error.
func Train[B autodiff.BackwardCapable](ctx context.Context, model models.Regressor[B], backend B,
	data *dataset.DataSet, cfg Config, hooks ...StepHook[B]) (result Result, err error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, errors.Wrap(err, "invalid training config")
	}
	opt := newOptimizer(cfg, model.Parameters())
	lossFn := nn.NewMSELoss[B]()
	//nolint:gosec // Shuffling, not cryptography.
	rng := rand.New(rand.NewSource(cfg.Seed))

	result.RunID = uuid.NewString()
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()
	if cfg.ResumeFrom != "" {
		if err := resume(cfg, model, backend, opt, &result); err != nil {
			return result, err
		}
		for range result.Epochs {
			rng.Shuffle(data.Len(), func(int, int) {})
		}
	}

	stepsPerEpoch := (data.Len() + cfg.BatchSize - 1) / cfg.BatchSize
	klog.Infof("training run %s: %s model, %s parameters, %s points, %d epochs x %d steps, %s",
		result.RunID, model.Kind(), humanize.Comma(int64(models.NumParameters(model))),
		humanize.Comma(int64(data.Len())), cfg.Epochs, stepsPerEpoch, strings.ToLower(cfg.Optimizer))

	var bar *progressbar.ProgressBar
	if cfg.ShowProgress {
		bar = newProgressBar(cfg, max(cfg.Epochs-result.Epochs, 0)*stepsPerEpoch)
		defer func() { _ = bar.Finish() }()
	}

	tape := backend.GetTape()
	for epoch := result.Epochs; epoch < cfg.Epochs; epoch++ {
		var epochLoss float64
		batches := data.Batches(cfg.BatchSize, rng)
		for _, batch := range batches {
			if err := ctx.Err(); err != nil {
				klog.Warningf("training run %s cancelled after %d steps", result.RunID, result.Steps)
				return result, errors.Wrap(err, "training cancelled")
			}

			inputs, targets, err := dataset.Tensors(batch, backend)
			if err != nil {
				return result, err
			}

			var loss *tensor.Tensor[float32, B]
			var grads map[*tensor.RawTensor]*tensor.RawTensor
			tape.StartRecording()
			err = exceptions.TryCatch[error](func() {
				loss = lossFn.Forward(model.Forward(inputs), targets)
				grads = autodiff.Backward(loss, backend)
			})
			tape.StopRecording()
			tape.Clear()
			if err != nil {
				return result, errors.Wrapf(err, "step %d", result.Steps+1)
			}

			opt.Step(grads)
			opt.ZeroGrad()

			result.Steps++
			lossValue := float64(loss.Item())
			epochLoss += lossValue
			if bar != nil {
				bar.Describe(fmt.Sprintf("epoch %d/%d loss %.4f", epoch+1, cfg.Epochs, lossValue))
				_ = bar.Add(1)
			}

			step := Step{RunID: result.RunID, Epoch: epoch, Step: result.Steps, Loss: lossValue}
			for _, hook := range hooks {
				if err := hook.OnStep(ctx, step, model); err != nil {
					return result, errors.Wrapf(err, "step hook at step %d", step.Step)
				}
			}
		}

		result.Epochs++
		result.FinalLoss = epochLoss / float64(len(batches))
		result.EpochLosses = append(result.EpochLosses, result.FinalLoss)
		klog.V(1).Infof("epoch %d/%d: loss %.6f", epoch+1, cfg.Epochs, result.FinalLoss)

		if cfg.CheckpointPath != "" {
			if err := saveCheckpoint(cfg, model, opt, result); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

func newOptimizer[B tensor.Backend](cfg Config, params []*nn.Parameter[B]) optim.Optimizer {
	if strings.ToLower(cfg.Optimizer) == OptimizerSGD {
		return optim.NewSGD(params, optim.SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum})
	}
	return optim.NewAdam(params, optim.AdamConfig{LR: cfg.LR})
}

func newProgressBar(cfg Config, steps int) *progressbar.ProgressBar {
	w := cfg.ProgressWriter
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(steps,
		progressbar.OptionSetDescription("Training"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("steps"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func saveCheckpoint[B tensor.Backend](cfg Config, model models.Regressor[B], opt optim.Optimizer, result Result) error {
	err := serialization.SaveModel(cfg.CheckpointPath, model, serialization.SaveOptions{
		RunID: result.RunID,
		Checkpoint: &serialization.CheckpointMeta{
			Epoch:     result.Epochs,
			Step:      int64(result.Steps),
			Loss:      result.FinalLoss,
			Optimizer: strings.ToLower(cfg.Optimizer),
			LR:        float64(opt.GetLR()),
		},
		OptimizerState: opt.StateDict(),
	})
	if err != nil {
		return errors.Wrap(err, "checkpoint")
	}
	if info, err := os.Stat(cfg.CheckpointPath); err == nil {
		klog.V(1).Infof("checkpoint %s written (%s)", cfg.CheckpointPath, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// resume loads the checkpoint at cfg.ResumeFrom into model and opt and
// records the progress it reached in result.
func resume[B tensor.Backend](cfg Config, model models.Regressor[B], backend B, opt optim.Optimizer, result *Result) error {
	ckpt, err := serialization.LoadCheckpoint(cfg.ResumeFrom, backend)
	if err != nil {
		return errors.Wrap(err, "resume")
	}
	meta := ckpt.Header.Checkpoint
	if meta == nil {
		return errors.Errorf("resume: %s is not a training checkpoint", cfg.ResumeFrom)
	}
	if want := strings.ToLower(cfg.Optimizer); meta.Optimizer != want {
		return errors.Errorf("resume: checkpoint was trained with %s, not %s", meta.Optimizer, want)
	}
	if err := model.LoadStateDict(ckpt.Model.StateDict()); err != nil {
		return errors.Wrap(err, "resume: checkpoint does not match the model")
	}
	if err := opt.LoadStateDict(ckpt.OptimizerState); err != nil {
		return errors.Wrap(err, "resume: optimizer state")
	}

	if ckpt.Header.RunID != "" {
		result.RunID = ckpt.Header.RunID
	}
	result.Epochs = meta.Epoch
	result.Steps = int(meta.Step)
	result.FinalLoss = meta.Loss
	klog.Infof("resuming run %s from %s at epoch %d, step %d", result.RunID, cfg.ResumeFrom, meta.Epoch, meta.Step)
	return nil
}

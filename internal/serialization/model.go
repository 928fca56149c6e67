package serialization

import (
	"maps"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// OptimizerPrefix marks optimizer state tensors stored next to model weights.
const OptimizerPrefix = "optimizer:"

// SaveOptions configures SaveModel.
type SaveOptions struct {
	WriteOptions
	RunID      string            // Training run identifier, recorded in the header
	Metadata   map[string]string // Free-form metadata
	Checkpoint *CheckpointMeta   // Training state, if saving mid-training

	// OptimizerState is stored under OptimizerPrefix so that training can
	// resume where it stopped.
	OptimizerState map[string]*tensor.RawTensor
}

// SaveModel writes model's weights and configuration to path.
func SaveModel[B tensor.Backend](path string, model models.Regressor[B], opts SaveOptions) error {
	header := Header{
		RunID:      opts.RunID,
		Model:      model.Config(),
		Metadata:   opts.Metadata,
		Checkpoint: opts.Checkpoint,
	}
	stateDict := model.StateDict()
	if len(opts.OptimizerState) > 0 {
		stateDict = maps.Clone(stateDict)
		for name, raw := range opts.OptimizerState {
			stateDict[OptimizerPrefix+name] = raw
		}
	}
	if err := WriteFile(path, stateDict, header, opts.WriteOptions); err != nil {
		return errors.Wrapf(err, "saving %s model to %s", model.Kind(), path)
	}
	return nil
}

// Checkpoint is a model restored together with the optimizer state saved
// alongside it.
type Checkpoint[B tensor.Backend] struct {
	Model          models.Regressor[B]
	Header         Header
	OptimizerState map[string]*tensor.RawTensor // Empty if none was saved
}

// LoadCheckpoint rebuilds the model stored at path on backend and returns
// the optimizer state found in the file.
func LoadCheckpoint[B tensor.Backend](path string, backend B) (*Checkpoint[B], error) {
	stateDict, header, err := ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading model from %s", path)
	}
	optState := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if rest, ok := strings.CutPrefix(name, OptimizerPrefix); ok {
			optState[rest] = raw
			delete(stateDict, name)
		}
	}

	model, err := models.New(header.Model, backend)
	if err != nil {
		return nil, errors.Wrapf(err, "rebuilding %s model", header.Model.Kind)
	}
	if err := model.LoadStateDict(stateDict); err != nil {
		return nil, errors.Wrapf(err, "restoring %s weights", header.Model.Kind)
	}
	return &Checkpoint[B]{Model: model, Header: header, OptimizerState: optState}, nil
}

// LoadModel rebuilds the model stored at path on backend. Optimizer state,
// if any, is ignored.
func LoadModel[B tensor.Backend](path string, backend B) (models.Regressor[B], Header, error) {
	ckpt, err := LoadCheckpoint(path, backend)
	if err != nil {
		return nil, Header{}, err
	}
	return ckpt.Model, ckpt.Header, nil
}

// Package config loads experiment files that describe a full training and
// rendering run.
//
// An experiment file is YAML with one section per stage:
//
//	model:
//	  kind: skipconn
//	  hidden_size: 50
//	  num_hidden_layers: 5
//	  linmap: {xmin: -2.5, xmax: 1.0, ymin: -1.1, ymax: 1.1}
//	dataset:
//	  size: 50000
//	train:
//	  epochs: 10
//	  optimizer: adam
//	render:
//	  width: 304
//	  height: 304
//	capture:
//	  dir: frames
//	  rate: 10
//
// Omitted fields keep their defaults. Unknown fields are rejected.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/mandelnet/internal/dataset"
	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/render"
	"github.com/born-ml/mandelnet/internal/train"
)

// Dataset sizes the training set.
type Dataset struct {
	Size           int `yaml:"size"`
	dataset.Config `yaml:",inline"`
}

// Capture enables frame capture during training when Dir is set.
type Capture struct {
	Dir    string `yaml:"dir"`
	Rate   int    `yaml:"rate"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Enabled reports whether frames should be captured.
func (c Capture) Enabled() bool { return c.Dir != "" }

// Experiment is the content of an experiment file.
type Experiment struct {
	Model   models.Config `yaml:"model"`
	Dataset Dataset       `yaml:"dataset"`
	Train   train.Config  `yaml:"train"`
	Render  render.Config `yaml:"render"`
	Capture Capture       `yaml:"capture"`

	// Output is where the final image is written.
	Output string `yaml:"output"`
	// ModelPath, if set, receives the trained model.
	ModelPath string `yaml:"model_path,omitempty"`
}

// Default mirrors the reference Mandelbrot run: a 50/5 SkipConn trained on
// 50k points and rendered at 304x304.
func Default() Experiment {
	model := models.DefaultConfig()
	model.HiddenSize = 50
	model.NumHiddenLayers = 5
	model.LinMap = &models.LinMapConfig{Domain: models.DefaultDomain()}

	return Experiment{
		Model:   model,
		Dataset: Dataset{Size: 50_000, Config: dataset.DefaultConfig()},
		Train:   train.DefaultConfig(),
		Render:  render.DefaultConfig(),
		Capture: Capture{Rate: 10, Width: 96, Height: 96},
		Output:  "mandelbrot.png",
	}
}

// Parse decodes an experiment on top of Default and validates it.
func Parse(data []byte) (Experiment, error) {
	exp := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&exp); err != nil && !errors.Is(err, io.EOF) {
		return Experiment{}, errors.Wrap(err, "decoding experiment")
	}
	if err := exp.Validate(); err != nil {
		return Experiment{}, err
	}
	return exp, nil
}

// Load reads and parses an experiment file.
func Load(path string) (Experiment, error) {
	//nolint:gosec // G304: path is chosen by the caller.
	data, err := os.ReadFile(path)
	if err != nil {
		return Experiment{}, errors.Wrapf(err, "reading experiment %s", path)
	}
	exp, err := Parse(data)
	if err != nil {
		return Experiment{}, errors.Wrapf(err, "experiment %s", path)
	}
	return exp, nil
}

// Validate checks every section.
func (e Experiment) Validate() error {
	if err := e.Model.Validate(); err != nil {
		return errors.Wrap(err, "model")
	}
	if e.Dataset.Size <= 0 {
		return errors.Errorf("dataset: size must be positive, got %d", e.Dataset.Size)
	}
	if e.Dataset.MaxDepth <= 0 {
		return errors.Errorf("dataset: max_depth must be positive, got %d", e.Dataset.MaxDepth)
	}
	if err := e.Dataset.Domain.Validate(); err != nil {
		return errors.Wrap(err, "dataset")
	}
	if err := e.Train.Validate(); err != nil {
		return errors.Wrap(err, "train")
	}
	if err := e.Render.Validate(); err != nil {
		return errors.Wrap(err, "render")
	}
	if e.Capture.Enabled() && (e.Capture.Rate <= 0 || e.Capture.Width <= 0 || e.Capture.Height <= 0) {
		return errors.New("capture: rate, width and height must be positive")
	}
	return nil
}

// Save writes the experiment as YAML.
func (e Experiment) Save(path string) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encoding experiment")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "writing experiment %s", path)
	}
	return nil
}

package models

import "github.com/pkg/errors"

// Construction errors. Callers can test for them with errors.Is.
var (
	// ErrInvalidConfig reports hyperparameters that cannot describe a network.
	ErrInvalidConfig = errors.New("invalid model config")

	// ErrDeviceUnavailable reports an accelerator request the backend cannot serve.
	ErrDeviceUnavailable = errors.New("accelerator device not available")

	// ErrInputSize reports an input width a feature expansion does not support.
	ErrInputSize = errors.New("unsupported input size")
)

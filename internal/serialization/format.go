package serialization

import (
	"time"

	"github.com/born-ml/mandelnet/internal/models"
	"github.com/born-ml/mandelnet/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "MNET"
	FormatVersion   = 1
	HeaderAlignment = 64   // Align tensor data to 64 bytes
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Storage data type names.
const (
	DTypeFloat16 = "float16"
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
)

// Flags for the .mnet format.
const (
	FlagHasMetadata   uint32 = 1 << 0 // bit 0: custom metadata included
	FlagFloat16       uint32 = 1 << 1 // bit 1: tensors stored in half precision
	FlagHasCheckpoint uint32 = 1 << 2 // bit 2: training state included
)

// Header represents the JSON header of a .mnet file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ID            string            `json:"id"`     // Unique file identifier (UUID)
	RunID         string            `json:"run_id"` // Training run that produced the weights
	Model         models.Config     `json:"model"`  // Hyperparameters needed to rebuild the model
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta contains training state at the time of saving.
type CheckpointMeta struct {
	Epoch     int     `json:"epoch"`
	Step      int64   `json:"step"`
	Loss      float64 `json:"loss"`
	Optimizer string  `json:"optimizer"`
	LR        float64 `json:"lr"`
}

// TensorMeta describes a tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Parameter name (e.g., "hidden.0.weight")
	DType  string `json:"dtype"`  // Storage type: "float16", "float32" or "float64"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to its storage name.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	default:
		return "unknown"
	}
}

// storageSize returns the byte width of a storage type.
func storageSize(dtype string) (int, bool) {
	switch dtype {
	case DTypeFloat16:
		return 2, true
	case DTypeFloat32:
		return 4, true
	case DTypeFloat64:
		return 8, true
	default:
		return 0, false
	}
}

// loadedDType is the in-memory type of a tensor stored as dtype.
func loadedDType(dtype string) tensor.DataType {
	if dtype == DTypeFloat64 {
		return tensor.Float64
	}
	return tensor.Float32
}

// alignedPadding returns the padding after pos up to HeaderAlignment.
func alignedPadding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}

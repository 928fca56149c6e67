package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// WriteOptions controls how tensors are stored.
type WriteOptions struct {
	// Float16 stores float32 tensors in half precision, halving their size.
	// Float64 tensors are always stored at full precision.
	Float16 bool
}

// WriteTo writes stateDict to w in .mnet format.
//
// Header fields Tensors, FormatVersion and CreatedAt are filled in; an empty
// ID gets a fresh UUID. Tensors are written in name order.
func WriteTo(w io.Writer, stateDict map[string]*tensor.RawTensor, header Header, opts WriteOptions) error {
	header.FormatVersion = FormatVersion
	header.CreatedAt = time.Now().UTC()
	if header.ID == "" {
		header.ID = uuid.NewString()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	// Encode tensor data and build the tensor table.
	header.Tensors = make([]TensorMeta, 0, len(names))
	var data []byte
	for _, name := range names {
		raw := stateDict[name]
		dtype := dtypeToString(raw.DType())
		if opts.Float16 && raw.DType() == tensor.Float32 {
			dtype = DTypeFloat16
		}
		offset := int64(len(data))
		var err error
		if data, err = encodeTensor(data, raw, dtype); err != nil {
			return errors.Wrapf(err, "tensor %s", name)
		}
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  []int(raw.Shape().Clone()),
			Offset: offset,
			Size:   int64(len(data)) - offset,
		})
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if opts.Float16 {
		flags |= FlagFloat16
	}
	if header.Checkpoint != nil {
		flags |= FlagHasCheckpoint
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	// 0x0C-0x0F reserved.
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	checksum := ComputeChecksum(data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := alignedPadding(int64(FixedHeaderSize + len(headerJSON)))
	for _, chunk := range [][]byte{fixed, headerJSON, make([]byte, padding), data} {
		if _, err := w.Write(chunk); err != nil {
			return errors.Wrap(err, "failed to write model")
		}
	}
	return nil
}

// WriteFile writes stateDict to path, replacing any existing file.
func WriteFile(path string, stateDict map[string]*tensor.RawTensor, header Header, opts WriteOptions) (err error) {
	//nolint:gosec // G304: path is chosen by the caller.
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()
	return WriteTo(file, stateDict, header, opts)
}

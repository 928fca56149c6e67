package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// ReadFrom reads a .mnet stream, validating the header and the checksum.
// Tensors are returned on the CPU.
func ReadFrom(r io.Reader) (map[string]*tensor.RawTensor, Header, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, Header{}, errors.Wrap(err, "failed to read fixed header")
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, Header{}, errors.Wrapf(ErrInvalidMagic, "got %q, expected %q", string(fixed[0:4]), MagicBytes)
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, Header{}, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", version, FormatVersion)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var stored [32]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, Header{}, ErrHeaderTooLarge
	}
	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, Header{}, errors.Wrap(err, "failed to read header")
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, Header{}, errors.Wrap(err, "failed to parse header JSON")
	}
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize.
	padding := alignedPadding(int64(FixedHeaderSize) + int64(headerSize))
	if _, err := io.CopyN(io.Discard, r, padding); err != nil {
		return nil, Header{}, errors.Wrap(err, "failed to read padding")
	}

	//nolint:gosec // G115: the data section is bounded by the tensor table checked below.
	if err := ValidateHeader(&header, int64(dataSize)); err != nil {
		return nil, Header{}, errors.Wrap(err, "validation failed")
	}
	var covered uint64
	for _, meta := range header.Tensors {
		covered += uint64(meta.Size)
	}
	if covered != dataSize {
		return nil, Header{}, &ValidationError{
			Type:    "size_mismatch",
			Details: fmt.Sprintf("tensors cover %d bytes, data section has %d", covered, dataSize),
		}
	}
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, Header{}, errors.Wrap(err, "failed to read tensor data")
	}
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, Header{}, err
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		raw, err := decodeTensor(meta, data[meta.Offset:meta.Offset+meta.Size])
		if err != nil {
			return nil, Header{}, err
		}
		stateDict[meta.Name] = raw
	}
	return stateDict, header, nil
}

// ReadFile reads a .mnet file.
func ReadFile(path string) (map[string]*tensor.RawTensor, Header, error) {
	//nolint:gosec // G304: path is chosen by the caller.
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()
	return ReadFrom(bufio.NewReader(file))
}

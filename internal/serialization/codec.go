package serialization

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/born-ml/mandelnet/internal/tensor"
)

// encodeTensor appends raw's values to buf in the given storage type.
func encodeTensor(buf []byte, raw *tensor.RawTensor, dtype string) ([]byte, error) {
	switch dtype {
	case DTypeFloat16:
		for _, v := range raw.Float64s() {
			buf = binary.LittleEndian.AppendUint16(buf, float16.Fromfloat32(float32(v)).Bits())
		}
	case DTypeFloat32:
		for _, v := range raw.AsFloat32() {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	case DTypeFloat64:
		for _, v := range raw.AsFloat64() {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	default:
		return nil, errors.Wrap(ErrUnsupportedDType, dtype)
	}
	return buf, nil
}

// decodeTensor builds a CPU tensor from its stored bytes.
func decodeTensor(meta TensorMeta, data []byte) (*tensor.RawTensor, error) {
	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), loadedDType(meta.DType), tensor.CPU)
	if err != nil {
		return nil, errors.Wrapf(err, "tensor %s", meta.Name)
	}
	switch meta.DType {
	case DTypeFloat16:
		out := raw.AsFloat32()
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(data[2*i:])).Float32()
		}
	case DTypeFloat32:
		out := raw.AsFloat32()
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}
	case DTypeFloat64:
		out := raw.AsFloat64()
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
		}
	default:
		return nil, errors.Wrap(ErrUnsupportedDType, meta.DType)
	}
	return raw, nil
}

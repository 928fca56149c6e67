package serialization

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 16 * 1024 * 1024 // 16MB - maximum header size
	MaxTensorCount   = 10_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 256              // Maximum tensor name length
)

// ValidateTensorOffsets checks for overlapping tensor offsets and out-of-bounds access.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Offset != sorted[j].Offset {
			return sorted[i].Offset < sorted[j].Offset
		}
		return sorted[i].Size < sorted[j].Size // empty tensors first
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}
	return nil
}

// ValidateTensorName rejects empty, oversized and path-like names.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains path separator, '..' or null byte",
		}
	}
	return nil
}

// shapeElements returns the element count of t's shape, rejecting negative
// dimensions and products above limit.
func shapeElements(t TensorMeta, limit int64) (int64, error) {
	for _, d := range t.Shape {
		if d < 0 {
			return 0, &ValidationError{Type: "invalid_shape", Tensor: t.Name, Details: fmt.Sprint(t.Shape)}
		}
	}
	if slices.Contains(t.Shape, 0) {
		return 0, nil
	}
	elements := int64(1)
	for _, d := range t.Shape {
		if int64(d) > limit/elements {
			return 0, &ValidationError{
				Type:    "invalid_shape",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v exceeds the data section", t.Shape),
			}
		}
		elements *= int64(d)
	}
	return elements, nil
}

// ValidateHeader checks the tensor table against the data section.
func ValidateHeader(h *Header, dataSize int64) error {
	seen := make(map[string]bool, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return &ValidationError{Type: "duplicate_name", Tensor: t.Name, Details: "listed twice"}
		}
		seen[t.Name] = true

		width, ok := storageSize(t.DType)
		if !ok {
			return &ValidationError{Type: "invalid_dtype", Tensor: t.Name, Details: t.DType}
		}
		elements, err := shapeElements(t, dataSize/int64(width))
		if err != nil {
			return err
		}
		if elements*int64(width) != t.Size {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v of %s needs %d bytes, header says %d", t.Shape, t.DType, elements*int64(width), t.Size),
			}
		}
	}
	return ValidateTensorOffsets(h.Tensors, dataSize)
}

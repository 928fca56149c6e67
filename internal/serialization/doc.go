// Package serialization provides the .mnet format for saving and loading
// trained regressors.
//
//	Format Structure:
//	  0x00 [4 bytes: Magic "MNET"]
//	  0x04 [4 bytes: Version (uint32 LE)]
//	  0x08 [4 bytes: Flags (uint32 LE)]
//	  0x0C [4 bytes: Reserved]
//	  0x10 [8 bytes: Header Size (uint64 LE)]
//	  0x18 [8 bytes: Data Size (uint64 LE)]
//	  0x20 [32 bytes: SHA-256 of the tensor data]
//	  0x40 [Header: JSON, model config + tensor table + metadata]
//	       [Tensor data: little-endian, 64-byte aligned]
//
// Tensors are stored as float32 or float64, or as IEEE 754 half precision
// when saved with Float16 set; half precision tensors load back as float32.
//
// Example usage:
//
//	err := serialization.SaveModel("mandelbrot.mnet", model, serialization.SaveOptions{})
//
//	model, header, err := serialization.LoadModel("mandelbrot.mnet", backend)
package serialization

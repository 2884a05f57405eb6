package common

import (
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// AlignTo4 returns data padded with zeros to a length that is a non-zero multiple of four.
// Queue writes and buffer sizes must satisfy COPY_BUFFER_ALIGNMENT. The input is returned
// unchanged when it is already aligned.
//
// Parameters:
//   - data: the bytes to align
//
// Returns:
//   - []byte: data, or an aligned copy of it
func AlignTo4(data []byte) []byte {
	n := len(data)
	if n > 0 && n%4 == 0 {
		return data
	}
	padded := (n + 3) &^ 3
	if padded == 0 {
		padded = 4
	}
	out := make([]byte, padded)
	copy(out, data)
	return out
}

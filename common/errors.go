package common

import "errors"

var (
	ErrUnsupportedOutputFormat = errors.New("unsupported output format, expected RGBA8UnormSrgb or BGRA8UnormSrgb")
	ErrSystemTextureUnset      = errors.New("system texture has not been set")
	ErrTextureNotAllocated     = errors.New("user texture was never allocated")
	ErrTextureFreed            = errors.New("user texture is not resident")
	ErrInvalidTexture          = errors.New("invalid texture description")
	ErrBuffersNotUploaded      = errors.New("mesh buffers have not been uploaded")
	ErrSlotOutOfRange          = errors.New("buffer slot out of range")
)

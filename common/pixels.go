package common

import "fmt"

// Channels reports how many bytes per pixel the texture's pixel data carries.
// It returns ErrInvalidTexture when the dimensions are empty or the pixel
// length matches neither a coverage nor an sRGBA layout.
//
// Returns:
//   - int: 1 for coverage data, 4 for sRGBA data
//   - error: non-nil when the description is malformed
func (t Texture) Channels() (int, error) {
	if t.Width <= 0 || t.Height <= 0 {
		return 0, fmt.Errorf("%w: size %dx%d", ErrInvalidTexture, t.Width, t.Height)
	}
	n := t.Width * t.Height
	switch len(t.Pixels) {
	case n:
		return 1, nil
	case n * 4:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidTexture, len(t.Pixels), t.Width, t.Height)
}

// CoverageToSRGBA expands single-channel coverage into premultiplied white sRGBA.
// dst must hold 4*len(src) bytes.
//
// Parameters:
//   - dst: destination sRGBA bytes
//   - src: coverage bytes, one per pixel
func CoverageToSRGBA(dst, src []byte) {
	for i, a := range src {
		o := i * 4
		dst[o], dst[o+1], dst[o+2], dst[o+3] = a, a, a, a
	}
}

// PackColor packs premultiplied sRGBA components into the vertex color layout.
func PackColor(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// Premultiply scales straight-alpha sRGBA components by alpha and packs them.
func Premultiply(r, g, b, a uint8) uint32 {
	mul := func(c uint8) uint8 {
		return uint8((uint32(c)*uint32(a) + 127) / 255)
	}
	return PackColor(mul(r), mul(g), mul(b), a)
}

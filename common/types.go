// package common contains common types that are used throughout this backend. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types shared between the UI library and the renderer.
package common

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Pos2 is a 2D point in logical (DPI-independent) coordinates.
type Pos2 struct {
	X, Y float32
}

// Rect is an axis-aligned rectangle described by its minimum and maximum corners.
type Rect struct {
	Min Pos2
	Max Pos2
}

// NewRect builds a Rect from its corner coordinates.
func NewRect(minX, minY, maxX, maxY float32) Rect {
	return Rect{Min: Pos2{X: minX, Y: minY}, Max: Pos2{X: maxX, Y: maxY}}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float32 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float32 { return r.Max.Y - r.Min.Y }

// Vertex is a single UI vertex as laid out in the vertex buffer.
// The struct is 20 bytes with no padding so a []Vertex can be uploaded as-is.
type Vertex struct {
	// Pos is the position in logical points.
	Pos [2]float32
	// UV is the normalized texture coordinate.
	UV [2]float32
	// Color is a packed premultiplied sRGBA color with red in the lowest byte.
	Color uint32
}

// VertexStride is the byte size of a single Vertex.
const VertexStride = 20

// TextureKind discriminates the two texture reference variants.
type TextureKind int

const (
	// TextureKindSystem references the UI library's own texture (fonts and built-in icons).
	TextureKindSystem TextureKind = iota

	// TextureKindUser references a texture allocated by the embedding application.
	TextureKindUser
)

// TextureID references the texture a mesh samples from. The zero value is the system texture.
type TextureID struct {
	Kind TextureKind
	ID   uint64
}

// SystemTexture returns the reference to the system texture.
func SystemTexture() TextureID {
	return TextureID{Kind: TextureKindSystem}
}

// UserTexture returns the reference to the user texture with the given id.
func UserTexture(id uint64) TextureID {
	return TextureID{Kind: TextureKindUser, ID: id}
}

// IsUser reports whether the reference points at a user texture.
func (t TextureID) IsUser() bool {
	return t.Kind == TextureKindUser
}

func (t TextureID) String() string {
	if t.Kind == TextureKindUser {
		return fmt.Sprintf("User(%d)", t.ID)
	}
	return "System"
}

// Mesh is an indexed triangle list sharing a single texture.
type Mesh struct {
	Indices  []uint32
	Vertices []Vertex
	Texture  TextureID
}

// ClippedMesh pairs a mesh with the logical rectangle outside of which it must not be drawn.
type ClippedMesh struct {
	ClipRect Rect
	Mesh     Mesh
}

// ScreenDescriptor describes the render target for a frame.
type ScreenDescriptor struct {
	// PhysicalWidth is the width of the target in physical pixels.
	PhysicalWidth uint32
	// PhysicalHeight is the height of the target in physical pixels.
	PhysicalHeight uint32
	// ScaleFactor is the number of physical pixels per logical point. Must be greater than zero.
	ScaleFactor float32
}

// LogicalSize returns the size of the target in logical points, truncated to whole points.
//
// Returns:
//   - uint32: the logical width
//   - uint32: the logical height
func (s ScreenDescriptor) LogicalSize() (uint32, uint32) {
	w := float32(s.PhysicalWidth) / s.ScaleFactor
	h := float32(s.PhysicalHeight) / s.ScaleFactor
	return uint32(w), uint32(h)
}

// Texture describes the system texture as handed over by the UI library.
type Texture struct {
	// Version changes whenever the contents change.
	Version uint64
	// Width is the width of the texture in pixels.
	Width int
	// Height is the height of the texture in pixels.
	Height int
	// Pixels is either Width*Height single-channel coverage bytes or Width*Height*4 premultiplied sRGBA bytes.
	Pixels []byte
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// It is the payload of a queued user texture allocation.
type TextureStagingData struct {
	// Pixels is the premultiplied sRGBA pixel data, 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// BytesPerRow returns the row pitch of the staged pixel data.
func (t TextureStagingData) BytesPerRow() uint32 {
	if t.Height == 0 {
		return 0
	}
	return uint32(len(t.Pixels)) / t.Height
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
}

// LinearSampler returns the clamped, linearly filtered sampler used for all UI textures.
func LinearSampler() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
	}
}

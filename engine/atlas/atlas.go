// Package atlas builds the textures an immediate-mode UI hands to the renderer: a bitmap font
// atlas as the system texture and premultiplied images for user textures.
package atlas

import (
	"image"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cellWidth  = 8
	cellHeight = 14
	columns    = 16

	firstRune = ' '
	lastRune  = '~'
)

// WhiteRune keys the fully covered cell in the glyph map. Untextured shapes sample it.
const WhiteRune rune = 0

// FontAtlas rasterises printable ASCII from the 7x13 basic font into a single-channel
// coverage texture. Cell 0 is solid white, glyphs follow in code point order.
//
// Parameters:
//   - version: the texture version, bump it to force a re-upload
//
// Returns:
//   - common.Texture: the coverage texture
//   - map[rune]common.Rect: the uv rectangle of each glyph cell and of WhiteRune
func FontAtlas(version uint64) (common.Texture, map[rune]common.Rect) {
	cells := int(lastRune-firstRune) + 2
	rows := (cells + columns - 1) / columns
	width, height := columns*cellWidth, rows*cellHeight

	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
	}

	glyphs := make(map[rune]common.Rect, cells)
	cell := func(i int) image.Rectangle {
		x, y := (i%columns)*cellWidth, (i/columns)*cellHeight
		return image.Rect(x, y, x+cellWidth, y+cellHeight)
	}
	uv := func(r image.Rectangle) common.Rect {
		return common.NewRect(
			float32(r.Min.X)/float32(width), float32(r.Min.Y)/float32(height),
			float32(r.Max.X)/float32(width), float32(r.Max.Y)/float32(height),
		)
	}

	white := cell(0)
	draw.Draw(mask, white, image.Opaque, image.Point{}, draw.Src)
	glyphs[WhiteRune] = uv(white)

	for r := firstRune; r <= lastRune; r++ {
		c := cell(int(r-firstRune) + 1)
		drawer.Dot = fixed.P(c.Min.X, c.Min.Y+ascent)
		drawer.DrawString(string(r))
		glyphs[r] = uv(c)
	}

	return common.Texture{
		Version: version,
		Width:   width,
		Height:  height,
		Pixels:  mask.Pix,
	}, glyphs
}

// ImageToPremultiplied converts any image into premultiplied sRGBA8 staging data.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - common.TextureStagingData: the pixels, 4 bytes per pixel with alpha premultiplied
func ImageToPremultiplied(img image.Image) common.TextureStagingData {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}

// Downscale shrinks img so neither side exceeds maxSide, keeping the aspect ratio.
// Images that already fit are returned unchanged.
//
// Parameters:
//   - img: the source image
//   - maxSide: the largest allowed width or height in pixels
//
// Returns:
//   - image.Image: the scaled image
func Downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

package atlas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFontAtlas(t *testing.T) {
	tex, glyphs := FontAtlas(7)

	assert.Equal(t, uint64(7), tex.Version)
	assert.Equal(t, 128, tex.Width)
	assert.Equal(t, 84, tex.Height)
	require.Len(t, tex.Pixels, tex.Width*tex.Height)
	channels, err := tex.Channels()
	require.NoError(t, err)
	assert.Equal(t, 1, channels)

	assert.Len(t, glyphs, 96)
	for r, uv := range glyphs {
		assert.GreaterOrEqual(t, uv.Min.X, float32(0), string(r))
		assert.LessOrEqual(t, uv.Max.X, float32(1), string(r))
		assert.LessOrEqual(t, uv.Max.Y, float32(1), string(r))
		assert.Greater(t, uv.Width(), float32(0))
	}

	// the white cell is fully covered
	for y := 0; y < cellHeight; y++ {
		for x := 0; x < cellWidth; x++ {
			assert.Equal(t, byte(255), tex.Pixels[y*tex.Width+x])
		}
	}

	coverage := func(r rune) int {
		uv := glyphs[r]
		x0, y0 := int(uv.Min.X*float32(tex.Width)), int(uv.Min.Y*float32(tex.Height))
		sum := 0
		for y := y0; y < y0+cellHeight; y++ {
			for x := x0; x < x0+cellWidth; x++ {
				sum += int(tex.Pixels[y*tex.Width+x])
			}
		}
		return sum
	}
	assert.Zero(t, coverage(' '))
	assert.Positive(t, coverage('A'))
	assert.Positive(t, coverage('~'))
}

func TestImageToPremultiplied(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	img.SetNRGBA(5, 5, color.NRGBA{R: 255, G: 0, B: 0, A: 128})
	img.SetNRGBA(6, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	staged := ImageToPremultiplied(img)
	assert.Equal(t, uint32(2), staged.Width)
	assert.Equal(t, uint32(1), staged.Height)
	assert.Equal(t, uint32(8), staged.BytesPerRow())
	assert.Equal(t, []byte{128, 0, 0, 128, 10, 20, 30, 255}, staged.Pixels)
}

func TestDownscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Equal(t, image.Rect(0, 0, 20, 10), Downscale(img, 20).Bounds())
	assert.Same(t, img, Downscale(img, 100))

	tall := image.NewRGBA(image.Rect(0, 0, 10, 400))
	assert.Equal(t, image.Rect(0, 0, 1, 40), Downscale(tall, 40).Bounds())
}

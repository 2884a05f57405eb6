package renderer

import (
	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/chewxy/math32"
)

// ScissorRect is a scissor rectangle in physical pixels.
type ScissorRect struct {
	X, Y, Width, Height uint32
}

// PhysicalScissor converts a logical clip rectangle into the scissor rectangle that is applied
// to the render pass. The rectangle is scaled to physical pixels, clamped to the target, rounded,
// grown to at least one pixel, and finally cut so it never extends past the target edge.
//
// Parameters:
//   - clip: the clip rectangle in logical points
//   - screen: the render target description
//
// Returns:
//   - ScissorRect: the scissor rectangle
//   - bool: false if the rectangle is empty and the mesh must be skipped
func PhysicalScissor(clip common.Rect, screen common.ScreenDescriptor) (ScissorRect, bool) {
	pw := float32(screen.PhysicalWidth)
	ph := float32(screen.PhysicalHeight)
	s := screen.ScaleFactor

	minX := clampf(clip.Min.X*s, 0, pw)
	minY := clampf(clip.Min.Y*s, 0, ph)
	maxX := clampf(clip.Max.X*s, minX, pw)
	maxY := clampf(clip.Max.Y*s, minY, ph)

	// all values are non-negative here
	x0, y0 := uint32(round(minX)), uint32(round(minY))
	x1, y1 := uint32(round(maxX)), uint32(round(maxY))

	w := max(1, x1-x0)
	h := max(1, y1-y0)

	x := min(x0, screen.PhysicalWidth)
	y := min(y0, screen.PhysicalHeight)
	w = min(w, screen.PhysicalWidth-x)
	h = min(h, screen.PhysicalHeight-y)

	rect := ScissorRect{X: x, Y: y, Width: w, Height: h}
	return rect, w > 0 && h > 0
}

func clampf(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(v, hi))
}

func round(v float32) float32 {
	return math32.Floor(v + 0.5)
}

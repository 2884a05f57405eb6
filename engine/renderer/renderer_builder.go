package renderer

import (
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithOutputFormat sets the format of the render targets passed to Execute.
// NewRenderer fails unless it is BGRA8UnormSrgb (the default) or RGBA8UnormSrgb.
//
// Parameters:
//   - format: the render target format
//
// Returns:
//   - RendererBuilderOption: a function that applies the output format option to a renderer
func WithOutputFormat(format wgpu.TextureFormat) RendererBuilderOption {
	return func(r *renderer) {
		r.outputFormat = format
	}
}

// WithLogger sets the logger the renderer and its stores report on. A renderer id field is attached to it.
//
// Parameters:
//   - l: the logger, ignored when nil
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(l *log.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithParallelThreshold sets the coverage texture size, in pixels, from which the system texture
// conversion is split across workers.
//
// Parameters:
//   - pixels: the threshold in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the threshold option to a renderer
func WithParallelThreshold(pixels int) RendererBuilderOption {
	return func(r *renderer) {
		r.parallelThreshold = pixels
	}
}

// WithWorkers sets the number of workers used for the system texture conversion.
// Zero keeps the default of one less than the CPU count.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the workers option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.workers = n
	}
}

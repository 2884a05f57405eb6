package texture_cache

import "github.com/charmbracelet/log"

// TextureCacheBuilderOption is a functional option used to configure a TextureCache during construction.
type TextureCacheBuilderOption func(*textureCache)

// WithParallelThreshold sets the coverage pixel count above which conversion runs on the worker pool.
//
// Parameters:
//   - pixels: the threshold in pixels; values <= 0 keep the default
//
// Returns:
//   - TextureCacheBuilderOption: a function that sets the threshold
func WithParallelThreshold(pixels int) TextureCacheBuilderOption {
	return func(c *textureCache) {
		if pixels > 0 {
			c.parallelThreshold = pixels
		}
	}
}

// WithWorkers sets how many workers split a large conversion.
//
// Parameters:
//   - n: the worker count; values < 1 keep the default
//
// Returns:
//   - TextureCacheBuilderOption: a function that sets the worker count
func WithWorkers(n int) TextureCacheBuilderOption {
	return func(c *textureCache) {
		if n >= 1 {
			c.workers = n
		}
	}
}

// WithLabel sets the debug label of the system texture resources.
func WithLabel(label string) TextureCacheBuilderOption {
	return func(c *textureCache) {
		c.label = label
	}
}

// WithLogger sets the logger rebuilds are reported on.
func WithLogger(l *log.Logger) TextureCacheBuilderOption {
	return func(c *textureCache) {
		if l != nil {
			c.logger = l
		}
	}
}

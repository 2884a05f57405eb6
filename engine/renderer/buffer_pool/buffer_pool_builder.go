package buffer_pool

import "github.com/charmbracelet/log"

// BufferPoolBuilderOption is a functional option used to configure a BufferPool during construction.
type BufferPoolBuilderOption func(*bufferPool)

// WithLabelPrefix sets the prefix of every buffer label created by the pool.
//
// Parameters:
//   - prefix: the label prefix, "egui" by default
//
// Returns:
//   - BufferPoolBuilderOption: a function that sets the label prefix
func WithLabelPrefix(prefix string) BufferPoolBuilderOption {
	return func(p *bufferPool) {
		p.prefix = prefix
	}
}

// WithLogger sets the logger growth events are reported on.
//
// Parameters:
//   - l: the logger, usually the owning renderer's tagged logger
//
// Returns:
//   - BufferPoolBuilderOption: a function that sets the logger
func WithLogger(l *log.Logger) BufferPoolBuilderOption {
	return func(p *bufferPool) {
		if l != nil {
			p.logger = l
		}
	}
}

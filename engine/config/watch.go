package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file whenever it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(Config)
	logger   *log.Logger
}

// WatcherOption is a functional option used to configure a Watcher during construction.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger reloads and skipped files are reported on.
func WithWatcherLogger(l *log.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher starts watching the directory containing path, so replacing the file counts as a change.
//
// Parameters:
//   - path: the configuration file
//   - onChange: called with every successfully reloaded configuration
//   - opts: a variadic list of options to configure the watcher
//
// Returns:
//   - *Watcher: the watcher, call Run to start delivering changes
//   - error: if the directory cannot be watched
func NewWatcher(path string, onChange func(Config), opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}
	w := &Watcher{path: abs, watcher: fw, onChange: onChange, logger: common.Logger().WithPrefix("config")}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run delivers reloads until ctx is cancelled. Invalid files are logged and skipped,
// the previous configuration stays in effect.
//
// Parameters:
//   - ctx: cancels the watch
//
// Returns:
//   - error: nil after cancellation
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != w.path || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config reload skipped", "path", w.path, "err", err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			w.onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher", "err", err)
		}
	}
}

// Watch is NewWatcher followed by Run.
func Watch(ctx context.Context, path string, onChange func(Config), opts ...WatcherOption) error {
	w, err := NewWatcher(path, onChange, opts...)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

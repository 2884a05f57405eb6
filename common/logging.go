package common

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

func getLogger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy-ui",
		})
		logger.SetLevel(log.InfoLevel)
	})
	return logger
}

// Logger returns the shared backend logger. Use With to attach per-instance fields.
func Logger() *log.Logger {
	return getLogger()
}

// SetLogLevel parses and applies a level name ("debug", "info", "warn", "error").
// Unknown names leave the level unchanged and return the parse error.
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	getLogger().SetLevel(lvl)
	return nil
}

// SetLogOutput redirects the shared logger, mainly so tests can silence it.
func SetLogOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

// LogDebug and the other LogX helpers are printf-style. Use Logger() for key/value pairs.
func LogDebug(msg string, args ...any) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...any) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...any) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...any) {
	getLogger().Errorf(msg, args...)
}

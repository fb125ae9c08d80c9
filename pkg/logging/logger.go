// Package logging builds the zerolog loggers used across plantmap.
// Terminals get console output and everything else gets JSON lines.
//
//	logger := logging.NewLoggerFromConfig(&logging.Config{Level: "debug", Format: "json"})
//	logger.Info().Int("page", 3).Str("query", "rose").Msg("Fetching catalog page")
//
// Components take a *zerolog.Logger option and fall back to Default.
package logging

import (
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	logger := NewLoggerFromConfig(EnvConfig())
	defaultLogger.Store(&logger)
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
}

// OrDefault returns logger, or Default when it is nil.
func OrDefault(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		return Default()
	}
	return logger
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

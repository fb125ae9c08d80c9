package app

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{"default", &Config{}, "info"},
		{"verbose", &Config{Verbose: true}, "debug"},
		{"quiet", &Config{Quiet: true}, "warn"},
		{"verbose and quiet", &Config{Verbose: true, Quiet: true}, "warn"},
		{"explicit beats verbose", &Config{LogLevel: "error", Verbose: true}, "error"},
		{"explicit beats quiet", &Config{LogLevel: "trace", Quiet: true}, "trace"},
		{"invalid explicit falls back", &Config{LogLevel: "loud", Verbose: true}, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, determineLogLevel(tt.config))
		})
	}
}

func TestValidateLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		assert.Equal(t, level, validateLogLevel(level))
	}
	for _, level := range []string{"", "WARN", "fatal", "verbose"} {
		assert.Equal(t, "info", validateLogLevel(level))
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(&Config{LogLevel: "warn", LogFormat: "json", LogOutput: "discard"})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger = NewLogger(&Config{Verbose: true, LogFormat: "json", LogOutput: "discard"})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestResolveLevelWarnings(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, "info", resolveLevel(&Config{LogLevel: "loud"}, &buf))
	assert.Contains(t, buf.String(), `"loud"`)

	buf.Reset()
	assert.Equal(t, "warn", resolveLevel(&Config{Verbose: true, Quiet: true}, &buf))
	assert.Contains(t, buf.String(), "--quiet wins")

	buf.Reset()
	assert.Equal(t, "debug", resolveLevel(&Config{Verbose: true}, &buf))
	assert.Empty(t, buf.String())
}

package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/pkg/constants"
)

// Config describes a logger.
type Config struct {
	// Level is trace, debug, info, warn (or warning), error, or off.
	// Anything else means info.
	Level string

	// Format is json, console, or auto. Auto picks console only when
	// writing to a terminal.
	Format string

	// Output is stderr, stdout, discard, or a file path to append to.
	Output string

	// NoColor turns off console colors.
	NoColor bool

	// AddCaller records file:line. Debug and trace always do.
	AddCaller bool

	// Fields are attached to every event.
	Fields map[string]any
}

// DefaultConfig is info level, auto format, on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// EnvConfig is DefaultConfig overridden by LOG_LEVEL, LOG_FORMAT and
// LOG_OUTPUT. DEBUG set with no LOG_LEVEL means debug.
func EnvConfig() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	} else if os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	return cfg
}

// NewLoggerFromConfig builds a logger. A nil cfg means DefaultConfig. An
// output file that cannot be opened falls back to stderr.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := parseLevel(cfg.Level)

	ctx := zerolog.New(cfg.writer()).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	for k, v := range cfg.Fields {
		ctx = ctx.Interface(k, v)
	}
	return ctx.Logger()
}

func (cfg *Config) writer() io.Writer {
	var out *os.File
	switch strings.ToLower(cfg.Output) {
	case "discard", "none":
		return io.Discard
	case "stdout":
		out = os.Stdout
	case "", "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return out
	case "console", "pretty":
	default:
		if !isTerminal(out) {
			return out
		}
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.NoColor}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "none", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

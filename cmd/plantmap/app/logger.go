package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/pkg/logging"
)

// cliLevels are the levels accepted by --log-level and LOG_LEVEL.
var cliLevels = map[string]zerolog.Level{
	"trace": zerolog.TraceLevel,
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

// NewLogger builds the CLI logger. An explicit level wins over -v and -q;
// with neither the level is info. Caller locations are added at debug and
// below.
func NewLogger(config *Config) zerolog.Logger {
	level := resolveLevel(config, os.Stderr)

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = config.LogFormat
	cfg.Output = config.LogOutput
	cfg.NoColor = config.NoColor
	cfg.AddCaller = cliLevels[level] <= zerolog.DebugLevel
	return logging.NewLoggerFromConfig(cfg)
}

func determineLogLevel(config *Config) string {
	return resolveLevel(config, io.Discard)
}

// resolveLevel picks the effective level and reports conflicting or
// unusable settings to warn.
func resolveLevel(config *Config, warn io.Writer) string {
	switch {
	case config.LogLevel != "":
		level := validateLogLevel(config.LogLevel)
		if level != config.LogLevel {
			fmt.Fprintf(warn, "Warning: unknown log level %q, falling back to %q\n", config.LogLevel, level)
		}
		return level
	case config.Verbose && config.Quiet:
		fmt.Fprintln(warn, "Warning: --verbose and --quiet both set, --quiet wins")
		return "warn"
	case config.Verbose:
		return "debug"
	case config.Quiet:
		return "warn"
	}
	return "info"
}

// validateLogLevel returns level if the CLI accepts it, otherwise "info".
func validateLogLevel(level string) string {
	if _, ok := cliLevels[level]; ok {
		return level
	}
	return "info"
}

package app

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool   `mapstructure:"verbose"`
	Quiet   bool   `mapstructure:"quiet"`
	NoColor bool   `mapstructure:"no-color"`
	Format  string `mapstructure:"format" validate:"omitempty,oneof=table json yaml wide"`

	// Config file
	ConfigFile string `mapstructure:"-"`

	// Storage
	DataDir     string `mapstructure:"data_dir" validate:"required"`
	StoreDriver string `mapstructure:"store_driver" validate:"oneof=bolt sqlite"`

	// Remote catalog
	PerenualAPIKey  string `mapstructure:"perenual_api_key"`
	PerenualBaseURL string `mapstructure:"perenual_base_url" validate:"required,url"`

	// Detail lookup
	PlantbookClientID     string `mapstructure:"plantbook_client_id"`
	PlantbookClientSecret string `mapstructure:"plantbook_client_secret"`
	PlantbookBaseURL      string `mapstructure:"plantbook_base_url" validate:"required,url"`

	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"gte=0"`

	// Logging configuration
	LogLevel  string `mapstructure:"-"`
	LogFormat string `mapstructure:"-"`
	LogOutput string `mapstructure:"-"`
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.plantmap.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New(), "")
}

func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v.SetDefault("data_dir", constants.DefaultDataDir)
	v.SetDefault("store_driver", "bolt")
	v.SetDefault("perenual_base_url", constants.PerenualBaseURL)
	v.SetDefault("plantbook_base_url", constants.PlantbookBaseURL)
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Unmarshal only sees keys viper knows about, so bind every key the
	// environment may supply.
	for _, key := range []string{
		"verbose", "quiet", "no-color", "format",
		"perenual_api_key", "plantbook_client_id", "plantbook_client_secret",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.NewConfigError("env", "binding "+key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".plantmap")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config file", "reading "+configFile, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}); err != nil {
		return nil, errors.NewConfigError("config", "decoding", err)
	}

	config.ConfigFile = v.ConfigFileUsed()
	config.LogLevel = os.Getenv("LOG_LEVEL")
	config.LogFormat = getEnvOrDefault("LOG_FORMAT", "auto")
	config.LogOutput = getEnvOrDefault("LOG_OUTPUT", "stderr")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.NewValidationError(fe.Field(), fe.Value(), "failed "+fe.Tag()+" check")
		}
		return errors.NewConfigError("config", "validation", err)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		// godotenv.Load never overrides, so the first file wins.
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

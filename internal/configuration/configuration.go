package configuration

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DotEnvFile is read from the working directory, when present, before environment
// overrides are applied. Variables already set in the environment win.
const DotEnvFile = ".env"

// EnvPrefix prefixes environment variables overriding file values,
// e.g. CHANGERISK_SERVER_ADDRESS overrides server.address.
const EnvPrefix = "CHANGERISK"

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger: logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Server: HTTP server configuration
	Server ServerConfig `mapstructure:"server"`
	// Scorecard: scorecard document and reload settings
	Scorecard ScorecardConfig `mapstructure:"scorecard"`
	// Validation: input validation settings
	Validation ValidationConfig `mapstructure:"validation"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level: log level: debug, info, warn, warning, error.
	// Value is case-insensitive but checked in lowercase.
	Level string `mapstructure:"level"`
	// File: optional path of a rotated log file written in addition to stdout.
	File string `mapstructure:"file"`
	// MaxSize: log file size in megabytes before rotation.
	MaxSize int `mapstructure:"max_size"`
	// MaxBackups: number of rotated files to keep.
	MaxBackups int `mapstructure:"max_backups"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address: address and port where the server will listen (e.g., ":8000").
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout: time given to in-flight requests on shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ScorecardConfig locates the scorecard document.
type ScorecardConfig struct {
	// Path: scorecard YAML document.
	Path string `mapstructure:"path"`
	// Watch: reload automatically when the document changes on disk.
	Watch bool `mapstructure:"watch"`
	// Debounce: quiet period after a file event before reloading.
	Debounce time.Duration `mapstructure:"debounce"`
	// History: number of reload attempts kept for the health endpoint.
	History int `mapstructure:"history"`
}

// ValidationConfig defines input validation parameters.
type ValidationConfig struct {
	// Schema: optional JSON Schema file replacing the built-in change input schema.
	Schema string `mapstructure:"schema"`
	// Guards: optional YAML file with CEL guard rules.
	Guards string `mapstructure:"guards"`
}

// Validate checks the correctness of the entire application configuration.
// Calls validation for each nested structure and returns the first detected error.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.Scorecard.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate checks the correctness of the logger configuration.
// Supported levels: debug, info, warn, warning, error (case-insensitive).
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	if l.File != "" && (l.MaxSize <= 0 || l.MaxBackups < 0) {
		return errors.New("logger.max_size must be positive and logger.max_backups non-negative")
	}

	return nil
}

// Validate checks the correctness of the server configuration.
func (n *ServerConfig) Validate() error {
	if n.Address == "" {
		return errors.New("server.address: must be specified")
	}

	if n.ReadTimeout <= 0 || n.WriteTimeout <= 0 {
		return errors.New("server: read_timeout and write_timeout must be positive")
	}

	return nil
}

// Validate checks the correctness of the scorecard configuration.
func (s *ScorecardConfig) Validate() error {
	if s.Path == "" {
		return errors.New("scorecard.path: must be specified")
	}

	if s.History <= 0 {
		return errors.New("scorecard.history: must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 3*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("scorecard.path", "config/scorecard.yaml")
	v.SetDefault("scorecard.watch", true)
	v.SetDefault("scorecard.debounce", 500*time.Millisecond)
	v.SetDefault("scorecard.history", 16)
	v.SetDefault("validation.schema", "")
	v.SetDefault("validation.guards", "")
}

// LoadConfig loads configuration from the specified file using Viper.
// Supports YAML format. Environment variables prefixed with CHANGERISK_ override
// values from the file; defaults fill in everything left unset.
//
// An empty configPath loads defaults and environment only. A .env file in the working
// directory is loaded into the environment first.
//
// Returns a pointer to AppConfig or an error if:
// - the file is not found or inaccessible
// - the configuration has invalid format
// - one of the sections fails validation
func LoadConfig(configPath string) (*AppConfig, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading %s: %w", DotEnvFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&config, hook); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

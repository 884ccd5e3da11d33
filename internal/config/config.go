package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// LogFormat selects the slog handler used for output.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"

	// EnvPrefixLogging is the envconfig prefix for logging overrides, e.g. SOCKGO_LOGGING_LEVEL.
	EnvPrefixLogging = "SOCKGO_LOGGING"
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string    `json:"level" envconfig:"LEVEL"`
	LogToFile bool      `json:"log_to_file" envconfig:"LOG_TO_FILE"`
	Format    LogFormat `json:"format" envconfig:"FORMAT"`
}

// AppConfig is the root persisted application configuration.
// User-facing service options are kept in the preferences database, not here.
type AppConfig struct {
	Logging LoggingConfig `json:"logging"`
}

func Default() AppConfig {
	return AppConfig{
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
			Format:    LogFormatText,
		},
	}
}

// Load reads the config file, applies environment overrides and fills defaults.
// A missing file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("decode config json: %w", err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	cfg.FillMissingDefaults()

	return cfg, nil
}

// ApplyEnv overrides config values from SOCKGO_* environment variables.
func ApplyEnv(cfg *AppConfig) error {
	if err := envconfig.Process(EnvPrefixLogging, &cfg.Logging); err != nil {
		return fmt.Errorf("apply logging env overrides: %w", err)
	}

	return nil
}

func (c *AppConfig) FillMissingDefaults() {
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = normalizeLogFormat(c.Logging.Format)
}

func normalizeLogFormat(format LogFormat) LogFormat {
	switch LogFormat(strings.ToLower(strings.TrimSpace(string(format)))) {
	case LogFormatJSON:
		return LogFormatJSON
	default:
		return LogFormatText
	}
}

func (c AppConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unsupported log format: %q", c.Logging.Format)
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}

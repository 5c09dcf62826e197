package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

const (
	EnvLogLevel  = "BYLINE_LOG_LEVEL"
	EnvLogFormat = "BYLINE_LOG_FORMAT"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// LoggingConfig controls the root logger: minimum level and handler format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Logger builds the root slog logger on stderr from the finalized config.
// Every subsystem derives its scoped logger from this one.
func (c *LoggingConfig) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}

	var handler slog.Handler
	if c.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// SlogLevel translates the configured level name to a slog.Level.
func (c *LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LoggingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

func (c *LoggingConfig) loadDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

func (c *LoggingConfig) loadEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Format = v
	}
}

func (c *LoggingConfig) validate() error {
	if !slices.Contains(logLevels, c.Level) {
		return fmt.Errorf("level must be one of %v, got %q", logLevels, c.Level)
	}
	if !slices.Contains(logFormats, c.Format) {
		return fmt.Errorf("format must be one of %v, got %q", logFormats, c.Format)
	}
	return nil
}

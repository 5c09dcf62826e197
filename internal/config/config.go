// Package config loads the byline service configuration: compiled
// defaults, an optional config.toml, an optional per-environment overlay,
// and BYLINE_* environment overrides, finalized in that order.
package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/parlorgames/byline/internal/pipeline"
	"github.com/parlorgames/byline/internal/render"
	"github.com/parlorgames/byline/internal/store"
	"github.com/parlorgames/byline/pkg/database"
	"github.com/parlorgames/byline/pkg/invoke"
	"github.com/parlorgames/byline/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvBylineEnv             = "BYLINE_ENV"
	EnvBylineShutdownTimeout = "BYLINE_SHUTDOWN_TIMEOUT"
	EnvBylineVersion         = "BYLINE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "BYLINE_DB_HOST",
	Port:            "BYLINE_DB_PORT",
	Name:            "BYLINE_DB_NAME",
	User:            "BYLINE_DB_USER",
	Password:        "BYLINE_DB_PASSWORD",
	SSLMode:         "BYLINE_DB_SSL_MODE",
	MaxOpenConns:    "BYLINE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "BYLINE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "BYLINE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "BYLINE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "BYLINE_STORAGE_CONTAINER_NAME",
	ConnectionString: "BYLINE_STORAGE_CONNECTION_STRING",
	AccountURL:       "BYLINE_STORAGE_ACCOUNT_URL",
	MaxListSize:      "BYLINE_STORAGE_MAX_LIST_SIZE",
}

var storeEnv = &store.Env{
	Driver:   "BYLINE_STORE_DRIVER",
	RedisURL: "BYLINE_STORE_REDIS_URL",
	CacheTTL: "BYLINE_STORE_CACHE_TTL",
}

var invokeEnv = &invoke.Env{
	Mode:          "BYLINE_INVOKE_MODE",
	Command:       "BYLINE_INVOKE_COMMAND",
	MaxAttempts:   "BYLINE_INVOKE_MAX_ATTEMPTS",
	BaseDelay:     "BYLINE_INVOKE_BASE_DELAY",
	MaxDelay:      "BYLINE_INVOKE_MAX_DELAY",
	ShortTimeout:  "BYLINE_INVOKE_SHORT_TIMEOUT",
	MediumTimeout: "BYLINE_INVOKE_MEDIUM_TIMEOUT",
	LongTimeout:   "BYLINE_INVOKE_LONG_TIMEOUT",
}

var renderEnv = &render.Env{
	URL:     "BYLINE_RENDER_URL",
	Timeout: "BYLINE_RENDER_TIMEOUT",
}

var pipelineEnv = &pipeline.Env{
	BatchSize:        "BYLINE_PIPELINE_BATCH_SIZE",
	BatchConcurrency: "BYLINE_PIPELINE_BATCH_CONCURRENCY",
	MaxSteps:         "BYLINE_PIPELINE_MAX_STEPS",
	MinLeakRun:       "BYLINE_PIPELINE_MIN_LEAK_RUN",
	MaxDossierPages:  "BYLINE_PIPELINE_MAX_DOSSIER_PAGES",
}

// Config is the root configuration for the byline service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Logging         LoggingConfig        `toml:"logging"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	Store           store.Config         `toml:"store"`
	Invoke          invoke.Config        `toml:"invoke"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	Render          render.Config        `toml:"render"`
	Pipeline        pipeline.Config      `toml:"pipeline"`
	API             APIConfig            `toml:"api"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the BYLINE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvBylineEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// RequiresDatabase reports whether the configured session store driver
// needs a PostgreSQL connection. The memory driver runs the service
// without one; prompt overrides and artifact rows are unavailable there.
func (c *Config) RequiresDatabase() bool {
	return c.Store.Driver == store.DriverPostgres
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Store.Merge(&overlay.Store)
	c.Invoke.Merge(&overlay.Invoke)
	c.Agent.Merge(&overlay.Agent)
	c.Render.Merge(&overlay.Render)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Store.Finalize(storeEnv); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if c.RequiresDatabase() {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Invoke.Finalize(invokeEnv); err != nil {
		return fmt.Errorf("invoke: %w", err)
	}
	if c.Invoke.Mode == invoke.ModeHTTP {
		if err := FinalizeAgent(&c.Agent); err != nil {
			return fmt.Errorf("agent: %w", err)
		}
	}
	if err := c.Render.Finalize(renderEnv); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.Pipeline.Finalize(pipelineEnv); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvBylineShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvBylineVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvBylineEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

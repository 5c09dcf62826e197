package store

import (
	"fmt"
	"os"
	"slices"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

var drivers = []string{DriverMemory, DriverPostgres}

// Config selects the session store driver and optional Redis snapshot
// cache. An empty RedisURL disables caching. Durations are strings in
// time.ParseDuration format so they can round-trip through TOML.
type Config struct {
	Driver   string `toml:"driver"`
	RedisURL string `toml:"redis_url"`
	CacheTTL string `toml:"cache_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Driver   string
	RedisURL string
	CacheTTL string
}

// Cached reports whether a Redis snapshot cache is configured.
func (c *Config) Cached() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.RedisURL != "" {
		c.RedisURL = overlay.RedisURL
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "24h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Driver != "" {
		if v := os.Getenv(env.Driver); v != "" {
			c.Driver = v
		}
	}
	if env.RedisURL != "" {
		if v := os.Getenv(env.RedisURL); v != "" {
			c.RedisURL = v
		}
	}
	if env.CacheTTL != "" {
		if v := os.Getenv(env.CacheTTL); v != "" {
			c.CacheTTL = v
		}
	}
}

func (c *Config) validate() error {
	if !slices.Contains(drivers, c.Driver) {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	return nil
}

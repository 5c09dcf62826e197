package invoke

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Backend modes.
const (
	ModeCLI  = "cli"
	ModeHTTP = "http"
)

var modes = []string{ModeCLI, ModeHTTP}

// Tier selects the timeout class for an invocation. Short covers probes and
// quick advisory checks, medium covers extraction and annotation, long covers
// full-document generation.
type Tier string

const (
	TierShort  Tier = "short"
	TierMedium Tier = "medium"
	TierLong   Tier = "long"
)

// Tiers lists all valid tier values.
var Tiers = []Tier{TierShort, TierMedium, TierLong}

// ParseTier converts a raw string into a Tier, returning ErrUnknownTier for
// values outside the enumeration.
func ParseTier(raw string) (Tier, error) {
	t := Tier(raw)
	if !slices.Contains(Tiers, t) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, raw)
	}
	return t, nil
}

// Config holds model invocation settings. Durations are strings in
// time.ParseDuration format so they can round-trip through TOML.
type Config struct {
	Mode          string   `toml:"mode"`
	Command       string   `toml:"command"`
	Args          []string `toml:"args"`
	MaxAttempts   int      `toml:"max_attempts"`
	BaseDelay     string   `toml:"base_delay"`
	MaxDelay      string   `toml:"max_delay"`
	Jitter        float64  `toml:"jitter"`
	ShortTimeout  string   `toml:"short_timeout"`
	MediumTimeout string   `toml:"medium_timeout"`
	LongTimeout   string   `toml:"long_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Mode          string
	Command       string
	MaxAttempts   string
	BaseDelay     string
	MaxDelay      string
	ShortTimeout  string
	MediumTimeout string
	LongTimeout   string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero values from overlay onto c.
func (c *Config) Merge(overlay *Config) {
	if overlay == nil {
		return
	}
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Command != "" {
		c.Command = overlay.Command
	}
	if len(overlay.Args) > 0 {
		c.Args = overlay.Args
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.BaseDelay != "" {
		c.BaseDelay = overlay.BaseDelay
	}
	if overlay.MaxDelay != "" {
		c.MaxDelay = overlay.MaxDelay
	}
	if overlay.Jitter != 0 {
		c.Jitter = overlay.Jitter
	}
	if overlay.ShortTimeout != "" {
		c.ShortTimeout = overlay.ShortTimeout
	}
	if overlay.MediumTimeout != "" {
		c.MediumTimeout = overlay.MediumTimeout
	}
	if overlay.LongTimeout != "" {
		c.LongTimeout = overlay.LongTimeout
	}
}

// TierTimeout returns the configured timeout for a tier.
func (c *Config) TierTimeout(t Tier) (time.Duration, error) {
	var raw string
	switch t {
	case TierShort:
		raw = c.ShortTimeout
	case TierMedium:
		raw = c.MediumTimeout
	case TierLong:
		raw = c.LongTimeout
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("tier %s timeout: %w", t, err)
	}
	return d, nil
}

// BaseDelayDuration returns BaseDelay as a time.Duration.
func (c *Config) BaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.BaseDelay)
	return d
}

// MaxDelayDuration returns MaxDelay as a time.Duration.
func (c *Config) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxDelay)
	return d
}

// Policy derives the retry policy shared by every external call boundary.
func (c *Config) Policy() Policy {
	return Policy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelayDuration(),
		MaxDelay:    c.MaxDelayDuration(),
		Jitter:      c.Jitter,
	}
}

func (c *Config) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModeHTTP
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay == "" {
		c.BaseDelay = "500ms"
	}
	if c.MaxDelay == "" {
		c.MaxDelay = "8s"
	}
	if c.Jitter == 0 {
		c.Jitter = 0.2
	}
	if c.ShortTimeout == "" {
		c.ShortTimeout = "30s"
	}
	if c.MediumTimeout == "" {
		c.MediumTimeout = "2m"
	}
	if c.LongTimeout == "" {
		c.LongTimeout = "5m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Mode != "" {
		if v := os.Getenv(env.Mode); v != "" {
			c.Mode = v
		}
	}
	if env.Command != "" {
		if v := os.Getenv(env.Command); v != "" {
			c.Command = v
		}
	}
	if env.MaxAttempts != "" {
		if v := os.Getenv(env.MaxAttempts); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxAttempts = n
			}
		}
	}
	if env.BaseDelay != "" {
		if v := os.Getenv(env.BaseDelay); v != "" {
			c.BaseDelay = v
		}
	}
	if env.MaxDelay != "" {
		if v := os.Getenv(env.MaxDelay); v != "" {
			c.MaxDelay = v
		}
	}
	if env.ShortTimeout != "" {
		if v := os.Getenv(env.ShortTimeout); v != "" {
			c.ShortTimeout = v
		}
	}
	if env.MediumTimeout != "" {
		if v := os.Getenv(env.MediumTimeout); v != "" {
			c.MediumTimeout = v
		}
	}
	if env.LongTimeout != "" {
		if v := os.Getenv(env.LongTimeout); v != "" {
			c.LongTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if !slices.Contains(modes, c.Mode) {
		return fmt.Errorf("mode must be one of %v, got %q", modes, c.Mode)
	}
	if c.Mode == ModeCLI && c.Command == "" {
		return fmt.Errorf("command required for cli mode")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if _, err := time.ParseDuration(c.BaseDelay); err != nil {
		return fmt.Errorf("invalid base_delay: %w", err)
	}
	if _, err := time.ParseDuration(c.MaxDelay); err != nil {
		return fmt.Errorf("invalid max_delay: %w", err)
	}
	for _, tier := range Tiers {
		if _, err := c.TierTimeout(tier); err != nil {
			return err
		}
	}
	return nil
}

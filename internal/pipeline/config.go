package pipeline

import (
	"fmt"
	"os"
	"strconv"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/pkg/batch"
)

// Revision caps per looping stage. Exceeding a cap terminates the session;
// the loops never spin.
const (
	ArcRevisionCap     = 2
	OutlineRevisionCap = 3
	ArticleRevisionCap = 3
)

// Config holds pipeline tuning: batch shape for evidence annotation, the
// engine's step backstop, the verbatim-leak run length, and the page cap
// for PDF dossier rendering.
type Config struct {
	Batch           batch.Config `toml:"batch"`
	MaxSteps        int          `toml:"max_steps"`
	MinLeakRun      int          `toml:"min_leak_run"`
	MaxDossierPages int          `toml:"max_dossier_pages"`
}

// Env maps Config fields to environment variable names.
type Env struct {
	BatchSize        string
	BatchConcurrency string
	MaxSteps         string
	MinLeakRun       string
	MaxDossierPages  string
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
	if overlay.Batch.Size != 0 {
		c.Batch.Size = overlay.Batch.Size
	}
	if overlay.Batch.Concurrency != 0 {
		c.Batch.Concurrency = overlay.Batch.Concurrency
	}
	if overlay.MaxSteps != 0 {
		c.MaxSteps = overlay.MaxSteps
	}
	if overlay.MinLeakRun != 0 {
		c.MinLeakRun = overlay.MinLeakRun
	}
	if overlay.MaxDossierPages != 0 {
		c.MaxDossierPages = overlay.MaxDossierPages
	}
}

func (c *Config) loadDefaults() {
	if c.Batch.Size == 0 {
		c.Batch.Size = 5
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 2
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = 50
	}
	if c.MinLeakRun == 0 {
		c.MinLeakRun = evidence.DefaultLeakRun
	}
	if c.MaxDossierPages == 0 {
		// Each dossier page becomes a vision image in a single request.
		c.MaxDossierPages = 12
	}
}

func (c *Config) loadEnv(env *Env) {
	setInt := func(name string, dst *int) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(env.BatchSize, &c.Batch.Size)
	setInt(env.BatchConcurrency, &c.Batch.Concurrency)
	setInt(env.MaxSteps, &c.MaxSteps)
	setInt(env.MinLeakRun, &c.MinLeakRun)
	setInt(env.MaxDossierPages, &c.MaxDossierPages)
}

func (c *Config) validate() error {
	if c.Batch.Size < 1 {
		return fmt.Errorf("invalid batch size: %d", c.Batch.Size)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("invalid batch concurrency: %d", c.Batch.Concurrency)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("invalid max_steps: %d", c.MaxSteps)
	}
	if c.MinLeakRun < 2 {
		return fmt.Errorf("invalid min_leak_run: %d", c.MinLeakRun)
	}
	if c.MaxDossierPages < 1 {
		return fmt.Errorf("invalid max_dossier_pages: %d", c.MaxDossierPages)
	}
	return nil
}

package api

import (
	"database/sql"
	"fmt"

	"github.com/parlorgames/byline/internal/artifacts"
	"github.com/parlorgames/byline/internal/config"
	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/pipeline"
	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/render"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/sessions"
	"github.com/parlorgames/byline/internal/store"
	"github.com/parlorgames/byline/pkg/invoke"
)

// Domain holds all domain systems that comprise the API. Artifacts is nil
// under the memory store driver, where no rows back the recorded renders.
type Domain struct {
	Sessions  sessions.System
	Artifacts artifacts.System
	Prompts   prompts.System
}

// NewDomain assembles the pipeline runtime and all domain systems from the
// API runtime, registering lifecycle hooks for the model backend probe and
// the session cache.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	var db *sql.DB
	if runtime.Database != nil {
		db = runtime.Database.Connection()
	}

	invoker, err := invoke.New(&cfg.Invoke, cfg.Agent, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("invoke init failed: %w", err)
	}

	validator, err := schemas.New()
	if err != nil {
		return nil, fmt.Errorf("schemas init failed: %w", err)
	}

	sessionStore, err := store.New(&cfg.Store, db, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}

	lc := runtime.Lifecycle
	lc.OnStartup(func() {
		if err := invoker.Probe(lc.Context()); err != nil {
			runtime.Logger.Error("model backend probe failed", "error", err)
		}
	})
	if cached, ok := sessionStore.(*store.Cached); ok {
		if err := cached.Start(lc); err != nil {
			return nil, fmt.Errorf("cache start failed: %w", err)
		}
	}

	var promptsSystem prompts.System
	var artifactsSystem artifacts.System
	var recorder pipeline.Recorder

	if db != nil {
		promptsSystem = prompts.New(db, runtime.Logger, runtime.Pagination)
		artifactsSystem = artifacts.New(db, runtime.Storage, runtime.Logger, runtime.Pagination)
		recorder = artifactsSystem
	} else {
		promptsSystem = prompts.NewStatic(runtime.Logger, runtime.Pagination)
	}

	rt := &pipeline.Runtime{
		Invoker:   invoker,
		Validator: validator,
		Prompts:   promptsSystem,
		Source:    evidence.NewBlobSource(runtime.Storage, runtime.Logger),
		Render:    render.NewHTTP(&cfg.Render, invoker.Policy(), runtime.Logger),
		Store:     sessionStore,
		Storage:   runtime.Storage,
		Artifacts: recorder,
		Logger:    runtime.Logger,
		Config:    &cfg.Pipeline,
	}

	return &Domain{
		Sessions:  sessions.New(db, rt, runtime.Logger, runtime.Pagination),
		Artifacts: artifactsSystem,
		Prompts:   promptsSystem,
	}, nil
}

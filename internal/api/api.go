// Package api assembles the API module: the pipeline runtime, all domain
// systems, route registration, and module middleware.
package api

import (
	"fmt"
	"net/http"

	"github.com/parlorgames/byline/internal/config"
	"github.com/parlorgames/byline/internal/infrastructure"
	"github.com/parlorgames/byline/pkg/middleware"
	"github.com/parlorgames/byline/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(cfg, runtime)
	if err != nil {
		return nil, err
	}

	verifier, err := middleware.NewVerifier(infra.Lifecycle.Context(), &cfg.API.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime, verifier)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}

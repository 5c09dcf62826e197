package main

import (
	"encoding/json"
	"net/http"

	"github.com/parlorgames/byline/internal/api"
	"github.com/parlorgames/byline/internal/config"
	"github.com/parlorgames/byline/internal/infrastructure"
	"github.com/parlorgames/byline/pkg/middleware"
	"github.com/parlorgames/byline/pkg/module"
	"github.com/parlorgames/byline/pkg/openapi"
	"github.com/parlorgames/byline/web/scalar"
)

// specPath is where the serialized OpenAPI document is served, outside
// any module prefix so the docs UI can fetch it with a root-relative URL.
const specPath = "/openapi.json"

type Modules struct {
	API  *module.Module
	Docs *module.Module
	spec []byte
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	spec, err := api.SpecJSON(cfg)
	if err != nil {
		return nil, err
	}

	docs := scalar.NewModule("/docs", specPath)
	docs.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:  apiModule,
		Docs: docs,
		spec: spec,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Docs)
	router.HandleNative("GET "+specPath, openapi.ServeSpec(m.spec))
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}

package api

import (
	"net/http"

	"github.com/parlorgames/byline/internal/config"
	"github.com/parlorgames/byline/pkg/middleware"
	"github.com/parlorgames/byline/pkg/routes"
)

// registerRoutes mounts every domain handler group. Mutating session and
// prompt routes sit behind the bearer-token verifier; read routes and the
// storage browse surface stay open.
func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
	verifier *middleware.Verifier,
) {
	auth := verifier.Auth()

	groups := []routes.Group{
		routes.Protect(domain.Sessions.Handler().Routes(), auth),
		routes.Protect(domain.Prompts.Handler().Routes(), auth),
	}

	if domain.Artifacts != nil {
		groups = append(groups, domain.Artifacts.Handler().Routes())
	}

	storageHandler := newStorageHandler(
		runtime.Storage,
		runtime.Logger,
		cfg.Storage.MaxListSize,
	)
	groups = append(groups, storageHandler.routes())

	routes.Register(mux, groups...)
}

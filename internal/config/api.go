package config

import (
	"fmt"
	"os"

	"github.com/parlorgames/byline/pkg/middleware"
	"github.com/parlorgames/byline/pkg/openapi"
	"github.com/parlorgames/byline/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "BYLINE_CORS_ENABLED",
	Origins:          "BYLINE_CORS_ORIGINS",
	AllowedMethods:   "BYLINE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "BYLINE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "BYLINE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "BYLINE_CORS_MAX_AGE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "BYLINE_AUTH_ENABLED",
	Issuer:   "BYLINE_AUTH_ISSUER",
	Audience: "BYLINE_AUTH_AUDIENCE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "BYLINE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "BYLINE_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "BYLINE_OPENAPI_TITLE",
	Description: "BYLINE_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, CORS, auth, pagination, and docs settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Auth       middleware.AuthConfig `toml:"auth"`
	Pagination pagination.Config     `toml:"pagination"`
	OpenAPI    openapi.Config        `toml:"openapi"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS, auth, pagination, and docs configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}

	c.CORS.Merge(&overlay.CORS)
	c.Auth.Merge(&overlay.Auth)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("BYLINE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
}

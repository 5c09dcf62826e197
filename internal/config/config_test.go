package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parlorgames/byline/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[logging]
level = "info"
format = "text"

[database]
host = "localhost"
port = 5432
name = "byline"
user = "byline"
password = "byline"
ssl_mode = "disable"

[storage]
container_name = "sessions"
connection_string = "DefaultEndpointsProtocol=http;AccountName=bylinestore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/bylinestore;"

[store]
driver = "postgres"

[invoke]
mode = "cli"
command = "claude"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

// minimalConfig provides the minimum fields required for validation to
// pass under the memory store driver: a storage connection and a cli
// invocation command.
const minimalConfig = `
[storage]
connection_string = "conn"

[store]
driver = "memory"

[invoke]
mode = "cli"
command = "claude"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Storage.ContainerName != "sessions" {
		t.Errorf("storage container: got %s, want sessions", cfg.Storage.ContainerName)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("store driver: got %s, want postgres", cfg.Store.Driver)
	}
	if cfg.Invoke.Command != "claude" {
		t.Errorf("invoke command: got %s, want claude", cfg.Invoke.Command)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination max_page_size: got %d, want 50", cfg.API.Pagination.MaxPageSize)
	}
	if !cfg.RequiresDatabase() {
		t.Error("postgres driver should require a database")
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("BYLINE_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("BYLINE_VERSION", "2.0.0")
	t.Setenv("BYLINE_SERVER_PORT", "3000")
	t.Setenv("BYLINE_STORE_DRIVER", "memory")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.RequiresDatabase() {
		t.Error("memory driver from env should not require a database")
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("BYLINE_STORE_DRIVER", "memory")
	t.Setenv("BYLINE_STORAGE_CONNECTION_STRING", "conn")
	t.Setenv("BYLINE_INVOKE_MODE", "cli")
	t.Setenv("BYLINE_INVOKE_COMMAND", "claude")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.ConnectionString != "conn" {
		t.Errorf("storage conn from env: got %s, want conn", cfg.Storage.ConnectionString)
	}
	if cfg.Render.URL != "http://localhost:8090/render" {
		t.Errorf("render url default: got %s", cfg.Render.URL)
	}
	if cfg.Pipeline.Batch.Size != 5 {
		t.Errorf("batch size default: got %d, want 5", cfg.Pipeline.Batch.Size)
	}
	if cfg.Pipeline.MaxSteps != 50 {
		t.Errorf("max steps default: got %d, want 50", cfg.Pipeline.MaxSteps)
	}
	if cfg.Pipeline.MaxDossierPages != 12 {
		t.Errorf("dossier page cap default: got %d, want 12", cfg.Pipeline.MaxDossierPages)
	}
	if got := cfg.Server.MaxBodySizeBytes(); got != 10*1024*1024 {
		t.Errorf("max body size default: got %d, want 10MB", got)
	}
}

func TestLoadInvalidToml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `[server] port = `)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestMemoryDriverSkipsDatabase(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.RequiresDatabase() {
		t.Error("memory driver should not require a database")
	}
	if cfg.Database.Name != "" {
		t.Errorf("db name should stay unset, got %s", cfg.Database.Name)
	}
}

func TestPostgresDriverRequiresDatabase(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `
[storage]
connection_string = "conn"

[store]
driver = "postgres"

[invoke]
mode = "cli"
command = "claude"
`)
	chdir(t, dir)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error for postgres driver without database config")
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error %q does not mention database", err.Error())
	}
}

func TestCLIModeRequiresCommand(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `
[storage]
connection_string = "conn"

[store]
driver = "memory"

[invoke]
mode = "cli"
`)
	chdir(t, dir)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error for cli mode without command")
	}
	if !strings.Contains(err.Error(), "command required") {
		t.Errorf("error %q does not mention required command", err.Error())
	}
}

func TestEnvDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
}

func TestEnvFromEnvVar(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	t.Setenv("BYLINE_ENV", "production")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestShutdownTimeoutDuration(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
}

func TestServerAddr(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
}

func TestLoggingEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	t.Setenv("BYLINE_LOG_LEVEL", "debug")
	t.Setenv("BYLINE_LOG_FORMAT", "json")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Logging.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v, want debug", cfg.Logging.SlogLevel())
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("log format: got %s, want json", cfg.Logging.Format)
	}
}

func TestLoggingValidation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	t.Setenv("BYLINE_LOG_LEVEL", "verbose")

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error for unknown log level")
	}
	if !strings.Contains(err.Error(), "level must be one of") {
		t.Errorf("error %q does not mention log level", err.Error())
	}
}

func TestServerValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name: "invalid port",
			config: `
[server]
port = 99999

[storage]
connection_string = "conn"

[store]
driver = "memory"

[invoke]
mode = "cli"
command = "claude"
`,
			wantErr: "invalid port",
		},
		{
			name: "invalid read_timeout",
			config: `
[server]
read_timeout = "bad"

[storage]
connection_string = "conn"

[store]
driver = "memory"

[invoke]
mode = "cli"
command = "claude"
`,
			wantErr: "invalid read_timeout",
		},
		{
			name: "invalid max_body_size",
			config: `
[server]
max_body_size = "lots"

[storage]
connection_string = "conn"

[store]
driver = "memory"

[invoke]
mode = "cli"
command = "claude"
`,
			wantErr: "invalid max_body_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestStorageValidation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `
[store]
driver = "memory"

[invoke]
mode = "cli"
command = "claude"
`)
	chdir(t, dir)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error for missing storage connection")
	}
	if !strings.Contains(err.Error(), "connection_string or account_url") {
		t.Errorf("error %q does not mention storage connection", err.Error())
	}
}

package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parlorgames/byline/pkg/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	sys := middleware.New()
	sys.Use(tag("first"))
	sys.Use(tag("second"))

	req := httptest.NewRequest("GET", "/", nil)
	sys.Apply(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("middleware order = %v, want [first second]", order)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        middleware.CORSConfig
		origin     string
		wantHeader string
	}{
		{
			name:       "disabled passes through",
			cfg:        middleware.CORSConfig{Enabled: false},
			origin:     "https://app.example.com",
			wantHeader: "",
		},
		{
			name: "allowed origin echoed",
			cfg: middleware.CORSConfig{
				Enabled: true,
				Origins: []string{"https://app.example.com"},
			},
			origin:     "https://app.example.com",
			wantHeader: "https://app.example.com",
		},
		{
			name: "unlisted origin ignored",
			cfg: middleware.CORSConfig{
				Enabled: true,
				Origins: []string{"https://app.example.com"},
			},
			origin:     "https://evil.example.com",
			wantHeader: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Origin", tt.origin)

			middleware.CORS(&tt.cfg)(okHandler()).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	v, err := middleware.NewVerifier(context.Background(), &middleware.AuthConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	if v.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sessions", nil)
	v.Auth()(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     middleware.AuthConfig
		wantErr bool
	}{
		{name: "disabled needs nothing", cfg: middleware.AuthConfig{}, wantErr: false},
		{name: "enabled without issuer", cfg: middleware.AuthConfig{Enabled: true, Audience: "byline"}, wantErr: true},
		{name: "enabled without audience", cfg: middleware.AuthConfig{Enabled: true, Issuer: "https://id.example.com"}, wantErr: true},
		{
			name:    "enabled fully configured",
			cfg:     middleware.AuthConfig{Enabled: true, Issuer: "https://id.example.com", Audience: "byline"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/sessions/abc", nil)
	middleware.Logger(logger)(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

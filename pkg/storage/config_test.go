package storage_test

import (
	"errors"
	"testing"

	"github.com/parlorgames/byline/pkg/storage"
)

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{
			name:    "connection string auth",
			cfg:     storage.Config{ConnectionString: "UseDevelopmentStorage=true"},
			wantErr: false,
		},
		{
			name:    "account url auth",
			cfg:     storage.Config{AccountURL: "https://byline.blob.core.windows.net"},
			wantErr: false,
		},
		{
			name:    "no auth configured",
			cfg:     storage.Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.cfg.ContainerName != "sessions" {
				t.Errorf("default container = %q, want sessions", tt.cfg.ContainerName)
			}
		})
	}
}

func TestConfigListCap(t *testing.T) {
	cfg := storage.Config{
		ConnectionString: "UseDevelopmentStorage=true",
		MaxListSize:      10_000,
	}

	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if cfg.MaxListSize != storage.MaxListCap {
		t.Errorf("MaxListSize = %d, want clamped to %d", cfg.MaxListSize, storage.MaxListCap)
	}
}

func TestParseMaxResults(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		limit   int32
		want    int32
		wantErr bool
	}{
		{name: "empty uses limit", raw: "", limit: 50, want: 50},
		{name: "under limit", raw: "10", limit: 50, want: 10},
		{name: "over limit clamped", raw: "100", limit: 50, want: 50},
		{name: "zero rejected", raw: "0", limit: 50, wantErr: true},
		{name: "garbage rejected", raw: "ten", limit: 50, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.ParseMaxResults(tt.raw, tt.limit)
			if tt.wantErr {
				if !errors.Is(err, storage.ErrInvalidMaxResults) {
					t.Fatalf("ParseMaxResults(%q) error = %v, want ErrInvalidMaxResults", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMaxResults(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseMaxResults(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

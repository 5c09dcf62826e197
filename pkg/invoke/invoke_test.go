package invoke_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parlorgames/byline/pkg/invoke"
)

// scriptBackend returns canned responses in order, then repeats the last.
type scriptBackend struct {
	responses []string
	errs      []error
	delay     time.Duration
	calls     atomic.Int32
	probeErr  error
}

func (b *scriptBackend) Name() string { return "script" }

func (b *scriptBackend) Invoke(ctx context.Context, _ invoke.Request) (string, error) {
	call := int(b.calls.Add(1)) - 1

	if b.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(b.delay):
		}
	}

	if call < len(b.errs) && b.errs[call] != nil {
		return "", b.errs[call]
	}

	if len(b.responses) == 0 {
		return "", nil
	}
	if call >= len(b.responses) {
		call = len(b.responses) - 1
	}
	return b.responses[call], nil
}

func (b *scriptBackend) Probe(_ context.Context) error { return b.probeErr }

func testConfig(t *testing.T) *invoke.Config {
	t.Helper()

	cfg := &invoke.Config{
		Mode:        invoke.ModeHTTP,
		MaxAttempts: 3,
		BaseDelay:   "1ms",
		MaxDelay:    "5ms",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}
	return cfg
}

func testInvoker(t *testing.T, backend invoke.Backend) *invoke.Invoker {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return invoke.NewWithBackend(backend, testConfig(t), logger)
}

func TestInvokeReturnsContent(t *testing.T) {
	backend := &scriptBackend{responses: []string{"the observed output"}}
	iv := testInvoker(t, backend)

	got, err := iv.Invoke(context.Background(), invoke.Request{Prompt: "p", Tier: invoke.TierShort})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "the observed output" {
		t.Errorf("content = %q, want %q", got, "the observed output")
	}
	if calls := backend.calls.Load(); calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}
}

func TestInvokeRetriesTransient(t *testing.T) {
	transient := fmt.Errorf("%w: connection reset", invoke.ErrBackendExited)
	backend := &scriptBackend{
		errs:      []error{transient, transient, nil},
		responses: []string{"", "", "recovered"},
	}
	iv := testInvoker(t, backend)

	got, err := iv.Invoke(context.Background(), invoke.Request{Prompt: "p", Tier: invoke.TierShort})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "recovered" {
		t.Errorf("content = %q, want %q", got, "recovered")
	}
	if calls := backend.calls.Load(); calls != 3 {
		t.Errorf("backend called %d times, want 3", calls)
	}
}

func TestInvokeRetriesExhausted(t *testing.T) {
	transient := fmt.Errorf("%w: connection reset", invoke.ErrBackendExited)
	backend := &scriptBackend{errs: []error{transient, transient, transient}}
	iv := testInvoker(t, backend)

	_, err := iv.Invoke(context.Background(), invoke.Request{Prompt: "p", Tier: invoke.TierShort})
	if !errors.Is(err, invoke.ErrBackendExited) {
		t.Fatalf("err = %v, want ErrBackendExited", err)
	}
	if calls := backend.calls.Load(); calls != 3 {
		t.Errorf("backend called %d times, want 3", calls)
	}
}

func TestInvokePermanentStopsRetry(t *testing.T) {
	permanent := fmt.Errorf("%w: exit 2: bad flag", invoke.ErrInvocationFailed)
	backend := &scriptBackend{errs: []error{permanent, permanent}}
	iv := testInvoker(t, backend)

	_, err := iv.Invoke(context.Background(), invoke.Request{Prompt: "p", Tier: invoke.TierShort})
	if !errors.Is(err, invoke.ErrInvocationFailed) {
		t.Fatalf("err = %v, want ErrInvocationFailed", err)
	}
	if calls := backend.calls.Load(); calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}
}

func TestInvokeTimeout(t *testing.T) {
	cfg := &invoke.Config{
		Mode:         invoke.ModeHTTP,
		MaxAttempts:  1,
		ShortTimeout: "20ms",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}

	backend := &scriptBackend{delay: 500 * time.Millisecond, responses: []string{"late"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	iv := invoke.NewWithBackend(backend, cfg, logger)

	_, err := iv.Invoke(context.Background(), invoke.Request{Prompt: "p", Tier: invoke.TierShort})
	if !errors.Is(err, invoke.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestInvokeUnknownTier(t *testing.T) {
	iv := testInvoker(t, &scriptBackend{responses: []string{"x"}})

	_, err := iv.Invoke(context.Background(), invoke.Request{Prompt: "p", Tier: invoke.Tier("extreme")})
	if !errors.Is(err, invoke.ErrUnknownTier) {
		t.Fatalf("err = %v, want ErrUnknownTier", err)
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name     string
		probeErr error
		wantErr  bool
	}{
		{name: "backend available", probeErr: nil, wantErr: false},
		{name: "backend unreachable", probeErr: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := testInvoker(t, &scriptBackend{probeErr: tt.probeErr})

			err := iv.Probe(context.Background())
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

type arcSummary struct {
	Title   string   `json:"title"`
	Players []string `json:"players"`
}

func TestGenerate(t *testing.T) {
	backend := &scriptBackend{responses: []string{
		"Here is the analysis:\n```json\n{\"title\": \"The Forged Will\", \"players\": [\"Ada\", \"Briggs\"]}\n```",
	}}
	iv := testInvoker(t, backend)

	got, err := invoke.Generate[arcSummary](context.Background(), iv, invoke.Request{
		Prompt: "p",
		Tier:   invoke.TierMedium,
		Schema: "arc_analysis",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "The Forged Will" {
		t.Errorf("title = %q, want %q", got.Title, "The Forged Will")
	}
	if len(got.Players) != 2 {
		t.Errorf("players = %v, want 2 entries", got.Players)
	}
}

func TestGenerateMalformed(t *testing.T) {
	backend := &scriptBackend{responses: []string{"I could not produce the document you asked for."}}
	iv := testInvoker(t, backend)

	_, err := invoke.Generate[arcSummary](context.Background(), iv, invoke.Request{Prompt: "p", Tier: invoke.TierMedium})
	if !errors.Is(err, invoke.ErrMalformedOutput) {
		t.Fatalf("err = %v, want ErrMalformedOutput", err)
	}
	if !strings.Contains(err.Error(), "could not produce") {
		t.Errorf("error should carry raw output, got: %v", err)
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    invoke.Tier
		wantErr bool
	}{
		{name: "short", raw: "short", want: invoke.TierShort},
		{name: "medium", raw: "medium", want: invoke.TierMedium},
		{name: "long", raw: "long", want: invoke.TierLong},
		{name: "unknown", raw: "instant", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := invoke.ParseTier(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, invoke.ErrUnknownTier) {
					t.Fatalf("err = %v, want ErrUnknownTier", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("tier = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     invoke.Config
		wantErr bool
	}{
		{
			name: "defaults fill in",
			cfg:  invoke.Config{},
		},
		{
			name: "cli mode requires command",
			cfg:  invoke.Config{Mode: invoke.ModeCLI},

			wantErr: true,
		},
		{
			name: "cli mode with command",
			cfg:  invoke.Config{Mode: invoke.ModeCLI, Command: "model-cli"},
		},
		{
			name:    "unknown mode rejected",
			cfg:     invoke.Config{Mode: "carrier-pigeon"},
			wantErr: true,
		},
		{
			name:    "invalid tier timeout rejected",
			cfg:     invoke.Config{LongTimeout: "whenever"},
			wantErr: true,
		},
		{
			name:    "invalid base delay rejected",
			cfg:     invoke.Config{BaseDelay: "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigTierTimeouts(t *testing.T) {
	cfg := invoke.Config{
		ShortTimeout:  "10s",
		MediumTimeout: "90s",
		LongTimeout:   "4m",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}

	tests := []struct {
		tier invoke.Tier
		want time.Duration
	}{
		{tier: invoke.TierShort, want: 10 * time.Second},
		{tier: invoke.TierMedium, want: 90 * time.Second},
		{tier: invoke.TierLong, want: 4 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			got, err := cfg.TierTimeout(tt.tier)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("timeout = %v, want %v", got, tt.want)
			}
		})
	}
}

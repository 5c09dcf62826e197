// Package invoke is the resilient model invocation layer. It wraps a
// swappable backend (a local model CLI or an HTTP agent) with tiered
// timeouts, transient-failure retry under an exponential backoff policy, and
// typed failure classification, so callers see one uniform surface
// regardless of how the model is reached.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/parlorgames/byline/pkg/formatting"
)

// Request describes one model invocation. Images are data URIs or local
// file paths; the backend materializes whichever form it needs. Schema is
// advisory, carried as prompt content to steer output shape. Tools is an
// allowlist honored by the cli backend.
type Request struct {
	Prompt string
	System string
	Tier   Tier
	Schema string
	Tools  []string
	Images []string
}

// content returns the prompt body with the advisory schema directive.
func (r Request) content() string {
	if r.Schema == "" {
		return r.Prompt
	}

	var b strings.Builder
	b.WriteString(r.Prompt)
	fmt.Fprintf(&b, "\n\nRespond with a single JSON document conforming to the %s schema. No surrounding prose.", r.Schema)
	return b.String()
}

// composed returns the full prompt with the system prompt inlined, for
// backends without a distinct system channel.
func (r Request) composed() string {
	if r.System == "" {
		return r.content()
	}
	return r.System + "\n\n" + r.content()
}

// Backend executes a single invocation attempt. Implementations classify
// their failures with the package sentinels; retry and timeouts belong to
// the Invoker.
type Backend interface {
	Name() string
	Invoke(ctx context.Context, req Request) (string, error)
	Probe(ctx context.Context) error
}

// Invoker is the shared invocation client. One Invoker serves all pipeline
// stages for the process's lifetime.
type Invoker struct {
	backend Backend
	cfg     *Config
	policy  Policy
	logger  *slog.Logger
}

// New constructs an Invoker with the backend selected by cfg.Mode. The
// agent configuration is used only in http mode.
func New(cfg *Config, agent gaconfig.AgentConfig, logger *slog.Logger) (*Invoker, error) {
	var backend Backend
	switch cfg.Mode {
	case ModeCLI:
		backend = newCLIBackend(cfg.Command, cfg.Args)
	case ModeHTTP:
		backend = newHTTPBackend(agent)
	default:
		return nil, fmt.Errorf("unknown invoke mode: %q", cfg.Mode)
	}

	return NewWithBackend(backend, cfg, logger), nil
}

// NewWithBackend constructs an Invoker around an explicit backend. Tests
// use this to script model behavior.
func NewWithBackend(backend Backend, cfg *Config, logger *slog.Logger) *Invoker {
	return &Invoker{
		backend: backend,
		cfg:     cfg,
		policy:  cfg.Policy(),
		logger:  logger.With("system", "invoke", "backend", backend.Name()),
	}
}

// Policy returns the retry policy derived from the Invoker's config, for
// reuse at other external call boundaries.
func (iv *Invoker) Policy() Policy {
	return iv.policy
}

// Invoke executes the request under its tier timeout, retrying transient
// failures per the policy, and returns the backend's raw text output.
func (iv *Invoker) Invoke(ctx context.Context, req Request) (string, error) {
	timeout, err := iv.cfg.TierTimeout(req.Tier)
	if err != nil {
		return "", err
	}

	var content string
	op := func() error {
		out, err := iv.attempt(ctx, req, timeout)
		if err != nil {
			if !Transient(err) {
				return Permanent(err)
			}
			return err
		}
		content = out
		return nil
	}

	notify := func(err error, delay time.Duration) {
		iv.logger.WarnContext(
			ctx, "invocation retry",
			"tier", req.Tier,
			"delay", delay,
			"error", err,
		)
	}

	if err := iv.policy.Execute(ctx, op, notify); err != nil {
		return "", err
	}
	return content, nil
}

func (iv *Invoker) attempt(ctx context.Context, req Request, timeout time.Duration) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := iv.backend.Invoke(tctx, req)
	if err != nil {
		if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: tier %s after %v", ErrTimeout, req.Tier, timeout)
		}
		return "", err
	}
	return out, nil
}

// Probe verifies the backend is reachable, bounded by the short tier
// timeout. It is registered as a lifecycle startup hook so an unreachable
// backend fails the process before any session starts.
func (iv *Invoker) Probe(ctx context.Context) error {
	timeout, err := iv.cfg.TierTimeout(TierShort)
	if err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := iv.backend.Probe(tctx); err != nil {
		return fmt.Errorf("probe %s backend: %w", iv.backend.Name(), err)
	}

	iv.logger.InfoContext(ctx, "backend available")
	return nil
}

// Generate invokes the request and parses the output into T. Parse failures
// wrap ErrMalformedOutput with the raw text preserved; regeneration is the
// caller's revision loop, not a transport retry.
func Generate[T any](ctx context.Context, iv *Invoker, req Request) (T, error) {
	var zero T

	content, err := iv.Invoke(ctx, req)
	if err != nil {
		return zero, err
	}

	parsed, err := formatting.Parse[T](content)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	return parsed, nil
}

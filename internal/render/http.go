package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/invoke"
)

// HTTP renders through an external collaborator: the content document is
// posted as JSON and the response body is the finished document. Transient
// failures (transport errors, 5xx) are retried under the shared policy;
// rejections (4xx) are not.
type HTTP struct {
	url     string
	timeout time.Duration
	client  *http.Client
	policy  invoke.Policy
	logger  *slog.Logger
}

// NewHTTP constructs the HTTP engine. policy is the same retry schedule the
// invocation layer uses.
func NewHTTP(cfg *Config, policy invoke.Policy, logger *slog.Logger) *HTTP {
	return &HTTP{
		url:     cfg.URL,
		timeout: cfg.TimeoutDuration(),
		client:  &http.Client{},
		policy:  policy,
		logger:  logger.With("system", "render"),
	}
}

func (h *HTTP) Render(ctx context.Context, doc state.ContentDocument) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode content document: %w", err)
	}

	var rendered string
	op := func() error {
		out, err := h.attempt(ctx, payload)
		if err != nil {
			return err
		}
		rendered = out
		return nil
	}

	notify := func(err error, delay time.Duration) {
		h.logger.WarnContext(ctx, "render retry", "delay", delay, "error", err)
	}

	if err := h.policy.Execute(ctx, op, notify); err != nil {
		return "", err
	}
	return rendered, nil
}

func (h *HTTP) attempt(ctx context.Context, payload []byte) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return "", invoke.Permanent(fmt.Errorf("build render request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		// The document was refused; resending the same payload cannot succeed.
		return "", invoke.Permanent(fmt.Errorf("%w: status %d: %s", ErrRenderFailed, resp.StatusCode, body))
	}

	if len(body) == 0 {
		return "", invoke.Permanent(ErrEmptyResult)
	}
	return string(body), nil
}

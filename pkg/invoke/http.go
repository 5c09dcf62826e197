package invoke

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// httpBackend reaches a model over HTTP through a go-agents agent. Each
// attempt constructs a fresh agent; the configuration is immutable after
// startup. Tool allowlists are governed by the agent configuration, so
// Request.Tools is ignored here.
type httpBackend struct {
	agent gaconfig.AgentConfig
}

func newHTTPBackend(cfg gaconfig.AgentConfig) *httpBackend {
	return &httpBackend{agent: cfg}
}

func (b *httpBackend) Name() string {
	return ModeHTTP
}

func (b *httpBackend) Invoke(ctx context.Context, req Request) (string, error) {
	a, err := agent.New(&b.agent)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrInvocationFailed, err)
	}

	prompt := req.composed()

	if len(req.Images) > 0 {
		resp, err := a.Vision(ctx, prompt, req.Images)
		if err != nil {
			// Transport failures leave no result behind; retry may succeed.
			return "", fmt.Errorf("%w: %w", ErrBackendExited, err)
		}
		return resp.Content(), nil
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackendExited, err)
	}
	return resp.Content(), nil
}

// Probe performs one minimal chat round trip.
func (b *httpBackend) Probe(ctx context.Context) error {
	_, err := b.Invoke(ctx, Request{Prompt: "Reply with the single word: ready."})
	return err
}

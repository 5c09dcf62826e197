package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/render"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/internal/store"
	"github.com/parlorgames/byline/pkg/invoke"
	"github.com/parlorgames/byline/pkg/storage"
)

// Recorder persists a completed render as a durable artifact. Nil disables
// artifact recording; the final document still lives in session state.
type Recorder interface {
	Record(ctx context.Context, sessionID uuid.UUID, doc state.ContentDocument, rendered string) error
}

// Runtime bundles the dependencies pipeline nodes require. One Runtime is
// shared across every session for the process's lifetime; per-session data
// lives only in state.
type Runtime struct {
	Invoker   *invoke.Invoker
	Validator *schemas.Validator
	Prompts   prompts.System
	Source    evidence.Source
	Render    render.Engine
	Store     store.SessionStore
	Storage   storage.System
	Artifacts Recorder
	Logger    *slog.Logger
	Config    *Config
}

package prompts

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/pkg/pagination"
)

// Static serves the compiled stage defaults without a database. It backs
// deployments running the memory session store, where the pipeline still
// needs instructions and specs but override management is unavailable.
type Static struct {
	logger     *slog.Logger
	pagination pagination.Config
}

// NewStatic creates a defaults-only prompt system.
func NewStatic(logger *slog.Logger, pagination pagination.Config) System {
	return &Static{
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (s *Static) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination)
}

func (s *Static) Instructions(ctx context.Context, stage Stage) (string, error) {
	if _, err := ParseStage(string(stage)); err != nil {
		return "", err
	}
	return Instructions(stage)
}

func (s *Static) Spec(ctx context.Context, stage Stage) (string, error) {
	return Spec(stage)
}

func (s *Static) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Prompt], error) {
	return nil, ErrNoDatabase
}

func (s *Static) Find(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return nil, ErrNoDatabase
}

func (s *Static) Create(ctx context.Context, cmd CreateCommand) (*Prompt, error) {
	return nil, ErrNoDatabase
}

func (s *Static) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Prompt, error) {
	return nil, ErrNoDatabase
}

func (s *Static) Delete(ctx context.Context, id uuid.UUID) error {
	return ErrNoDatabase
}

func (s *Static) Activate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return nil, ErrNoDatabase
}

func (s *Static) Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return nil, ErrNoDatabase
}

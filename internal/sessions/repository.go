package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/pipeline"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/internal/store"
	"github.com/parlorgames/byline/pkg/pagination"
	"github.com/parlorgames/byline/pkg/query"
	"github.com/parlorgames/byline/pkg/repository"
)

type repo struct {
	db         *sql.DB
	rt         *pipeline.Runtime
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a session repository implementing the System interface.
// Every session this system creates or advances runs through rt, and
// snapshots are read back through rt's store. db backs listing queries
// over the sessions table and may be nil when the store driver is memory,
// in which case List reports ErrNoDatabase.
func New(
	db *sql.DB,
	rt *pipeline.Runtime,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		rt:         rt,
		logger:     logger.With("system", "sessions"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Session], error) {
	if r.db == nil {
		return nil, ErrNoDatabase
	}

	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Theme")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSession)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Detail, error) {
	s, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail(id, s), nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Detail, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	s := state.Default()
	s.Theme = cmd.Theme
	s.RawInput = cmd.RawInput

	out, err := pipeline.Run(ctx, r.rt, id, s)
	if err != nil {
		return nil, fmt.Errorf("run session %s: %w", id, err)
	}

	r.logger.Info("session created",
		"id", id,
		"theme", out.Theme,
		"phase", out.Phase,
	)
	return detail(id, out), nil
}

func (r *repo) Approve(ctx context.Context, id uuid.UUID, cmd ApproveCommand) (*Detail, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	s, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	upd, err := pipeline.Approve(s, state.Approval{
		Type:       cmd.Checkpoint,
		ApprovedBy: cmd.ApprovedBy,
		Note:       cmd.Note,
	})
	if err != nil {
		return nil, err
	}
	s = state.Apply(s, upd)

	// The granted approval lands before the pipeline moves, so a crash
	// mid-run never forgets the reviewer's decision.
	if err := r.save(ctx, id, &s); err != nil {
		return nil, err
	}

	out, err := pipeline.Run(ctx, r.rt, id, s)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", id, err)
	}

	r.logger.Info("checkpoint approved",
		"id", id,
		"checkpoint", cmd.Checkpoint,
		"approved_by", cmd.ApprovedBy,
		"phase", out.Phase,
	)
	return detail(id, out), nil
}

func (r *repo) Rollback(ctx context.Context, id uuid.UUID, cmd RollbackCommand) (*Detail, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	s, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	rolled, err := pipeline.Rollback(s, cmd.Target, state.Update{})
	if err != nil {
		return nil, err
	}

	if err := r.save(ctx, id, &rolled); err != nil {
		return nil, err
	}

	out, err := pipeline.Run(ctx, r.rt, id, rolled)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", id, err)
	}

	r.logger.Info("session rolled back",
		"id", id,
		"target", cmd.Target,
		"phase", out.Phase,
	)
	return detail(id, out), nil
}

func (r *repo) Resume(ctx context.Context, id uuid.UUID) (*Detail, error) {
	s, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := pipeline.Run(ctx, r.rt, id, s)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", id, err)
	}

	r.logger.Info("session resumed", "id", id, "phase", out.Phase)
	return detail(id, out), nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.rt.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	r.logger.Info("session deleted", "id", id)
	return nil
}

func (r *repo) load(ctx context.Context, id uuid.UUID) (state.State, error) {
	s, err := r.rt.Store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return state.State{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return state.State{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return s, nil
}

func (r *repo) save(ctx context.Context, id uuid.UUID, s *state.State) error {
	s.UpdatedAt = time.Now().UTC()
	if err := r.rt.Store.Save(ctx, id, *s); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

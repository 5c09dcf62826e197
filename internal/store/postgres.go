package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/repository"
)

// Postgres persists one JSONB state snapshot per session row. Scalar
// columns are derived from the state at write time so listing queries
// never unpack JSONB.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres creates a session store over the sessions table.
func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger.With("system", "store"),
	}
}

func (p *Postgres) Load(ctx context.Context, id uuid.UUID) (state.State, error) {
	q := `SELECT state FROM sessions WHERE id = $1`

	raw, err := repository.QueryOne(ctx, p.db, q, []any{id}, scanSnapshot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.State{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return state.State{}, fmt.Errorf("load session %s: %w", id, err)
	}

	var s state.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return state.State{}, fmt.Errorf("%w: %w", ErrDecodeState, err)
	}
	return s, nil
}

func (p *Postgres) Save(ctx context.Context, id uuid.UUID, s state.State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeState, err)
	}

	q := `
		INSERT INTO sessions(
			id, theme, phase, awaiting_approval, approval,
			state, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			theme = EXCLUDED.theme,
			phase = EXCLUDED.phase,
			awaiting_approval = EXCLUDED.awaiting_approval,
			approval = EXCLUDED.approval,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`

	args := []any{
		id,
		s.Theme,
		string(s.Phase),
		s.AwaitingApproval,
		pendingApproval(s),
		raw,
		s.CreatedAt,
		s.UpdatedAt,
	}

	if err := repository.ExecExpectOne(ctx, p.db, q, args...); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	q := `DELETE FROM sessions WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, p.db, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func scanSnapshot(s repository.Scanner) ([]byte, error) {
	var raw []byte
	if err := s.Scan(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// pendingApproval returns the approval column value: the pending checkpoint
// while suspended, NULL otherwise.
func pendingApproval(s state.State) any {
	if !s.AwaitingApproval {
		return nil
	}
	return string(s.Approval)
}

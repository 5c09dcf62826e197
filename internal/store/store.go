// Package store persists workflow state between engine steps. The engine
// loads a session, runs nodes, and saves the result; suspension at a
// checkpoint is nothing more than a saved state whose pending-approval flag
// is set. A single long-lived store instance is shared for the process's
// lifetime and injected into everything that needs it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/parlorgames/byline/internal/state"
)

// SessionStore loads and saves one workflow state per session id.
type SessionStore interface {
	// Load returns the persisted state for a session.
	// Returns ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, id uuid.UUID) (state.State, error)
	// Save persists the complete state for a session, creating it on
	// first write.
	Save(ctx context.Context, id uuid.UUID, s state.State) error
	// Delete removes a session and everything it persisted.
	// Returns ErrSessionNotFound if the session does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// New builds the configured store. db may be nil when the driver is
// memory; the postgres driver requires it. When a Redis URL is configured
// the primary store is wrapped in a write-through snapshot cache.
func New(cfg *Config, db *sql.DB, logger *slog.Logger) (SessionStore, error) {
	var primary SessionStore

	switch cfg.Driver {
	case DriverMemory:
		primary = NewMemory()
	case DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres store requires a database connection")
		}
		primary = NewPostgres(db, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	if !cfg.Cached() {
		return primary, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return NewCached(primary, redis.NewClient(opts), cfg.CacheTTLDuration(), logger), nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/lifecycle"
)

const sessionKeyPrefix = "session:"

// Cached wraps a primary store with a write-through Redis snapshot. The
// primary store remains the source of truth: every save lands there first,
// and a cache failure is logged, never surfaced.
type Cached struct {
	primary SessionStore
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCached creates a write-through cache over primary.
func NewCached(primary SessionStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{
		primary: primary,
		client:  client,
		ttl:     ttl,
		logger:  logger.With("system", "store", "cache", "redis"),
	}
}

func (c *Cached) Load(ctx context.Context, id uuid.UUID) (state.State, error) {
	raw, err := c.client.Get(ctx, sessionKey(id)).Result()
	if err == nil {
		var s state.State
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache snapshot", "session_id", id)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "cache read failed", "session_id", id, "error", err)
	}

	s, err := c.primary.Load(ctx, id)
	if err != nil {
		return state.State{}, err
	}

	c.snapshot(ctx, id, s)
	return s, nil
}

func (c *Cached) Save(ctx context.Context, id uuid.UUID, s state.State) error {
	if err := c.primary.Save(ctx, id, s); err != nil {
		return err
	}

	c.snapshot(ctx, id, s)
	return nil
}

func (c *Cached) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.primary.Delete(ctx, id); err != nil {
		return err
	}

	if err := c.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache purge failed", "session_id", id, "error", err)
	}
	return nil
}

// Ping verifies the cache connection is usable. Readiness probes call this.
func (c *Cached) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *Cached) Close() error {
	return c.client.Close()
}

// Start registers cache connectivity hooks with the lifecycle coordinator.
// An unreachable cache degrades to primary-only reads, so the startup ping
// logs and continues rather than failing the process.
func (c *Cached) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := c.Ping(lc.Context()); err != nil {
			c.logger.Error("cache ping failed", "error", err)
			return
		}
		c.logger.Info("cache connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := c.Close(); err != nil {
			c.logger.Error("cache close failed", "error", err)
			return
		}
		c.logger.Info("cache connection closed")
	})

	return nil
}

func (c *Cached) snapshot(ctx context.Context, id uuid.UUID, s state.State) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, sessionKey(id), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "session_id", id, "error", err)
	}
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

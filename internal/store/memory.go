package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/state"
)

// Memory is an in-process session store for development mode and tests.
// States are stored as JSON snapshots so callers can never mutate a saved
// session through a retained reference.
type Memory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID][]byte
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[uuid.UUID][]byte)}
}

func (m *Memory) Load(ctx context.Context, id uuid.UUID) (state.State, error) {
	m.mu.RLock()
	raw, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return state.State{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	var s state.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return state.State{}, fmt.Errorf("%w: %w", ErrDecodeState, err)
	}
	return s, nil
}

func (m *Memory) Save(ctx context.Context, id uuid.UUID, s state.State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeState, err)
	}

	m.mu.Lock()
	m.sessions[id] = raw
	m.mu.Unlock()

	return nil
}

func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	delete(m.sessions, id)
	return nil
}

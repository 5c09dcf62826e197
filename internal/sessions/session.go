// Package sessions implements the session control surface: creating a
// session from operator notes, releasing checkpoints, rewinding granted
// ones, and listing what the pipeline has persisted. Every mutation runs
// the pipeline forward until it suspends again or terminates, so a session
// returned by this package is always either awaiting review or done.
package sessions

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/state"
)

// Session is the list-level view of one stored session. It mirrors the
// scalar columns the store maintains beside the state snapshot, so listing
// queries never unpack the blob. Approval is nil unless the session is
// suspended at a checkpoint.
type Session struct {
	ID               uuid.UUID           `json:"id"`
	Theme            string              `json:"theme"`
	Phase            state.Phase         `json:"phase"`
	AwaitingApproval bool                `json:"awaiting_approval"`
	Approval         *state.ApprovalType `json:"approval"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Detail couples the session view with its complete workflow state.
type Detail struct {
	Session
	State state.State `json:"state"`
}

func detail(id uuid.UUID, s state.State) *Detail {
	view := Session{
		ID:               id,
		Theme:            s.Theme,
		Phase:            s.Phase,
		AwaitingApproval: s.AwaitingApproval,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if pending, ok := s.PendingApproval(); ok {
		view.Approval = &pending
	}

	return &Detail{Session: view, State: s}
}

// CreateCommand carries the operator input that opens a session: the
// evening's theme and the director's raw narrative notes.
type CreateCommand struct {
	Theme    string `json:"theme"`
	RawInput string `json:"raw_input"`
}

func (c CreateCommand) validate() error {
	if strings.TrimSpace(c.Theme) == "" {
		return fmt.Errorf("%w: theme is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.RawInput) == "" {
		return fmt.Errorf("%w: raw_input is required", ErrInvalidInput)
	}
	return nil
}

// ApproveCommand releases the checkpoint a session is suspended at. The
// named checkpoint must match the pending one; ApprovedBy identifies the
// reviewer and is preserved for audit.
type ApproveCommand struct {
	Checkpoint state.ApprovalType `json:"checkpoint"`
	ApprovedBy string             `json:"approved_by"`
	Note       string             `json:"note,omitempty"`
}

func (c ApproveCommand) validate() error {
	if c.Checkpoint == "" {
		return fmt.Errorf("%w: checkpoint is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.ApprovedBy) == "" {
		return fmt.Errorf("%w: approved_by is required", ErrInvalidInput)
	}
	return nil
}

// RollbackCommand rewinds a session to a checkpoint it already passed.
// Work downstream of the target is discarded and regenerated.
type RollbackCommand struct {
	Target state.ApprovalType `json:"target"`
}

func (c RollbackCommand) validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidInput)
	}
	return nil
}

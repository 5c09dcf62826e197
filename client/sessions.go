package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session is the list-level view of a stored session. Approval is nil
// unless the session is suspended at a checkpoint.
type Session struct {
	ID               uuid.UUID `json:"id"`
	Theme            string    `json:"theme"`
	Phase            string    `json:"phase"`
	AwaitingApproval bool      `json:"awaiting_approval"`
	Approval         *string   `json:"approval"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Detail couples the session view with its complete workflow state. The
// state is kept raw; its shape evolves with the pipeline and most
// consumers only forward or store it.
type Detail struct {
	Session
	State json.RawMessage `json:"state"`
}

// Page is one page of results with pagination metadata.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// CreateCommand opens a session: the evening's theme and the director's
// raw narrative notes.
type CreateCommand struct {
	Theme    string `json:"theme"`
	RawInput string `json:"raw_input"`
}

// ApproveCommand releases the checkpoint a session is suspended at.
type ApproveCommand struct {
	Checkpoint string `json:"checkpoint"`
	ApprovedBy string `json:"approved_by"`
	Note       string `json:"note,omitempty"`
}

// RollbackCommand rewinds a session to a checkpoint it already passed.
type RollbackCommand struct {
	Target string `json:"target"`
}

// SearchRequest carries pagination and filter criteria for session
// searches. Nil filters are ignored.
type SearchRequest struct {
	Page             int     `json:"page,omitempty"`
	PageSize         int     `json:"page_size,omitempty"`
	Search           *string `json:"search,omitempty"`
	Sort             string  `json:"sort,omitempty"`
	Phase            *string `json:"phase,omitempty"`
	AwaitingApproval *bool   `json:"awaiting_approval,omitempty"`
	Approval         *string `json:"approval,omitempty"`
}

// CreateSession opens a session and runs the pipeline to its first
// checkpoint.
func (c *Client) CreateSession(ctx context.Context, cmd CreateCommand) (*Detail, error) {
	var d Detail
	if err := c.do(ctx, "POST", "/sessions", cmd, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Session fetches a session with its full workflow state.
func (c *Client) Session(ctx context.Context, id uuid.UUID) (*Detail, error) {
	var d Detail
	if err := c.do(ctx, "GET", "/sessions/"+id.String(), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Sessions searches stored sessions.
func (c *Client) Sessions(ctx context.Context, req SearchRequest) (*Page[Session], error) {
	var page Page[Session]
	if err := c.do(ctx, "POST", "/sessions/search", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Approve releases the pending checkpoint and resumes the pipeline
// until its next stop.
func (c *Client) Approve(ctx context.Context, id uuid.UUID, cmd ApproveCommand) (*Detail, error) {
	var d Detail
	if err := c.do(ctx, "POST", "/sessions/"+id.String()+"/approve", cmd, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Rollback rewinds a session to an already-granted checkpoint and
// regenerates forward.
func (c *Client) Rollback(ctx context.Context, id uuid.UUID, cmd RollbackCommand) (*Detail, error) {
	var d Detail
	if err := c.do(ctx, "POST", "/sessions/"+id.String()+"/rollback", cmd, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Resume continues a session that stopped between checkpoints.
// Suspended and terminal sessions are returned unchanged.
func (c *Client) Resume(ctx context.Context, id uuid.UUID) (*Detail, error) {
	var d Detail
	if err := c.do(ctx, "POST", "/sessions/"+id.String()+"/resume", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteSession removes a session and its recorded artifacts.
func (c *Client) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, "DELETE", "/sessions/"+id.String(), nil, nil)
}

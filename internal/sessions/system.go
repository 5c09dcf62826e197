package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/pkg/pagination"
)

// System defines the public contract for session domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Session], error)

	Find(ctx context.Context, id uuid.UUID) (*Detail, error)
	Create(ctx context.Context, cmd CreateCommand) (*Detail, error)
	Approve(ctx context.Context, id uuid.UUID, cmd ApproveCommand) (*Detail, error)
	Rollback(ctx context.Context, id uuid.UUID, cmd RollbackCommand) (*Detail, error)
	Resume(ctx context.Context, id uuid.UUID) (*Detail, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

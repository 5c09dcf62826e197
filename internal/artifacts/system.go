package artifacts

import (
	"context"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/pagination"
	"github.com/parlorgames/byline/pkg/storage"
)

// System defines the public contract for artifact domain operations. Record
// satisfies the pipeline's recorder dependency; everything else is the
// read-only HTTP surface.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Artifact], error)

	Find(ctx context.Context, id uuid.UUID) (*Artifact, error)
	ForSession(ctx context.Context, sessionID uuid.UUID) ([]Artifact, error)
	Download(ctx context.Context, id uuid.UUID) (*Artifact, *storage.DownloadResult, error)
	Record(ctx context.Context, sessionID uuid.UUID, doc state.ContentDocument, rendered string) error
}

// Package render is the boundary to the layout collaborator. The core hands
// over one validated content document and receives a complete rendered
// document back; markup, styling, and pagination belong entirely to the
// collaborator.
package render

import (
	"context"

	"github.com/parlorgames/byline/internal/state"
)

// Engine renders a content document into its final published form.
type Engine interface {
	Render(ctx context.Context, doc state.ContentDocument) (string, error)
}

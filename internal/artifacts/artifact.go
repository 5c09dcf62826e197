// Package artifacts implements the output artifact domain: durable copies
// of every completed render. The pipeline records two artifacts per
// session, the assembled content document and the rendered article, and
// this package serves them back over a read-only list/find/download API.
package artifacts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind names what an artifact holds. The set is closed: the pipeline only
// ever records the rendered article and its source content document.
type Kind string

const (
	// KindArticle is the rendered HTML article.
	KindArticle Kind = "article"
	// KindContent is the assembled content document the article was
	// rendered from, stored as JSON.
	KindContent Kind = "content"
)

// Artifact represents one stored output with its blob storage reference.
// Re-rendering a session overwrites its artifacts in place, so a session
// holds at most one artifact per kind.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	Kind        Kind      `json:"kind"`
	StorageKey  string    `json:"storage_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

func articleKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("articles/%s/article.html", sessionID)
}

func contentKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("articles/%s/content.json", sessionID)
}

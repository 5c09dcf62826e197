package artifacts

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/pkg/query"
	"github.com/parlorgames/byline/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "artifacts", "a").
	Project("id", "ID").
	Project("session_id", "SessionID").
	Project("kind", "Kind").
	Project("storage_key", "StorageKey").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for artifact queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Kind      *string    `json:"kind,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("SessionID", f.SessionID).
		WhereEquals("Kind", f.Kind)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("session_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			f.SessionID = &id
		}
	}

	if k := values.Get("kind"); k != "" {
		f.Kind = &k
	}

	return f
}

func scanArtifact(s repository.Scanner) (Artifact, error) {
	var a Artifact

	err := s.Scan(
		&a.ID,
		&a.SessionID,
		&a.Kind,
		&a.StorageKey,
		&a.ContentType,
		&a.SizeBytes,
		&a.CreatedAt,
	)

	return a, err
}

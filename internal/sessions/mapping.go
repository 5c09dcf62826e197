package sessions

import (
	"net/url"
	"strconv"

	"github.com/parlorgames/byline/pkg/query"
	"github.com/parlorgames/byline/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "sessions", "s").
	Project("id", "ID").
	Project("theme", "Theme").
	Project("phase", "Phase").
	Project("awaiting_approval", "AwaitingApproval").
	Project("approval", "Approval").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for session listings.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Phase            *string `json:"phase,omitempty"`
	AwaitingApproval *bool   `json:"awaiting_approval,omitempty"`
	Approval         *string `json:"approval,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Phase", f.Phase).
		WhereEquals("AwaitingApproval", f.AwaitingApproval).
		WhereEquals("Approval", f.Approval)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("phase"); p != "" {
		f.Phase = &p
	}

	if a := values.Get("awaiting_approval"); a != "" {
		if b, err := strconv.ParseBool(a); err == nil {
			f.AwaitingApproval = &b
		}
	}

	if a := values.Get("approval"); a != "" {
		f.Approval = &a
	}

	return f
}

func scanSession(s repository.Scanner) (Session, error) {
	var row Session

	err := s.Scan(
		&row.ID,
		&row.Theme,
		&row.Phase,
		&row.AwaitingApproval,
		&row.Approval,
		&row.CreatedAt,
		&row.UpdatedAt,
	)

	return row, err
}

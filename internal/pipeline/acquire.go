package pipeline

import (
	"context"
	"fmt"

	"github.com/parlorgames/byline/internal/state"
)

// acquireData pulls the session's evidence bundle from the configured
// source. Items arrive with their confidentiality layers already assigned;
// nothing downstream reassigns a layer.
func acquireData(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.ParsedInput == nil {
		return state.Update{}, fmt.Errorf("%w: parsed input", ErrMissingInput)
	}

	bundle, err := rt.Source.Fetch(ctx, s.Theme)
	if err != nil {
		return state.Update{}, fmt.Errorf("fetch evidence bundle: %w", err)
	}

	return suspend(state.Update{
		Roster:   &bundle.Roster,
		Evidence: bundle.Items,
	}, state.ApprovalEvidenceReview), nil
}

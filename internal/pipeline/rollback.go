package pipeline

import (
	"fmt"
	"maps"
	"slices"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/state"
)

// Rollback rewinds a session to a previously approved checkpoint. Everything
// produced after the target is discarded: downstream documents, downstream
// approvals, downstream history, spent revision counters, and the validation
// trail. The error list survives; it is audit history, not working state.
// Overrides apply last through the reducers, letting the reviewer patch
// retained documents before the rerun.
func Rollback(s state.State, target state.ApprovalType, overrides state.Update) (state.State, error) {
	idx, ok := s.Reached(target)
	if !ok {
		return state.State{}, fmt.Errorf("%w: %s", ErrNotReached, target)
	}

	phase, ok := ResumePhase(target)
	if !ok {
		return state.State{}, fmt.Errorf("%w: %s", state.ErrInvalidApproval, target)
	}

	out := s
	out.Phase = phase
	out.AwaitingApproval = false
	out.Approval = ""
	out.History = slices.Clone(s.History[:idx+1])

	order := state.ApprovalTypes()
	approvals := maps.Clone(s.Approvals)
	for _, t := range order[slices.Index(order, target)+1:] {
		delete(approvals, t)
	}
	out.Approvals = approvals

	if target != state.ApprovalFinalReview {
		out.ValidationResults = []state.ValidationResult{}
	}

	// Each case clears the output of the stage that runs next; fallthrough
	// accumulates the downstream clears.
	switch target {
	case state.ApprovalInputReview:
		out.Roster = nil
		out.Evidence = []evidence.Item{}
		fallthrough
	case state.ApprovalEvidenceReview:
		out.PhotoAnalyses = make(map[string]state.PhotoAnalysis)
		fallthrough
	case state.ApprovalPhotoReview:
		out.Annotations = make(map[string]state.Annotation)
		fallthrough
	case state.ApprovalAnnotationReview:
		out.ArcAnalysis = nil
		out.ArcRevisions = 0
		fallthrough
	case state.ApprovalArcReview:
		out.Outline = nil
		out.OutlineRevisions = 0
		fallthrough
	case state.ApprovalOutlineReview:
		out.Article = nil
		out.ArticleRevisions = 0
		fallthrough
	case state.ApprovalArticleReview:
		out.ContentDoc = nil
		fallthrough
	case state.ApprovalContentReview:
		out.FinalDocument = ""
	}

	return state.Apply(out, overrides), nil
}

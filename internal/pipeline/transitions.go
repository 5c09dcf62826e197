package pipeline

import "github.com/parlorgames/byline/internal/state"

// transitions maps every non-terminal phase to its node. Dispatch is
// deterministic: for fixed inputs the same phase always runs the same node.
var transitions = map[state.Phase]Node{
	state.PhaseParseInput:       parseInput,
	state.PhaseAcquireData:      acquireData,
	state.PhaseAnalyzePhotos:    analyzePhotos,
	state.PhaseAnnotateEvidence: annotateEvidence,
	state.PhaseAnalyzeArcs:      analyzeArcs,
	state.PhaseReviseArcs:       reviseArcs,
	state.PhaseDraftOutline:     draftOutline,
	state.PhaseReviseOutline:    reviseOutline,
	state.PhaseDraftArticle:     draftArticle,
	state.PhaseReviseArticle:    reviseArticle,
	state.PhaseAssemble:         assemble,
	state.PhaseRender:           renderDocument,
}

// gates maps each checkpoint to the phase execution resumes at once its
// approval lands.
var gates = map[state.ApprovalType]state.Phase{
	state.ApprovalInputReview:      state.PhaseAcquireData,
	state.ApprovalEvidenceReview:   state.PhaseAnalyzePhotos,
	state.ApprovalPhotoReview:      state.PhaseAnnotateEvidence,
	state.ApprovalAnnotationReview: state.PhaseAnalyzeArcs,
	state.ApprovalArcReview:        state.PhaseDraftOutline,
	state.ApprovalOutlineReview:    state.PhaseDraftArticle,
	state.ApprovalArticleReview:    state.PhaseAssemble,
	state.ApprovalContentReview:    state.PhaseRender,
	state.ApprovalFinalReview:      state.PhaseComplete,
}

// ResumePhase returns the phase execution continues from after the given
// checkpoint. Rollback re-enters the graph here.
func ResumePhase(t state.ApprovalType) (state.Phase, bool) {
	phase, ok := gates[t]
	return phase, ok
}

// suspend marks an update as reaching a checkpoint: the resume phase is
// written and the pending-approval flag raised, so the engine persists and
// returns. Once the approval clears the flag, the next run continues at the
// resume phase.
func suspend(u state.Update, at state.ApprovalType) state.Update {
	u.Phase = state.Ptr(gates[at])
	u.AwaitingApproval = state.Ptr(true)
	u.Approval = state.Ptr(at)
	return u
}

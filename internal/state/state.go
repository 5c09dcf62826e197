// Package state defines the workflow state carried by every session and the
// reducer semantics that merge node output into it. Nodes return partial
// updates; Apply folds each present field in through its declared reducer,
// so an absent field never erases existing state.
package state

import (
	"time"

	"github.com/parlorgames/byline/internal/evidence"
)

// State is the complete record of one session's pipeline progress. It is
// persisted after every engine step; everything the control surface reports
// derives from it.
type State struct {
	Theme             string                     `json:"theme"`
	RawInput          string                     `json:"raw_input"`
	Phase             Phase                      `json:"phase"`
	AwaitingApproval  bool                       `json:"awaiting_approval"`
	Approval          ApprovalType               `json:"approval,omitempty"`
	Approvals         map[ApprovalType]Approval  `json:"approvals"`
	ParsedInput       *ParsedInput               `json:"parsed_input,omitempty"`
	Roster            *evidence.Roster           `json:"roster,omitempty"`
	Evidence          []evidence.Item            `json:"evidence"`
	PhotoAnalyses     map[string]PhotoAnalysis   `json:"photo_analyses"`
	Annotations       map[string]Annotation      `json:"annotations"`
	ArcAnalysis       *ArcAnalysis               `json:"arc_analysis,omitempty"`
	Outline           *Outline                   `json:"outline,omitempty"`
	Article           *Article                   `json:"article,omitempty"`
	ContentDoc        *ContentDocument           `json:"content_doc,omitempty"`
	FinalDocument     string                     `json:"final_document,omitempty"`
	ValidationResults []ValidationResult         `json:"validation_results"`
	Errors            []PipelineError            `json:"errors"`
	ArcRevisions      int                        `json:"arc_revisions"`
	OutlineRevisions  int                        `json:"outline_revisions"`
	ArticleRevisions  int                        `json:"article_revisions"`
	History           []HistoryEntry             `json:"history"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

// Default returns a complete, validly-typed state positioned at the first
// phase. Every field has its deterministic zero: empty collections are
// allocated so a partial update can always be applied.
func Default() State {
	return State{
		Phase:             PhaseParseInput,
		Approvals:         make(map[ApprovalType]Approval),
		Evidence:          []evidence.Item{},
		PhotoAnalyses:     make(map[string]PhotoAnalysis),
		Annotations:       make(map[string]Annotation),
		ValidationResults: []ValidationResult{},
		Errors:            []PipelineError{},
		History:           []HistoryEntry{},
	}
}

// PendingApproval returns the checkpoint the session is suspended at, if
// any.
func (s State) PendingApproval() (ApprovalType, bool) {
	if !s.AwaitingApproval {
		return "", false
	}
	return s.Approval, true
}

// Approved reports whether the given checkpoint's approval has been
// accepted.
func (s State) Approved(t ApprovalType) bool {
	_, ok := s.Approvals[t]
	return ok
}

// Reached reports whether the given checkpoint appears in the session
// history, along with the index of its most recent entry.
func (s State) Reached(t ApprovalType) (int, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Checkpoint == t {
			return i, true
		}
	}
	return 0, false
}

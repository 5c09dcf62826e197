package state_test

import (
	"reflect"
	"testing"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/state"
)

func TestDefault(t *testing.T) {
	s := state.Default()

	if s.Phase != state.PhaseParseInput {
		t.Errorf("phase %q, expected %q", s.Phase, state.PhaseParseInput)
	}
	if s.Phase.Terminal() {
		t.Error("default phase should not be terminal")
	}
	if s.AwaitingApproval {
		t.Error("default state should not be awaiting approval")
	}
	if s.Approvals == nil || s.PhotoAnalyses == nil || s.Annotations == nil {
		t.Error("default maps should be allocated")
	}
	if s.Evidence == nil || s.Errors == nil || s.History == nil || s.ValidationResults == nil {
		t.Error("default slices should be allocated")
	}
}

func TestReducersCoverState(t *testing.T) {
	table := state.Reducers()
	st := reflect.TypeOf(state.State{})

	for i := 0; i < st.NumField(); i++ {
		if _, ok := table[st.Field(i).Name]; !ok {
			t.Errorf("state field %s has no declared reducer", st.Field(i).Name)
		}
	}
	if len(table) != st.NumField() {
		t.Errorf("reducer table has %d entries, state has %d fields", len(table), st.NumField())
	}

	ut := reflect.TypeOf(state.Update{})
	for i := 0; i < ut.NumField(); i++ {
		if _, ok := st.FieldByName(ut.Field(i).Name); !ok {
			t.Errorf("update field %s has no state counterpart", ut.Field(i).Name)
		}
	}
	for i := 0; i < st.NumField(); i++ {
		name := st.Field(i).Name
		if name == "CreatedAt" || name == "UpdatedAt" {
			continue
		}
		if _, ok := ut.FieldByName(name); !ok {
			t.Errorf("state field %s has no update counterpart", name)
		}
	}
}

func TestApplyAbsentFieldsUntouched(t *testing.T) {
	s := state.Default()
	s.Theme = "Midnight Gala"
	s.Phase = state.PhaseDraftOutline
	s.ArcRevisions = 1
	s.Errors = []state.PipelineError{{Phase: state.PhaseAnalyzeArcs, Kind: state.ErrorKindInvocation, Message: "tier timeout"}}

	next := state.Apply(s, state.Update{})

	if !reflect.DeepEqual(next, s) {
		t.Errorf("empty update changed state: %+v != %+v", next, s)
	}
}

func TestApplyReplace(t *testing.T) {
	s := state.Default()
	s.FinalDocument = "draft markdown"

	next := state.Apply(s, state.Update{
		Theme:         state.Ptr("Midnight Gala"),
		Phase:         state.Ptr(state.PhaseAcquireData),
		FinalDocument: state.Ptr(""),
		ArcRevisions:  state.Ptr(2),
		ParsedInput:   &state.ParsedInput{Title: "The Gala Affair"},
	})

	if next.Theme != "Midnight Gala" {
		t.Errorf("theme %q", next.Theme)
	}
	if next.Phase != state.PhaseAcquireData {
		t.Errorf("phase %q", next.Phase)
	}
	if next.FinalDocument != "" {
		t.Errorf("final document should be cleared, got %q", next.FinalDocument)
	}
	if next.ArcRevisions != 2 {
		t.Errorf("arc revisions %d", next.ArcRevisions)
	}
	if next.ParsedInput == nil || next.ParsedInput.Title != "The Gala Affair" {
		t.Errorf("parsed input %+v", next.ParsedInput)
	}
	if s.Theme != "" || s.Phase != state.PhaseParseInput {
		t.Error("apply mutated its input")
	}
}

func TestApplyReplaceEmptySlice(t *testing.T) {
	s := state.Default()
	s.Evidence = []evidence.Item{{ID: "ev-001", Kind: "letter"}}

	next := state.Apply(s, state.Update{Evidence: []evidence.Item{}})

	if len(next.Evidence) != 0 {
		t.Errorf("expected evidence cleared, got %d items", len(next.Evidence))
	}
	if len(s.Evidence) != 1 {
		t.Error("apply mutated its input")
	}
}

func TestApplyAppend(t *testing.T) {
	s := state.Default()
	s.Errors = []state.PipelineError{
		{Phase: state.PhaseDraftArticle, Kind: state.ErrorKindInvocation, Message: "tier timeout"},
	}

	next := state.Apply(s, state.Update{
		Errors: []state.PipelineError{
			{Phase: state.PhaseDraftArticle, Kind: state.ErrorKindRevisionCap, Message: "article revision cap reached"},
		},
		History: []state.HistoryEntry{
			{Checkpoint: state.ApprovalArcReview},
		},
	})

	if len(next.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(next.Errors))
	}
	if next.Errors[0].Kind != state.ErrorKindInvocation || next.Errors[1].Kind != state.ErrorKindRevisionCap {
		t.Errorf("errors out of order: %+v", next.Errors)
	}
	if len(next.History) != 1 || next.History[0].Checkpoint != state.ApprovalArcReview {
		t.Errorf("history %+v", next.History)
	}
	if len(s.Errors) != 1 || len(s.History) != 0 {
		t.Error("apply mutated its input")
	}
}

func TestApplyMerge(t *testing.T) {
	s := state.Default()
	s.PhotoAnalyses["ev-003"] = state.PhotoAnalysis{EvidenceID: "ev-003", Description: "group portrait"}
	s.Approvals[state.ApprovalInputReview] = state.Approval{Type: state.ApprovalInputReview, ApprovedBy: "director"}

	next := state.Apply(s, state.Update{
		PhotoAnalyses: map[string]state.PhotoAnalysis{
			"ev-003": {EvidenceID: "ev-003", Description: "group portrait, re-examined"},
			"ev-007": {EvidenceID: "ev-007", Description: "torn ledger page"},
		},
		Approvals: map[state.ApprovalType]state.Approval{
			state.ApprovalArcReview: {Type: state.ApprovalArcReview, ApprovedBy: "director"},
		},
	})

	if len(next.PhotoAnalyses) != 2 {
		t.Fatalf("expected 2 photo analyses, got %d", len(next.PhotoAnalyses))
	}
	if next.PhotoAnalyses["ev-003"].Description != "group portrait, re-examined" {
		t.Errorf("merge should overwrite existing key: %q", next.PhotoAnalyses["ev-003"].Description)
	}
	if len(next.Approvals) != 2 {
		t.Errorf("expected 2 approvals, got %d", len(next.Approvals))
	}
	if s.PhotoAnalyses["ev-003"].Description != "group portrait" {
		t.Error("apply mutated its input map")
	}
	if len(s.Approvals) != 1 {
		t.Error("apply mutated its input map")
	}
}

func TestApplyMergeIntoNilMap(t *testing.T) {
	var s state.State

	next := state.Apply(s, state.Update{
		Annotations: map[string]state.Annotation{
			"ev-001": {EvidenceID: "ev-001", Summary: "establishes the inheritance dispute"},
		},
	})

	if len(next.Annotations) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(next.Annotations))
	}
}

func TestPendingApproval(t *testing.T) {
	s := state.Default()
	if _, ok := s.PendingApproval(); ok {
		t.Error("default state should have no pending approval")
	}

	s.AwaitingApproval = true
	s.Approval = state.ApprovalOutlineReview

	pending, ok := s.PendingApproval()
	if !ok || pending != state.ApprovalOutlineReview {
		t.Errorf("pending = %q, %t", pending, ok)
	}
}

func TestReached(t *testing.T) {
	s := state.Default()
	s.History = []state.HistoryEntry{
		{Checkpoint: state.ApprovalInputReview},
		{Checkpoint: state.ApprovalArcReview},
		{Checkpoint: state.ApprovalInputReview},
	}

	if i, ok := s.Reached(state.ApprovalInputReview); !ok || i != 2 {
		t.Errorf("reached input_review = %d, %t", i, ok)
	}
	if i, ok := s.Reached(state.ApprovalArcReview); !ok || i != 1 {
		t.Errorf("reached arc_review = %d, %t", i, ok)
	}
	if _, ok := s.Reached(state.ApprovalFinalReview); ok {
		t.Error("final_review should not be reached")
	}
}

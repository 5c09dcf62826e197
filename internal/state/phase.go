package state

import (
	"encoding/json"
	"slices"
)

// Phase identifies where a session sits in the pipeline. The set is closed;
// the engine dispatches nodes through an explicit transition table keyed by
// these values.
type Phase string

// Pipeline phases in graph order, plus the two terminals.
const (
	PhaseParseInput       Phase = "parse_input"
	PhaseAcquireData      Phase = "acquire_data"
	PhaseAnalyzePhotos    Phase = "analyze_photos"
	PhaseAnnotateEvidence Phase = "annotate_evidence"
	PhaseAnalyzeArcs      Phase = "analyze_arcs"
	PhaseReviseArcs       Phase = "revise_arcs"
	PhaseDraftOutline     Phase = "draft_outline"
	PhaseReviseOutline    Phase = "revise_outline"
	PhaseDraftArticle     Phase = "draft_article"
	PhaseReviseArticle    Phase = "revise_article"
	PhaseAssemble         Phase = "assemble"
	PhaseRender           Phase = "render"
	PhaseComplete         Phase = "complete"
	PhaseError            Phase = "error"
)

var phases = []Phase{
	PhaseParseInput,
	PhaseAcquireData,
	PhaseAnalyzePhotos,
	PhaseAnnotateEvidence,
	PhaseAnalyzeArcs,
	PhaseReviseArcs,
	PhaseDraftOutline,
	PhaseReviseOutline,
	PhaseDraftArticle,
	PhaseReviseArticle,
	PhaseAssemble,
	PhaseRender,
	PhaseComplete,
	PhaseError,
}

// Phases returns the list of valid phases.
func Phases() []Phase {
	return phases
}

// Terminal reports whether the phase ends the pipeline.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// UnmarshalJSON validates that the decoded string is a known phase value.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Phase(raw)
	if !slices.Contains(phases, v) {
		return ErrInvalidPhase
	}
	*p = v
	return nil
}

// ParsePhase validates a string as a known phase.
// Returns ErrInvalidPhase if the value is not recognized.
func ParsePhase(s string) (Phase, error) {
	v := Phase(s)
	if !slices.Contains(phases, v) {
		return "", ErrInvalidPhase
	}
	return v, nil
}

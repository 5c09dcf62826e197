package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/invoke"
)

// analyzeArcs extracts the session's narrative threads from the annotated
// evidence and picks the lead.
func analyzeArcs(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.Roster == nil {
		return state.Update{}, fmt.Errorf("%w: roster", ErrMissingInput)
	}
	return attemptArcs(ctx, rt, s, s.ArcRevisions, nil)
}

// reviseArcs regenerates the arc analysis against the accumulated problem
// list. The cap is checked on entry: a session arriving here with its
// revisions spent fails rather than burning another attempt.
func reviseArcs(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.ArcRevisions >= ArcRevisionCap {
		return state.Update{}, fmt.Errorf("%w: arcs after %d revisions", ErrRevisionCap, s.ArcRevisions)
	}
	return attemptArcs(ctx, rt, s, s.ArcRevisions+1, stageProblems(s, "arcs"))
}

func attemptArcs(ctx context.Context, rt *Runtime, s state.State, revisions int, problems []string) (state.Update, error) {
	sc := buildStoryContext(s)
	sc.Arcs = s.ArcAnalysis // previous attempt, when revising

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageArcs, sc, problems)
	if err != nil {
		return state.Update{}, err
	}

	raw, err := invoke.Generate[json.RawMessage](ctx, rt.Invoker, invoke.Request{
		Prompt: prompt,
		Tier:   invoke.TierLong,
		Schema: string(schemas.ArcAnalysis),
	})
	if err != nil {
		return state.Update{}, err
	}

	doc, vr, err := gate(rt, "arcs", schemas.ArcAnalysis, raw, s, checkArcs)
	if err != nil {
		return state.Update{}, err
	}

	results := []state.ValidationResult{vr}
	pass := vr.Valid
	if pass {
		adv, err := advise(ctx, rt, "arcs", doc)
		if err != nil {
			return state.Update{}, err
		}
		results = append(results, adv)
		pass = adv.Valid
	}

	u := state.Update{
		ArcAnalysis:       doc,
		ValidationResults: appendResults(s, results...),
		ArcRevisions:      state.Ptr(revisions),
	}
	if !pass {
		u.Phase = state.Ptr(state.PhaseReviseArcs)
		return u, nil
	}
	return suspend(u, state.ApprovalArcReview), nil
}

// checkArcs enforces what the schema cannot: full roster coverage, resolvable
// citations, and a lead that names one of the arcs.
func checkArcs(s state.State, doc *state.ArcAnalysis) []string {
	var issues []string

	if len(doc.Arcs) == 0 {
		issues = append(issues, "analysis names no arcs")
	}

	if s.Roster != nil {
		for _, p := range s.Roster.Players {
			if !doc.PlayerCovered(p.Name) {
				issues = append(issues, fmt.Sprintf("player %s appears in no arc", p.Name))
			}
		}
	}

	for _, ref := range citable(s).ResolveRefs(doc.EvidenceRefs()) {
		issues = append(issues, fmt.Sprintf("evidence ref %s does not name a citable item", ref))
	}

	switch {
	case doc.Lead == "":
		issues = append(issues, "no lead arc chosen")
	case !slices.ContainsFunc(doc.Arcs, func(a state.Arc) bool { return a.Title == doc.Lead }):
		issues = append(issues, fmt.Sprintf("lead arc %q is not among the arcs", doc.Lead))
	}

	return issues
}

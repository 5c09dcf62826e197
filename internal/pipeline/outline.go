package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/invoke"
)

// draftOutline plans the article's sections from the approved arc analysis.
func draftOutline(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.ArcAnalysis == nil {
		return state.Update{}, fmt.Errorf("%w: arc analysis", ErrMissingInput)
	}
	return attemptOutline(ctx, rt, s, s.OutlineRevisions, nil)
}

// reviseOutline regenerates the outline against the accumulated problem
// list, failing on entry once the cap is spent.
func reviseOutline(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.OutlineRevisions >= OutlineRevisionCap {
		return state.Update{}, fmt.Errorf("%w: outline after %d revisions", ErrRevisionCap, s.OutlineRevisions)
	}
	return attemptOutline(ctx, rt, s, s.OutlineRevisions+1, stageProblems(s, "outline"))
}

func attemptOutline(ctx context.Context, rt *Runtime, s state.State, revisions int, problems []string) (state.Update, error) {
	sc := buildStoryContext(s)
	sc.Arcs = s.ArcAnalysis
	sc.Outline = s.Outline // previous attempt, when revising

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageOutline, sc, problems)
	if err != nil {
		return state.Update{}, err
	}

	raw, err := invoke.Generate[json.RawMessage](ctx, rt.Invoker, invoke.Request{
		Prompt: prompt,
		Tier:   invoke.TierMedium,
		Schema: string(schemas.Outline),
	})
	if err != nil {
		return state.Update{}, err
	}

	doc, vr, err := gate(rt, "outline", schemas.Outline, raw, s, checkOutline)
	if err != nil {
		return state.Update{}, err
	}

	results := []state.ValidationResult{vr}
	pass := vr.Valid
	if pass {
		adv, err := advise(ctx, rt, "outline", doc)
		if err != nil {
			return state.Update{}, err
		}
		results = append(results, adv)
		pass = adv.Valid
	}

	u := state.Update{
		Outline:           doc,
		ValidationResults: appendResults(s, results...),
		OutlineRevisions:  state.Ptr(revisions),
	}
	if !pass {
		u.Phase = state.Ptr(state.PhaseReviseOutline)
		return u, nil
	}
	return suspend(u, state.ApprovalOutlineReview), nil
}

// checkOutline enforces unique section ids and that every arc and evidence
// reference resolves against the approved analysis.
func checkOutline(s state.State, doc *state.Outline) []string {
	var issues []string

	if len(doc.Sections) == 0 {
		issues = append(issues, "outline has no sections")
	}

	seen := make(map[string]struct{}, len(doc.Sections))
	for _, section := range doc.Sections {
		if section.ID == "" {
			issues = append(issues, fmt.Sprintf("section %q has no id", section.Heading))
			continue
		}
		if _, dup := seen[section.ID]; dup {
			issues = append(issues, fmt.Sprintf("duplicate section id %s", section.ID))
		}
		seen[section.ID] = struct{}{}
	}

	arcTitles := make(map[string]struct{})
	if s.ArcAnalysis != nil {
		for _, arc := range s.ArcAnalysis.Arcs {
			arcTitles[arc.Title] = struct{}{}
		}
	}
	for _, section := range doc.Sections {
		for _, ref := range section.ArcRefs {
			if _, ok := arcTitles[ref]; !ok {
				issues = append(issues, fmt.Sprintf("section %s references unknown arc %q", section.ID, ref))
			}
		}
	}

	for _, ref := range citable(s).ResolveRefs(doc.EvidenceRefs()) {
		issues = append(issues, fmt.Sprintf("evidence ref %s does not name a citable item", ref))
	}

	return issues
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/invoke"
)

// draftArticle writes the piece the outline planned.
func draftArticle(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.Outline == nil {
		return state.Update{}, fmt.Errorf("%w: outline", ErrMissingInput)
	}
	return attemptArticle(ctx, rt, s, s.ArticleRevisions, nil)
}

// reviseArticle regenerates the article against the accumulated problem
// list, failing on entry once the cap is spent.
func reviseArticle(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.ArticleRevisions >= ArticleRevisionCap {
		return state.Update{}, fmt.Errorf("%w: article after %d revisions", ErrRevisionCap, s.ArticleRevisions)
	}
	return attemptArticle(ctx, rt, s, s.ArticleRevisions+1, stageProblems(s, "article"))
}

func attemptArticle(ctx context.Context, rt *Runtime, s state.State, revisions int, problems []string) (state.Update, error) {
	sc := buildStoryContext(s)
	sc.Arcs = s.ArcAnalysis
	sc.Outline = s.Outline
	sc.Article = s.Article // previous attempt, when revising

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageArticle, sc, problems)
	if err != nil {
		return state.Update{}, err
	}

	raw, err := invoke.Generate[json.RawMessage](ctx, rt.Invoker, invoke.Request{
		Prompt: prompt,
		Tier:   invoke.TierLong,
		Schema: string(schemas.Article),
	})
	if err != nil {
		return state.Update{}, err
	}

	check := func(s state.State, doc *state.Article) []string {
		return checkArticle(s, doc, rt.Config.MinLeakRun)
	}
	doc, vr, err := gate(rt, "article", schemas.Article, raw, s, check)
	if err != nil {
		return state.Update{}, err
	}

	results := []state.ValidationResult{vr}
	pass := vr.Valid
	if pass {
		adv, err := advise(ctx, rt, "article", doc)
		if err != nil {
			return state.Update{}, err
		}
		results = append(results, adv)
		pass = adv.Valid
	}

	u := state.Update{
		Article:           doc,
		ValidationResults: appendResults(s, results...),
		ArticleRevisions:  state.Ptr(revisions),
	}
	if !pass {
		u.Phase = state.Ptr(state.PhaseReviseArticle)
		return u, nil
	}
	return suspend(u, state.ApprovalArticleReview), nil
}

// checkArticle enforces outline fidelity both ways and the buried-narrative
// policy: every outline section written, no sections the outline never
// planned, and no verbatim run copied out of a buried narrative.
func checkArticle(s state.State, doc *state.Article, minLeakRun int) []string {
	var issues []string

	if s.Outline != nil {
		for _, id := range s.Outline.SectionIDs() {
			if !doc.CoversSection(id) {
				issues = append(issues, fmt.Sprintf("outline section %s was not written", id))
			}
		}

		planned := make(map[string]struct{}, len(s.Outline.Sections))
		for _, section := range s.Outline.Sections {
			planned[section.ID] = struct{}{}
		}
		for _, section := range doc.Sections {
			if _, ok := planned[section.SectionID]; !ok {
				issues = append(issues, fmt.Sprintf("section %s appears in no outline", section.SectionID))
			}
		}
	}

	for _, leak := range evidence.VerbatimLeaks(doc.Text(), s.Evidence, minLeakRun) {
		issues = append(issues, fmt.Sprintf("buried narrative from %s reproduced verbatim: %q", leak.EvidenceID, leak.Fragment))
	}

	return issues
}

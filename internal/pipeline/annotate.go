package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/batch"
	"github.com/parlorgames/byline/pkg/invoke"
)

// annotateItem is one evidence item as the annotate stage sees it.
// Annotations are internal working notes, so the full narrative is shown
// regardless of layer; the confidentiality policy governs published output,
// not analysis.
type annotateItem struct {
	ID        string               `json:"id"`
	Kind      string               `json:"kind"`
	Title     string               `json:"title"`
	Layer     string               `json:"layer"`
	Tags      []string             `json:"tags,omitempty"`
	Narrative string               `json:"narrative"`
	Photo     *state.PhotoAnalysis `json:"photo,omitempty"`
}

type annotateContext struct {
	Session *state.ParsedInput `json:"session,omitempty"`
	Roster  *evidence.Roster   `json:"roster,omitempty"`
	Items   []annotateItem     `json:"items"`
}

// annotateEvidence ties every evidence item into the session narrative.
// Items run in batches with bounded concurrency; each batch must come back
// with exactly one annotation per item or the batch fails and is retried.
func annotateEvidence(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if len(s.Evidence) == 0 {
		return suspend(state.Update{}, state.ApprovalAnnotationReview), nil
	}

	runner := func(ctx context.Context, items []evidence.Item) ([]state.Annotation, error) {
		return annotateBatch(ctx, rt, s, items)
	}

	result := batch.Run(ctx, s.Evidence, rt.Config.Batch, runner)
	if result.Failed() {
		return state.Update{}, fmt.Errorf("annotate evidence: %d batches failed: %w",
			len(result.Failures), result.Failures[0].Err)
	}

	byID := make(map[string]state.Annotation, len(result.Results))
	for _, a := range result.Results {
		byID[a.EvidenceID] = a
	}

	return suspend(state.Update{Annotations: byID}, state.ApprovalAnnotationReview), nil
}

func annotateBatch(ctx context.Context, rt *Runtime, s state.State, items []evidence.Item) ([]state.Annotation, error) {
	batchCtx := annotateContext{
		Session: s.ParsedInput,
		Roster:  s.Roster,
		Items:   make([]annotateItem, 0, len(items)),
	}
	for _, item := range items {
		it := annotateItem{
			ID:        item.ID,
			Kind:      item.Kind,
			Title:     item.Title,
			Layer:     string(item.Layer),
			Tags:      item.Tags,
			Narrative: item.Narrative,
		}
		if pa, ok := s.PhotoAnalyses[item.ID]; ok {
			it.Photo = &pa
		}
		batchCtx.Items = append(batchCtx.Items, it)
	}

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageAnnotate, batchCtx, nil)
	if err != nil {
		return nil, err
	}

	raw, err := invoke.Generate[json.RawMessage](ctx, rt.Invoker, invoke.Request{
		Prompt: prompt,
		Tier:   invoke.TierMedium,
		Schema: string(schemas.AnnotationBatch),
	})
	if err != nil {
		return nil, err
	}

	res, err := rt.Validator.Validate(schemas.AnnotationBatch, raw)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", schemas.AnnotationBatch, err)
	}
	if !res.Valid {
		return nil, fmt.Errorf("%w: %s", ErrContract, strings.Join(res.Messages(), "; "))
	}

	var doc state.AnnotationBatch
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode annotation batch: %w", err)
	}

	return alignAnnotations(items, doc.Annotations)
}

// alignAnnotations matches returned annotations to the batch items by id,
// in input order. Missing or unknown ids fail the batch; the retry pass
// gives the model one more chance at discipline.
func alignAnnotations(items []evidence.Item, annotations []state.Annotation) ([]state.Annotation, error) {
	byID := make(map[string]state.Annotation, len(annotations))
	for _, a := range annotations {
		byID[a.EvidenceID] = a
	}

	known := make(map[string]struct{}, len(items))
	aligned := make([]state.Annotation, 0, len(items))

	var missing []string
	for _, item := range items {
		known[item.ID] = struct{}{}
		a, ok := byID[item.ID]
		if !ok {
			missing = append(missing, item.ID)
			continue
		}
		aligned = append(aligned, a)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: no annotation for %s", ErrContract, strings.Join(missing, ", "))
	}

	for _, a := range annotations {
		if _, ok := known[a.EvidenceID]; !ok {
			return nil, fmt.Errorf("%w: annotation for unknown item %s", ErrContract, a.EvidenceID)
		}
	}

	return aligned, nil
}

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

// gate validates raw model output against the stage schema, decodes it, and
// runs the stage's structural checks. The document is returned even when the
// attempt fails (if it decodes at all) so revision prompts can show the model
// its previous output. Only infrastructure faults surface as errors;
// contract failures live in the ValidationResult.
func gate[T any](
	rt *Runtime,
	stage string,
	schema schemas.Name,
	raw json.RawMessage,
	s state.State,
	check func(s state.State, doc *T) []string,
) (*T, state.ValidationResult, error) {
	res, err := rt.Validator.Validate(schema, raw)
	if err != nil {
		return nil, state.ValidationResult{}, fmt.Errorf("validate %s: %w", schema, err)
	}

	var doc T
	decodeErr := json.Unmarshal(raw, &doc)

	if !res.Valid {
		vr := state.ValidationResult{Stage: stage, Valid: false, Errors: res.Messages()}
		if decodeErr != nil {
			return nil, vr, nil
		}
		return &doc, vr, nil
	}

	// Schema-valid output always decodes; anything else is a type drift bug.
	if decodeErr != nil {
		return nil, state.ValidationResult{}, fmt.Errorf("decode %s output: %w", stage, decodeErr)
	}

	if issues := check(s, &doc); len(issues) > 0 {
		return &doc, state.ValidationResult{Stage: stage, Valid: false, Errors: issues}, nil
	}

	return &doc, state.ValidationResult{Stage: stage, Valid: true}, nil
}

// advisoryResponse is the advisory reviewer's verdict shape.
type advisoryResponse struct {
	Satisfied bool     `json:"satisfied"`
	Concerns  []string `json:"concerns"`
}

type advisoryContext struct {
	Stage    string `json:"stage"`
	Document any    `json:"document"`
}

// advise runs the skeptical-editor pass over a structurally valid document.
// It only runs after structural checks pass; a structural failure skips the
// model call entirely.
func advise(ctx context.Context, rt *Runtime, stage string, doc any) (state.ValidationResult, error) {
	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageAdvisory, advisoryContext{Stage: stage, Document: doc}, nil)
	if err != nil {
		return state.ValidationResult{}, err
	}

	verdict, err := invoke.Generate[advisoryResponse](ctx, rt.Invoker, invoke.Request{
		Prompt: prompt,
		Tier:   invoke.TierShort,
	})
	if err != nil {
		return state.ValidationResult{}, err
	}

	name := stage + "_advisory"
	if verdict.Satisfied {
		return state.ValidationResult{Stage: name, Valid: true}, nil
	}

	concerns := verdict.Concerns
	if len(concerns) == 0 {
		concerns = []string{"the advisory reviewer was not satisfied"}
	}
	return state.ValidationResult{Stage: name, Valid: false, Errors: concerns}, nil
}

// stageProblems collects every distinct failure message recorded for the
// stage and its advisory companion, oldest first. Revision prompts replay
// the accumulated list.
func stageProblems(s state.State, stage string) []string {
	var out []string
	for _, vr := range s.ValidationResults {
		if vr.Valid {
			continue
		}
		if vr.Stage != stage && vr.Stage != stage+"_advisory" {
			continue
		}
		for _, e := range vr.Errors {
			if !slices.Contains(out, e) {
				out = append(out, e)
			}
		}
	}
	return out
}

// appendResults returns the session's validation results extended with the
// given entries, cloned for a replace update.
func appendResults(s state.State, results ...state.ValidationResult) []state.ValidationResult {
	return append(slices.Clone(s.ValidationResults), results...)
}

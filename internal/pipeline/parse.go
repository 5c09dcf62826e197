package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/invoke"
)

// parseContext is the session material handed to the parse stage.
type parseContext struct {
	Theme string `json:"theme"`
	Notes string `json:"notes"`
}

// parseInput distills the operator's raw session notes into a structured
// summary. Parsing has no revision loop: notes the model cannot turn into a
// valid document fail the session, and the recovery is a new session with
// better notes.
func parseInput(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if strings.TrimSpace(s.RawInput) == "" {
		return state.Update{}, fmt.Errorf("%w: raw session notes", ErrMissingInput)
	}

	prompt, err := ComposePrompt(ctx, rt.Prompts, prompts.StageParse, parseContext{
		Theme: s.Theme,
		Notes: s.RawInput,
	}, nil)
	if err != nil {
		return state.Update{}, err
	}

	raw, err := invoke.Generate[json.RawMessage](ctx, rt.Invoker, invoke.Request{
		Prompt: prompt,
		Tier:   invoke.TierMedium,
		Schema: string(schemas.ParsedInput),
	})
	if err != nil {
		return state.Update{}, err
	}

	res, err := rt.Validator.Validate(schemas.ParsedInput, raw)
	if err != nil {
		return state.Update{}, fmt.Errorf("validate %s: %w", schemas.ParsedInput, err)
	}
	if !res.Valid {
		return state.Update{}, fmt.Errorf("%w: %s", ErrContract, strings.Join(res.Messages(), "; "))
	}

	var doc state.ParsedInput
	if err := json.Unmarshal(raw, &doc); err != nil {
		return state.Update{}, fmt.Errorf("decode parsed input: %w", err)
	}

	return suspend(state.Update{ParsedInput: &doc}, state.ApprovalInputReview), nil
}

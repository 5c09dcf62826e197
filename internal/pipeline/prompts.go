package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parlorgames/byline/internal/prompts"
)

// ComposePrompt builds a stage prompt from the tunable instructions, the
// immutable output specification, and an optional context document rendered
// as indented JSON. Revision prompts additionally carry the accumulated
// problems from failed attempts.
func ComposePrompt(
	ctx context.Context,
	ps prompts.System,
	stage prompts.Stage,
	contextDoc any,
	problems []string,
) (string, error) {
	instructions, err := ps.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := ps.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	if contextDoc != nil {
		contextJSON, err := json.MarshalIndent(contextDoc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("serialize %s context: %w", stage, err)
		}

		sb.WriteString("\n\nSession context:\n\n")
		sb.WriteString(string(contextJSON))
	}

	if len(problems) > 0 {
		sb.WriteString("\n\nYour previous attempt failed these checks. Fix every one of them:\n")
		for _, p := range problems {
			sb.WriteString("- ")
			sb.WriteString(p)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

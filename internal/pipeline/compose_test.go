package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/parlorgames/byline/internal/pipeline"
	"github.com/parlorgames/byline/internal/prompts"
)

func TestComposePrompt(t *testing.T) {
	instructions, err := prompts.Instructions(prompts.StageArcs)
	if err != nil {
		t.Fatalf("default instructions: %v", err)
	}
	spec, err := prompts.Spec(prompts.StageArcs)
	if err != nil {
		t.Fatalf("default spec: %v", err)
	}

	contextDoc := map[string]string{"theme": "blackwood"}
	problems := []string{"player Felix appears in no arc", "no lead arc chosen"}

	prompt, err := pipeline.ComposePrompt(context.Background(), staticPrompts{}, prompts.StageArcs, contextDoc, problems)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	if !strings.HasPrefix(prompt, instructions) {
		t.Error("prompt should open with the stage instructions")
	}
	if !strings.Contains(prompt, spec) {
		t.Error("prompt should carry the output specification")
	}
	if !strings.Contains(prompt, "Session context:") || !strings.Contains(prompt, `"theme": "blackwood"`) {
		t.Error("prompt should embed the context document as indented JSON")
	}

	specIdx := strings.Index(prompt, spec)
	ctxIdx := strings.Index(prompt, "Session context:")
	if ctxIdx < specIdx {
		t.Error("context must follow the specification")
	}

	for _, p := range problems {
		if !strings.Contains(prompt, "- "+p) {
			t.Errorf("prompt missing problem %q", p)
		}
	}
}

func TestComposePromptWithoutContext(t *testing.T) {
	prompt, err := pipeline.ComposePrompt(context.Background(), staticPrompts{}, prompts.StageParse, nil, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	if strings.Contains(prompt, "Session context:") {
		t.Error("nil context should add no context block")
	}
	if strings.Contains(prompt, "previous attempt") {
		t.Error("no problems should add no revision block")
	}
}

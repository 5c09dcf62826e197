package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/schemas"
	"github.com/parlorgames/byline/internal/state"
)

// assemble builds the content document deterministically from approved
// state. No model runs here: the article travels as written, the sidebar
// and photo credits are derived, and the result is validated before the
// reviewer sees it.
func assemble(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.Article == nil {
		return state.Update{}, fmt.Errorf("%w: article", ErrMissingInput)
	}

	doc := state.ContentDocument{
		Headline:     s.Article.Headline,
		Byline:       s.Article.Byline,
		Lede:         s.Article.Lede,
		Sections:     s.Article.Sections,
		Sidebar:      buildSidebar(s),
		PhotoCredits: buildPhotoCredits(s),
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return state.Update{}, fmt.Errorf("serialize content document: %w", err)
	}

	res, err := rt.Validator.Validate(schemas.ContentDocument, raw)
	if err != nil {
		return state.Update{}, fmt.Errorf("validate %s: %w", schemas.ContentDocument, err)
	}
	if !res.Valid {
		// Assembly is deterministic; an invalid document is a bug, not
		// something a revision loop can fix.
		return state.Update{}, fmt.Errorf("%w: %s", ErrContract, strings.Join(res.Messages(), "; "))
	}

	u := state.Update{
		ContentDoc:        &doc,
		ValidationResults: appendResults(s, state.ValidationResult{Stage: "content", Valid: true}),
	}
	return suspend(u, state.ApprovalContentReview), nil
}

// buildSidebar derives the supplementary panels. The slice is never nil:
// the document schema wants an array even when every panel is empty.
func buildSidebar(s state.State) []state.SidebarWidget {
	widgets := []state.SidebarWidget{}

	if s.Roster != nil && len(s.Roster.Players) > 0 {
		items := make([]string, 0, len(s.Roster.Players))
		for _, p := range s.Roster.Players {
			if p.Character != "" {
				items = append(items, fmt.Sprintf("%s as %s", p.Name, p.Character))
				continue
			}
			items = append(items, p.Name)
		}
		widgets = append(widgets, state.SidebarWidget{Kind: "roster", Title: "The Players", Items: items})
	}

	var central []string
	for _, item := range s.Evidence {
		a, ok := s.Annotations[item.ID]
		if !ok || a.Relevance != "central" {
			continue
		}
		central = append(central, a.Summary)
	}
	if len(central) > 0 {
		widgets = append(widgets, state.SidebarWidget{Kind: "evidence", Title: "The Evidence", Items: central})
	}

	if s.ParsedInput != nil && len(s.ParsedInput.KeyEvents) > 0 {
		widgets = append(widgets, state.SidebarWidget{Kind: "timeline", Title: "How the Evening Unfolded", Items: s.ParsedInput.KeyEvents})
	}

	return widgets
}

// buildPhotoCredits lists analyzed attachments in evidence order. Director
// items never surface in published output.
func buildPhotoCredits(s state.State) []string {
	var credits []string
	for _, item := range s.Evidence {
		if item.Layer == evidence.LayerDirector {
			continue
		}
		pa, ok := s.PhotoAnalyses[item.ID]
		if !ok {
			continue
		}
		credits = append(credits, fmt.Sprintf("%s: %s", item.Title, pa.Description))
	}
	return credits
}

// renderDocument sends the approved content document to the rendering
// collaborator and holds the result for final review.
func renderDocument(ctx context.Context, rt *Runtime, s state.State) (state.Update, error) {
	if s.ContentDoc == nil {
		return state.Update{}, fmt.Errorf("%w: content document", ErrMissingInput)
	}

	html, err := rt.Render.Render(ctx, *s.ContentDoc)
	if err != nil {
		return state.Update{}, fmt.Errorf("render document: %w", err)
	}

	u := state.Update{
		FinalDocument:     state.Ptr(html),
		ValidationResults: appendResults(s, state.ValidationResult{Stage: "render", Valid: true}),
	}
	return suspend(u, state.ApprovalFinalReview), nil
}

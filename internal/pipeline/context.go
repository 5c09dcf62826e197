package pipeline

import (
	"github.com/parlorgames/byline/internal/evidence"
	"github.com/parlorgames/byline/internal/state"
)

// storyItem is an evidence item as the writing stages may see it. Exposed
// narratives travel whole; a buried narrative never enters a writing prompt,
// its annotation summary stands in for it.
type storyItem struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Title     string   `json:"title"`
	Layer     string   `json:"layer"`
	Tags      []string `json:"tags,omitempty"`
	Narrative string   `json:"narrative,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Relevance string   `json:"relevance,omitempty"`
	Mentions  []string `json:"mentions,omitempty"`
}

// storyContext is the session material the arc, outline, and article stages
// prompt with. Director items never appear as evidence; their narratives
// surface only as anonymous emphasis guidance.
type storyContext struct {
	Session  *state.ParsedInput    `json:"session,omitempty"`
	Roster   *evidence.Roster      `json:"roster,omitempty"`
	Evidence []storyItem           `json:"evidence"`
	Photos   []state.PhotoAnalysis `json:"photos,omitempty"`
	Guidance []string              `json:"guidance,omitempty"`
	Arcs     *state.ArcAnalysis    `json:"arcs,omitempty"`
	Outline  *state.Outline        `json:"outline,omitempty"`
	Article  *state.Article        `json:"article,omitempty"`
}

// buildStoryContext shapes session state by confidentiality layer for the
// writing stages.
func buildStoryContext(s state.State) storyContext {
	sc := storyContext{
		Session:  s.ParsedInput,
		Roster:   s.Roster,
		Evidence: make([]storyItem, 0, len(s.Evidence)),
	}

	for _, item := range s.Evidence {
		if item.Layer == evidence.LayerDirector {
			if item.Narrative != "" {
				sc.Guidance = append(sc.Guidance, item.Narrative)
			}
			continue
		}

		si := storyItem{
			ID:    item.ID,
			Kind:  item.Kind,
			Title: item.Title,
			Layer: string(item.Layer),
			Tags:  item.Tags,
		}
		if item.Quotable() {
			si.Narrative = item.Narrative
		}
		if a, ok := s.Annotations[item.ID]; ok {
			si.Summary = a.Summary
			si.Relevance = a.Relevance
			si.Mentions = a.Mentions
		}
		sc.Evidence = append(sc.Evidence, si)
	}

	for _, item := range s.Evidence {
		if pa, ok := s.PhotoAnalyses[item.ID]; ok {
			sc.Photos = append(sc.Photos, pa)
		}
	}

	return sc
}

// citable returns the evidence the article may reference: every exposed and
// buried item. Director items are uncitable.
func citable(s state.State) *evidence.Bundle {
	b := &evidence.Bundle{Items: make([]evidence.Item, 0, len(s.Evidence))}
	if s.Roster != nil {
		b.Roster = *s.Roster
	}
	for _, item := range s.Evidence {
		if item.Layer != evidence.LayerDirector {
			b.Items = append(b.Items, item)
		}
	}
	return b
}

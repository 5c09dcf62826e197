package state

// ParsedInput is the structured interpretation of the operator's raw
// session notes, produced by the parse_input phase.
type ParsedInput struct {
	Title     string   `json:"title"`
	Setting   string   `json:"setting"`
	Summary   string   `json:"summary"`
	Players   []string `json:"players"`
	KeyEvents []string `json:"key_events"`
}

// PhotoAnalysis is the vision model's structured description of one
// photographic evidence item.
type PhotoAnalysis struct {
	EvidenceID  string   `json:"evidence_id"`
	Description string   `json:"description"`
	Subjects    []string `json:"subjects"`
	Mood        string   `json:"mood"`
	Details     []string `json:"details"`
}

// Annotation ties one evidence item into the session narrative: what it
// means, how central it is, and which players it implicates.
type Annotation struct {
	EvidenceID string   `json:"evidence_id"`
	Summary    string   `json:"summary"`
	Relevance  string   `json:"relevance"`
	Mentions   []string `json:"mentions"`
}

// AnnotationBatch is the annotate stage's output for one evidence batch.
type AnnotationBatch struct {
	Annotations []Annotation `json:"annotations"`
}

// Arc is one narrative thread through the session.
type Arc struct {
	Title        string   `json:"title"`
	Players      []string `json:"players"`
	Summary      string   `json:"summary"`
	EvidenceRefs []string `json:"evidence_refs"`
	Beats        []string `json:"beats"`
}

// ArcAnalysis is the arc stage's output: the threads the article can
// follow and which one leads.
type ArcAnalysis struct {
	Arcs    []Arc    `json:"arcs"`
	Lead    string   `json:"lead"`
	Threads []string `json:"threads,omitempty"`
}

// PlayerCovered reports whether name appears in any arc's player list.
func (a *ArcAnalysis) PlayerCovered(name string) bool {
	for _, arc := range a.Arcs {
		for _, player := range arc.Players {
			if player == name {
				return true
			}
		}
	}
	return false
}

// EvidenceRefs returns every evidence reference across all arcs.
func (a *ArcAnalysis) EvidenceRefs() []string {
	var refs []string
	for _, arc := range a.Arcs {
		refs = append(refs, arc.EvidenceRefs...)
	}
	return refs
}

// OutlineSection plans one section of the article.
type OutlineSection struct {
	ID           string   `json:"id"`
	Heading      string   `json:"heading"`
	Purpose      string   `json:"purpose"`
	ArcRefs      []string `json:"arc_refs,omitempty"`
	EvidenceRefs []string `json:"evidence_refs,omitempty"`
}

// Outline is the article plan produced by the outline stage.
type Outline struct {
	Headline string           `json:"headline"`
	Angle    string           `json:"angle"`
	Sections []OutlineSection `json:"sections"`
}

// SectionIDs returns the outline's section ids in order.
func (o *Outline) SectionIDs() []string {
	ids := make([]string, 0, len(o.Sections))
	for _, s := range o.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// EvidenceRefs returns every evidence reference across all sections.
func (o *Outline) EvidenceRefs() []string {
	var refs []string
	for _, s := range o.Sections {
		refs = append(refs, s.EvidenceRefs...)
	}
	return refs
}

// ArticleSection is one written section, tied back to the outline section
// it realizes.
type ArticleSection struct {
	SectionID string `json:"section_id"`
	Heading   string `json:"heading"`
	Body      string `json:"body"`
	PullQuote string `json:"pull_quote,omitempty"`
}

// Article is the drafted piece produced by the article stage.
type Article struct {
	Headline string           `json:"headline"`
	Byline   string           `json:"byline"`
	Lede     string           `json:"lede"`
	Sections []ArticleSection `json:"sections"`
}

// CoversSection reports whether any article section realizes the given
// outline section id.
func (a *Article) CoversSection(id string) bool {
	for _, s := range a.Sections {
		if s.SectionID == id {
			return true
		}
	}
	return false
}

// Text returns the article's full prose for policy scans.
func (a *Article) Text() string {
	text := a.Headline + "\n" + a.Lede
	for _, s := range a.Sections {
		text += "\n" + s.Heading + "\n" + s.Body
		if s.PullQuote != "" {
			text += "\n" + s.PullQuote
		}
	}
	return text
}

// SidebarWidget is one supplementary panel in the content document, such as
// a roster box or evidence gallery.
type SidebarWidget struct {
	Kind  string   `json:"kind"`
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// ContentDocument is the validated structured document handed to the
// rendering collaborator. The pipeline has no knowledge of markup; the
// renderer owns layout.
type ContentDocument struct {
	Headline     string           `json:"headline"`
	Byline       string           `json:"byline"`
	Lede         string           `json:"lede"`
	Sections     []ArticleSection `json:"sections"`
	Sidebar      []SidebarWidget  `json:"sidebar"`
	PhotoCredits []string         `json:"photo_credits,omitempty"`
}

// ValidationResult summarizes one validation pass recorded during assembly
// and rendering.
type ValidationResult struct {
	Stage  string   `json:"stage"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Error kinds recorded in the session error list.
const (
	ErrorKindValidation  = "validation"
	ErrorKindRevisionCap = "revision_cap"
	ErrorKindInvocation  = "invocation"
	ErrorKindNodeFailure = "node_failure"
)

// PipelineError is one structured entry in the session error list. The
// list is append-only audit history; rollback never clears it.
type PipelineError struct {
	Phase   Phase  `json:"phase"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

package state

import (
	"maps"
	"slices"

	"github.com/parlorgames/byline/internal/evidence"
)

// Reducer names the strategy Apply uses to fold an update field into state.
type Reducer string

const (
	// Replace overwrites the state field with the update value.
	Replace Reducer = "replace"
	// Append concatenates the update value onto the state slice.
	Append Reducer = "append"
	// Merge copies update map entries over state entries key by key.
	Merge Reducer = "merge"
)

// Update is a partial state produced by one pipeline node. Nil fields are
// absent and leave the corresponding state field untouched; a non-nil field
// is folded in through its reducer. Scalar replacements use pointers so
// zero values remain expressible.
type Update struct {
	Theme             *string
	RawInput          *string
	Phase             *Phase
	AwaitingApproval  *bool
	Approval          *ApprovalType
	Approvals         map[ApprovalType]Approval
	ParsedInput       *ParsedInput
	Roster            *evidence.Roster
	Evidence          []evidence.Item
	PhotoAnalyses     map[string]PhotoAnalysis
	Annotations       map[string]Annotation
	ArcAnalysis       *ArcAnalysis
	Outline           *Outline
	Article           *Article
	ContentDoc        *ContentDocument
	FinalDocument     *string
	ValidationResults []ValidationResult
	Errors            []PipelineError
	ArcRevisions      *int
	OutlineRevisions  *int
	ArticleRevisions  *int
	History           []HistoryEntry
}

// Reducers declares the strategy for every State field. Apply implements
// this table; the table is the contract nodes are written against.
// CreatedAt and UpdatedAt are owned by the persistence layer and have no
// Update counterpart.
func Reducers() map[string]Reducer {
	return map[string]Reducer{
		"Theme":             Replace,
		"RawInput":          Replace,
		"Phase":             Replace,
		"AwaitingApproval":  Replace,
		"Approval":          Replace,
		"Approvals":         Merge,
		"ParsedInput":       Replace,
		"Roster":            Replace,
		"Evidence":          Replace,
		"PhotoAnalyses":     Merge,
		"Annotations":       Merge,
		"ArcAnalysis":       Replace,
		"Outline":           Replace,
		"Article":           Replace,
		"ContentDoc":        Replace,
		"FinalDocument":     Replace,
		"ValidationResults": Replace,
		"Errors":            Append,
		"ArcRevisions":      Replace,
		"OutlineRevisions":  Replace,
		"ArticleRevisions":  Replace,
		"History":           Append,
		"CreatedAt":         Replace,
		"UpdatedAt":         Replace,
	}
}

// Apply folds an update into a state and returns the result. It never
// mutates its input: appended slices and merged maps are cloned before
// writing, so the caller's snapshot stays valid.
func Apply(s State, u Update) State {
	if u.Theme != nil {
		s.Theme = *u.Theme
	}
	if u.RawInput != nil {
		s.RawInput = *u.RawInput
	}
	if u.Phase != nil {
		s.Phase = *u.Phase
	}
	if u.AwaitingApproval != nil {
		s.AwaitingApproval = *u.AwaitingApproval
	}
	if u.Approval != nil {
		s.Approval = *u.Approval
	}
	if u.Approvals != nil {
		s.Approvals = mergeMap(s.Approvals, u.Approvals)
	}
	if u.ParsedInput != nil {
		s.ParsedInput = u.ParsedInput
	}
	if u.Roster != nil {
		s.Roster = u.Roster
	}
	if u.Evidence != nil {
		s.Evidence = u.Evidence
	}
	if u.PhotoAnalyses != nil {
		s.PhotoAnalyses = mergeMap(s.PhotoAnalyses, u.PhotoAnalyses)
	}
	if u.Annotations != nil {
		s.Annotations = mergeMap(s.Annotations, u.Annotations)
	}
	if u.ArcAnalysis != nil {
		s.ArcAnalysis = u.ArcAnalysis
	}
	if u.Outline != nil {
		s.Outline = u.Outline
	}
	if u.Article != nil {
		s.Article = u.Article
	}
	if u.ContentDoc != nil {
		s.ContentDoc = u.ContentDoc
	}
	if u.FinalDocument != nil {
		s.FinalDocument = *u.FinalDocument
	}
	if u.ValidationResults != nil {
		s.ValidationResults = u.ValidationResults
	}
	if u.Errors != nil {
		s.Errors = append(slices.Clone(s.Errors), u.Errors...)
	}
	if u.ArcRevisions != nil {
		s.ArcRevisions = *u.ArcRevisions
	}
	if u.OutlineRevisions != nil {
		s.OutlineRevisions = *u.OutlineRevisions
	}
	if u.ArticleRevisions != nil {
		s.ArticleRevisions = *u.ArticleRevisions
	}
	if u.History != nil {
		s.History = append(slices.Clone(s.History), u.History...)
	}
	return s
}

func mergeMap[K comparable, V any](dst, src map[K]V) map[K]V {
	merged := maps.Clone(dst)
	if merged == nil {
		merged = make(map[K]V, len(src))
	}
	maps.Copy(merged, src)
	return merged
}

// Ptr returns a pointer to v. Nodes use it to mark scalar update fields
// present.
func Ptr[T any](v T) *T {
	return &v
}

package state

import (
	"encoding/json"
	"slices"
	"time"
)

// ApprovalType names a checkpoint where the pipeline suspends for human
// review. The set is closed; approval payloads naming anything else are
// rejected before the graph is touched.
type ApprovalType string

// Checkpoints in pipeline order.
const (
	ApprovalInputReview      ApprovalType = "input_review"
	ApprovalEvidenceReview   ApprovalType = "evidence_review"
	ApprovalPhotoReview      ApprovalType = "photo_review"
	ApprovalAnnotationReview ApprovalType = "annotation_review"
	ApprovalArcReview        ApprovalType = "arc_review"
	ApprovalOutlineReview    ApprovalType = "outline_review"
	ApprovalArticleReview    ApprovalType = "article_review"
	ApprovalContentReview    ApprovalType = "content_review"
	ApprovalFinalReview      ApprovalType = "final_review"
)

var approvalTypes = []ApprovalType{
	ApprovalInputReview,
	ApprovalEvidenceReview,
	ApprovalPhotoReview,
	ApprovalAnnotationReview,
	ApprovalArcReview,
	ApprovalOutlineReview,
	ApprovalArticleReview,
	ApprovalContentReview,
	ApprovalFinalReview,
}

// ApprovalTypes returns the list of valid checkpoint types.
func ApprovalTypes() []ApprovalType {
	return approvalTypes
}

// UnmarshalJSON validates that the decoded string is a known checkpoint.
func (a *ApprovalType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := ApprovalType(raw)
	if !slices.Contains(approvalTypes, v) {
		return ErrInvalidApproval
	}
	*a = v
	return nil
}

// ParseApprovalType validates a string as a known checkpoint.
// Returns ErrInvalidApproval if the value is not recognized.
func ParseApprovalType(s string) (ApprovalType, error) {
	v := ApprovalType(s)
	if !slices.Contains(approvalTypes, v) {
		return "", ErrInvalidApproval
	}
	return v, nil
}

// Approval is a granted checkpoint payload. ApprovedBy identifies the human
// reviewer; Note carries optional review commentary preserved for audit.
type Approval struct {
	Type       ApprovalType `json:"type"`
	ApprovedBy string       `json:"approved_by"`
	Note       string       `json:"note,omitempty"`
	At         time.Time    `json:"at"`
}

// HistoryEntry records a checkpoint whose approval was accepted. History is
// append-only during forward execution; rollback truncates it to the target.
type HistoryEntry struct {
	Checkpoint ApprovalType `json:"checkpoint"`
	At         time.Time    `json:"at"`
}

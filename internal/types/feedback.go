package types

import "strings"

// FeedbackType is the category of a critique suggestion.
type FeedbackType string

// Feedback categories
const (
	FeedbackTone      FeedbackType = "tone"
	FeedbackAlignment FeedbackType = "alignment"
	FeedbackClarity   FeedbackType = "clarity"
	FeedbackEmphasis  FeedbackType = "emphasis"
	FeedbackStructure FeedbackType = "structure"
)

// FeedbackTypes lists every category in canonical order.
var FeedbackTypes = []FeedbackType{
	FeedbackTone, FeedbackAlignment, FeedbackClarity, FeedbackEmphasis, FeedbackStructure,
}

// Valid reports whether t is a known category.
func (t FeedbackType) Valid() bool {
	for _, known := range FeedbackTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FeedbackItem is one advisory suggestion for a draft.
type FeedbackItem struct {
	Type       FeedbackType `json:"type"`
	Suggestion string       `json:"suggestion"`
}

// Key identifies an item independent of surrounding whitespace and case.
func (f FeedbackItem) Key() string {
	return string(f.Type) + "|" + strings.ToLower(strings.Join(strings.Fields(f.Suggestion), " "))
}

// DeclinedFeedback is a selected item the revision refused, with the reason.
type DeclinedFeedback struct {
	Item   FeedbackItem `json:"item"`
	Reason string       `json:"reason"`
}

// RevisionRequest asks for selected feedback to be applied to a draft.
type RevisionRequest struct {
	Original         GeneratedContent `json:"original_content"`
	SelectedFeedback []FeedbackItem   `json:"selected_feedback"`
}

// RevisedContent is the outcome of a revision. Content has the same shape as the original.
type RevisedContent struct {
	Content  GeneratedContent   `json:"content"`
	Applied  []FeedbackItem     `json:"applied_feedback"`
	Declined []DeclinedFeedback `json:"declined_feedback"`
}

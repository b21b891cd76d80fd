package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-agent/internal/types"
)

// Turn is one generation and its follow-up revisions. The job summary and
// filtered profile are fixed for the life of the turn. Suggestions are the
// outstanding critique items paired with the current content.
//
// A Turn is not safe for concurrent use.
type Turn struct {
	ID              string                 `json:"id"`
	State           State                  `json:"state"`
	JobSummary      *types.JobSummary      `json:"job_summary"`
	FilteredProfile *types.FilteredProfile `json:"filtered_profile,omitempty"`
	Content         types.GeneratedContent `json:"content"`
	Fingerprint     string                 `json:"fingerprint,omitempty"`
	Suggestions     []types.FeedbackItem   `json:"suggestions"`
	Revisions       int                    `json:"revisions"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewTurn starts an idle turn for job.
func NewTurn(job *types.JobSummary) *Turn {
	return &Turn{
		ID:          uuid.NewString(),
		State:       StateIdle,
		JobSummary:  job,
		Suggestions: []types.FeedbackItem{},
		UpdatedAt:   time.Now().UTC(),
	}
}

// Transition moves the turn to state to, or returns *IllegalTransitionError.
func (t *Turn) Transition(to State) error {
	if !CanTransition(t.State, to) {
		return &IllegalTransitionError{From: t.State, To: to}
	}
	t.State = to
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// fail moves the turn to Failed when that is legal.
func (t *Turn) fail() {
	_ = t.Transition(StateFailed)
}

// setContent makes c the current content and pairs it with suggestions.
func (t *Turn) setContent(c types.GeneratedContent, suggestions []types.FeedbackItem) {
	t.Content = c
	t.Fingerprint = c.Fingerprint()
	if suggestions == nil {
		suggestions = []types.FeedbackItem{}
	}
	t.Suggestions = suggestions
}

// suggestion returns the outstanding item matching item's key.
func (t *Turn) suggestion(item types.FeedbackItem) (types.FeedbackItem, bool) {
	for _, s := range t.Suggestions {
		if s.Key() == item.Key() {
			return s, true
		}
	}
	return types.FeedbackItem{}, false
}

// consume removes applied items from the outstanding suggestions.
func (t *Turn) consume(applied []types.FeedbackItem) []types.FeedbackItem {
	used := make(map[string]bool, len(applied))
	for _, a := range applied {
		used[a.Key()] = true
	}
	remaining := make([]types.FeedbackItem, 0, len(t.Suggestions))
	for _, s := range t.Suggestions {
		if !used[s.Key()] {
			remaining = append(remaining, s)
		}
	}
	return remaining
}

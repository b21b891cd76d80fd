// Package apperrors defines the pipeline error taxonomy. Every failure that
// leaves the pipeline is an *Error carrying the stage that failed and whether
// retrying the same request is likely to help.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind string

// Error kinds
const (
	KindInput              Kind = "input"
	KindGroundingViolation Kind = "grounding_violation"
	KindSchemaValidation   Kind = "schema_validation"
	KindModelProvider      Kind = "model_provider"
	KindFeedbackMismatch   Kind = "feedback_mismatch"
	KindInternal           Kind = "internal"
)

// Stage names the pipeline step an error came from.
type Stage string

// Pipeline stages
const (
	StageInput     Stage = "input"
	StageFilter    Stage = "profile_filter"
	StageDraft     Stage = "draft"
	StageCritique  Stage = "critique"
	StageRevision  Stage = "revision"
	StagePipeline  Stage = "pipeline"
	StageJobSource Stage = "job_source"
)

// ErrEmptyProfile is wrapped by EmptyProfileError.
var ErrEmptyProfile = errors.New("profile has no career track with narrative content")

// Error is a classified pipeline failure.
type Error struct {
	Kind      Kind
	Stage     Stage
	Message   string
	Retryable bool
	Details   []string
	Cause     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed (%s): %s", e.Stage, e.Kind, e.Message)
	if len(e.Details) > 0 {
		msg += " [" + strings.Join(e.Details, "; ") + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage is the caller-facing description: which stage failed and
// whether a retry is worthwhile.
func (e *Error) UserMessage() string {
	advice := "retrying the same request is unlikely to help"
	if e.Retryable {
		advice = "this is transient; retrying later may succeed"
	}
	return fmt.Sprintf("The %s stage failed: %s (%s).", strings.ReplaceAll(string(e.Stage), "_", " "), e.Message, advice)
}

// NewInputError reports missing or invalid caller input. Never retried.
func NewInputError(stage Stage, message string, cause error) *Error {
	return &Error{Kind: KindInput, Stage: stage, Message: message, Cause: cause}
}

// NewEmptyProfileError reports a profile with no usable track.
func NewEmptyProfileError() *Error {
	return &Error{
		Kind:    KindInput,
		Stage:   StageFilter,
		Message: "the profile has no career track with content",
		Cause:   ErrEmptyProfile,
	}
}

// NewGroundingViolation reports model output containing facts that cannot be
// traced to the supplied profile or job. Offending strings go in details.
func NewGroundingViolation(stage Stage, offending []string) *Error {
	return &Error{
		Kind:    KindGroundingViolation,
		Stage:   stage,
		Message: "the model produced facts that are not in the profile or job description",
		Details: offending,
	}
}

// NewSchemaValidation reports model output that did not match the stage schema.
func NewSchemaValidation(stage Stage, cause error) *Error {
	return &Error{
		Kind:    KindSchemaValidation,
		Stage:   stage,
		Message: "the model returned malformed output",
		Cause:   cause,
	}
}

// NewModelProvider reports a provider timeout, rate limit or outage.
func NewModelProvider(stage Stage, message string, cause error) *Error {
	return &Error{
		Kind:      KindModelProvider,
		Stage:     stage,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewFeedbackMismatch reports selected feedback that does not belong to the
// content's own critique.
func NewFeedbackMismatch(message string, details ...string) *Error {
	return &Error{
		Kind:    KindFeedbackMismatch,
		Stage:   StageRevision,
		Message: message,
		Details: details,
	}
}

// NewInternal wraps an unexpected failure.
func NewInternal(stage Stage, cause error) *Error {
	return &Error{Kind: KindInternal, Stage: stage, Message: "unexpected error", Cause: cause}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// IsRetryable reports whether the caller may retry the request later.
func IsRetryable(err error) bool {
	e, ok := As(err)
	return ok && e.Retryable
}

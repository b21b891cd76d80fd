package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		kind      Kind
		stage     Stage
		retryable bool
	}{
		{"input", NewInputError(StageInput, "job description is empty", nil), KindInput, StageInput, false},
		{"empty profile", NewEmptyProfileError(), KindInput, StageFilter, false},
		{"grounding", NewGroundingViolation(StageDraft, []string{"Google"}), KindGroundingViolation, StageDraft, false},
		{"schema", NewSchemaValidation(StageCritique, errors.New("bad json")), KindSchemaValidation, StageCritique, false},
		{"provider", NewModelProvider(StageDraft, "rate limited", nil), KindModelProvider, StageDraft, true},
		{"mismatch", NewFeedbackMismatch("not from critique"), KindFeedbackMismatch, StageRevision, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.stage, tt.err.Stage)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestEmptyProfileWrapsSentinel(t *testing.T) {
	err := fmt.Errorf("generate: %w", NewEmptyProfileError())
	assert.ErrorIs(t, err, ErrEmptyProfile)
	assert.Equal(t, KindInput, KindOf(err))
}

func TestAsThroughWrapping(t *testing.T) {
	inner := NewModelProvider(StageFilter, "timeout", context.DeadlineExceeded)
	wrapped := fmt.Errorf("pipeline: %w", inner)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.True(t, IsKind(wrapped, KindModelProvider))

	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	transient := NewModelProvider(StageDraft, "the model provider timed out", nil)
	assert.Contains(t, transient.UserMessage(), "draft stage failed")
	assert.Contains(t, transient.UserMessage(), "retrying later may succeed")

	permanent := NewGroundingViolation(StageFilter, []string{"Kubernetes"})
	assert.Contains(t, permanent.UserMessage(), "profile filter stage failed")
	assert.Contains(t, permanent.UserMessage(), "unlikely to help")
	assert.Contains(t, permanent.Error(), "Kubernetes")
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

type fakeNetErr struct{ timeout bool }

func (e fakeNetErr) Error() string   { return "net error" }
func (e fakeNetErr) Timeout() bool   { return e.timeout }
func (e fakeNetErr) Temporary() bool { return false }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorReason
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ReasonTimeout},
		{"anthropic rate limit", &anthropic.Error{StatusCode: 429}, ReasonRateLimited},
		{"anthropic overloaded", &anthropic.Error{StatusCode: 529}, ReasonRateLimited},
		{"anthropic server error", &anthropic.Error{StatusCode: 500}, ReasonUnavailable},
		{"anthropic bad request", &anthropic.Error{StatusCode: 400}, ReasonRejected},
		{"googleapi rate limit", &googleapi.Error{Code: 429}, ReasonRateLimited},
		{"googleapi unauthorized", &googleapi.Error{Code: 401}, ReasonRejected},
		{"googleapi gateway timeout", &googleapi.Error{Code: 504}, ReasonTimeout},
		{"net timeout", fakeNetErr{timeout: true}, ReasonTimeout},
		{"safety block", fmt.Errorf("gemini: %w", ErrBlocked), ReasonRejected},
		{"unknown", errors.New("connection reset"), ReasonUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
	assert.Equal(t, ErrorReason(""), Classify(nil))
}

func TestErrorReason_Transient(t *testing.T) {
	assert.True(t, ReasonTimeout.Transient())
	assert.True(t, ReasonRateLimited.Transient())
	assert.True(t, ReasonUnavailable.Transient())
	assert.False(t, ReasonRejected.Transient())
	assert.False(t, ReasonMalformedOutput.Transient())
}

func TestModelError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ModelError{Reason: ReasonUnavailable, Attempts: 3, Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unavailable after 3 attempt(s)")
}

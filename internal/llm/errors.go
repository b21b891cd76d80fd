package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// ErrorReason classifies a failed model invocation.
type ErrorReason string

// Model error reasons
const (
	ReasonTimeout         ErrorReason = "timeout"
	ReasonRateLimited     ErrorReason = "rate_limited"
	ReasonUnavailable     ErrorReason = "unavailable"
	ReasonRejected        ErrorReason = "rejected"
	ReasonMalformedOutput ErrorReason = "malformed_output"
)

// Transient reports whether a backoff retry may succeed.
func (r ErrorReason) Transient() bool {
	return r == ReasonTimeout || r == ReasonRateLimited || r == ReasonUnavailable
}

// ErrBlocked is returned when the provider's safety filter refuses a prompt
// or stops a reply. Repeating the same prompt will not help.
var ErrBlocked = errors.New("blocked by provider safety filter")

// ModelError is a classified model invocation failure.
type ModelError struct {
	Reason   ErrorReason
	Attempts int
	Cause    error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model call %s after %d attempt(s): %v", e.Reason, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("model call %s after %d attempt(s)", e.Reason, e.Attempts)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Classify maps a provider error onto an ErrorReason.
func Classify(err error) ErrorReason {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if errors.Is(err, ErrBlocked) {
		return ReasonRejected
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return classifyHTTPStatus(anthropicErr.StatusCode)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return classifyHTTPStatus(code)
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return classifyGRPCCode(st.Code())
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return classifyHTTPStatus(gErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	return ReasonUnavailable
}

func classifyHTTPStatus(code int) ErrorReason {
	switch {
	case code == http.StatusTooManyRequests || code == 529:
		return ReasonRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ReasonTimeout
	case code >= 500:
		return ReasonUnavailable
	default:
		return ReasonRejected
	}
}

func classifyGRPCCode(code codes.Code) ErrorReason {
	switch code {
	case codes.ResourceExhausted:
		return ReasonRateLimited
	case codes.DeadlineExceeded:
		return ReasonTimeout
	case codes.Unavailable, codes.Internal, codes.Unknown, codes.Aborted:
		return ReasonUnavailable
	default:
		return ReasonRejected
	}
}

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/jobsource"
	"github.com/jonathan/job-agent/internal/profiles"
	"github.com/jonathan/job-agent/internal/session"
)

// statusClientClosedRequest is logged when the caller went away mid-request.
const statusClientClosedRequest = 499

// retryAfterSeconds is advertised on model provider failures. It matches the
// invoker's backoff cap.
const retryAfterSeconds = 30

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string   `json:"error"`
	Detail    string   `json:"detail,omitempty"`
	Code      string   `json:"code"`
	Stage     string   `json:"stage,omitempty"`
	Retryable bool     `json:"retryable"`
	Details   []string `json:"details,omitempty"`
}

// RequestError is a malformed request body or parameter.
type RequestError struct {
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

func badRequest(message string, cause error) error {
	return &RequestError{Message: message, Cause: cause}
}

// classify maps err to an HTTP status and response body.
func classify(err error) (int, ErrorBody) {
	if appErr, ok := apperrors.As(err); ok {
		return kindStatus(appErr.Kind), ErrorBody{
			Error:     appErr.UserMessage(),
			Detail:    appErr.Message,
			Code:      string(appErr.Kind),
			Stage:     string(appErr.Stage),
			Retryable: appErr.Retryable,
			Details:   appErr.Details,
		}
	}

	var fetchErr *jobsource.FetchError
	if errors.As(err, &fetchErr) {
		body := ErrorBody{
			Error:  "The job posting could not be retrieved.",
			Detail: fetchErr.Message,
			Code:   "fetch_" + string(fetchErr.Kind),
			Stage:  string(apperrors.StageJobSource),
		}
		switch fetchErr.Kind {
		case jobsource.FetchAuthRequired:
			return http.StatusUnauthorized, body
		case jobsource.FetchUnreachable:
			body.Retryable = true
			return http.StatusBadGateway, body
		default:
			return http.StatusBadRequest, body
		}
	}

	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, ErrorBody{Error: "The request is invalid.", Detail: reqErr.Error(), Code: "invalid_request"}
	case errors.Is(err, profiles.ErrInvalidProfile):
		return http.StatusBadRequest, ErrorBody{Error: "The profile is invalid.", Detail: err.Error(), Code: string(apperrors.KindInput)}
	case errors.Is(err, profiles.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: "No profile has been saved for this session.", Code: "profile_not_found"}
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: "Nothing has been generated in this session yet.", Code: "session_not_found"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorBody{Error: "The request timed out.", Code: "timeout", Retryable: true}
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, ErrorBody{Error: "The request was cancelled.", Code: "cancelled"}
	}
	return http.StatusInternalServerError, ErrorBody{Error: "An unexpected error occurred.", Code: string(apperrors.KindInternal)}
}

func kindStatus(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInput:
		return http.StatusBadRequest
	case apperrors.KindFeedbackMismatch:
		return http.StatusConflict
	case apperrors.KindGroundingViolation:
		return http.StatusUnprocessableEntity
	case apperrors.KindSchemaValidation:
		return http.StatusBadGateway
	case apperrors.KindModelProvider:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus returns the status code err is reported with.
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

// setRetryAfter advertises when a retryable failure may be retried.
func setRetryAfter(w http.ResponseWriter, status int, body ErrorBody) {
	if body.Retryable && (status == http.StatusServiceUnavailable || status == http.StatusBadGateway) {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
}

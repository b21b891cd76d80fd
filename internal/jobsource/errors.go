package jobsource

import "fmt"

// FetchKind classifies a job source failure.
type FetchKind string

// Fetch failure kinds
const (
	FetchUnreachable  FetchKind = "unreachable"
	FetchAuthRequired FetchKind = "auth_required"
	FetchParseFailed  FetchKind = "parse_failed"
)

// FetchError reports why a job description could not be produced.
type FetchError struct {
	Kind    FetchKind
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	target := e.URL
	if target == "" {
		target = "pasted text"
	}
	if e.Cause != nil {
		return fmt.Sprintf("job source %s (%s): %s: %v", e.Kind, target, e.Message, e.Cause)
	}
	return fmt.Sprintf("job source %s (%s): %s", e.Kind, target, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

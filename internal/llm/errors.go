package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit means the provider answered 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the output is not valid JSON or does not match
// the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers server errors and transport failures.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means structured output was cut off.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrRejected means the provider refused the request itself (bad key,
// unknown model, malformed body). Sending it again cannot succeed.
type ErrRejected struct {
	Status int
	Err    error
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("LLM request rejected (HTTP %d): %v", e.Status, e.Err)
}

func (e *ErrRejected) Unwrap() error { return e.Err }

// ErrNotConfigured is returned when no provider is available.
var ErrNotConfigured = errors.New("no LLM provider configured")

// classifyStatus maps an HTTP status from an SDK error to our error kinds.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status >= 400 && status < 500 && status != http.StatusRequestTimeout:
		return &ErrRejected{Status: status, Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

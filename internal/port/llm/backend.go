// Package llm defines the port for language-model backends.
package llm

import (
	"context"
	"fmt"
)

// Request is a single completion request against one backend model.
type Request struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Backend generates one completion. Implementations perform exactly one
// outbound call per invocation: no retries, no logging. Failures surface as
// *APIError when the backend reported an HTTP status, otherwise as the
// transport error.
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// APIError is a non-2xx reply from a backend API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend API error %d: %s", e.Status, e.Body)
}

// StatusCode reports the HTTP status, letting callers classify the failure
// without importing this package's concrete type.
func (e *APIError) StatusCode() int { return e.Status }

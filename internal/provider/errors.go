package provider

import (
	"errors"
	"fmt"
)

// Error variables for common provider failures.
var (
	// ErrMissingCredential indicates no usable key resolved for the
	// active provider. The dispatch fails before any network traffic.
	ErrMissingCredential = errors.New("no API key configured")

	// ErrEmptyResponse indicates the backend returned success but no
	// usable text content.
	ErrEmptyResponse = errors.New("empty response from backend")
)

// APIError represents a non-success HTTP outcome from a backend.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error (HTTP %d)", e.Provider, e.Status)
}

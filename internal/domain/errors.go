package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures. Transport and structure failures
// halt the orchestration; they are never recovered locally.
type ErrorKind string

const (
	// KindResolutionFailed covers coordinate lookup transport and parse errors.
	KindResolutionFailed ErrorKind = "RESOLUTION_FAILED"
	// KindFetchFailed covers variant lookup transport errors and error-shaped
	// responses.
	KindFetchFailed ErrorKind = "FETCH_FAILED"
	// KindMalformedPayload means a response was received but is structurally
	// unexpected where translation requires a fixed shape.
	KindMalformedPayload ErrorKind = "MALFORMED_PAYLOAD"
)

// PipelineError is the standardized error for pipeline stage failures.
type PipelineError struct {
	Kind    ErrorKind `json:"kind"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewResolutionError wraps a coordinate lookup failure.
func NewResolutionError(message string, err error) *PipelineError {
	return &PipelineError{Kind: KindResolutionFailed, Stage: "coordinates", Message: message, Err: err}
}

// NewFetchError wraps a variant lookup failure.
func NewFetchError(message string, err error) *PipelineError {
	return &PipelineError{Kind: KindFetchFailed, Stage: "variants", Message: message, Err: err}
}

// NewMalformedPayloadError wraps a structurally unexpected response.
func NewMalformedPayloadError(message string, err error) *PipelineError {
	return &PipelineError{Kind: KindMalformedPayload, Stage: "translate", Message: message, Err: err}
}

// KindOf extracts the error kind from an error chain. Errors outside the
// pipeline taxonomy report an empty kind.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

package llm

import (
	"errors"
	"fmt"
)

// ErrParseFailure indicates the completion service returned output that is
// empty, is not JSON, or fails schema validation. It is fatal for the current
// query; retry policy belongs to the caller.
var ErrParseFailure = errors.New("llm: structured output failed validation")

// ErrStreamTruncated indicates a streaming completion terminated without the
// explicit completion signal. A truncated stream must never be presented as a
// successful (possibly empty) answer.
var ErrStreamTruncated = errors.New("llm: stream truncated before completion signal")

// ParseError carries the raw model output alongside the validation failure so
// operators can inspect what the model actually produced.
type ParseError struct {
	// Schema is the name of the output schema that was being validated.
	Schema string

	// Raw is the model output that failed to parse or validate.
	Raw string

	// Cause is the underlying unmarshal or validation error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("llm: output for schema %q failed validation: %v", e.Schema, e.Cause)
}

// Unwrap reports ErrParseFailure so errors.Is works across the pipeline, and
// the concrete cause remains reachable via a second Unwrap step.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParseFailure, e.Cause}
}

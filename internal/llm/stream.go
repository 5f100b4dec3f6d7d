package llm

import (
	"context"
	"errors"
	"io"

	"github.com/cloudwego/eino/schema"
)

// Stream adapts an Eino message stream into the presentation contract: a
// finite, ordered, non-restartable sequence of text fragments with an
// explicit completion signal (io.EOF). Any other termination is a truncation
// failure, never a successful empty answer. A Stream must be consumed by a
// single goroutine and closed when done.
type Stream struct {
	// sr is the underlying Eino stream reader.
	sr *schema.StreamReader[*schema.Message]
}

// NewStream wraps an Eino stream reader. Exported so tests can build streams
// from schema.Pipe.
func NewStream(sr *schema.StreamReader[*schema.Message]) *Stream {
	return &Stream{sr: sr}
}

// Recv returns the next text fragment. It returns io.EOF once the producer
// has signalled completion, and ErrStreamTruncated (wrapping the cause) if
// the stream dies any other way. Empty fragments (tool-call frames, role
// markers) are skipped so callers only ever see renderable text.
func (s *Stream) Recv() (string, error) {
	for {
		msg, err := s.sr.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Caller abandoned the query — a cancellation outcome, distinct
			// from both success and truncation.
			return "", err
		}
		if err != nil {
			return "", &TruncatedError{Cause: err}
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		return msg.Content, nil
	}
}

// Close releases the underlying stream. Safe to call after EOF.
func (s *Stream) Close() {
	s.sr.Close()
}

// TruncatedError reports a stream that terminated without the explicit
// completion signal.
type TruncatedError struct {
	// Cause is the transport or model error that killed the stream.
	Cause error
}

// Error implements the error interface.
func (e *TruncatedError) Error() string {
	return "llm: stream truncated: " + e.Cause.Error()
}

// Unwrap reports ErrStreamTruncated for errors.Is, keeping the concrete
// cause reachable.
func (e *TruncatedError) Unwrap() []error {
	return []error{ErrStreamTruncated, e.Cause}
}

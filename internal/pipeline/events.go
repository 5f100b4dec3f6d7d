// Package pipeline sequences the agents for one query and relays their
// outputs to the caller as a tagged event stream.
package pipeline

// Source tags an event with the pipeline stage that produced it.
type Source string

const (
	// SourceOrchestrator carries the serialized routing decision, once.
	SourceOrchestrator Source = "orchestrator"
	// SourceEvidence carries one serialized evidence bundle per request.
	SourceEvidence Source = "evidence"
	// SourcePublicPersona carries the serialized public-persona bundle, or
	// an empty payload when the stage was skipped.
	SourcePublicPersona Source = "public_persona"
	// SourcePresentation carries one incremental answer fragment.
	// Concatenation in emission order yields the final answer.
	SourcePresentation Source = "presentation"
)

// Event is the wire-level unit streamed to the caller.
type Event struct {
	Source  Source `json:"source"`
	Payload string `json:"payload"`
}

// EventSink receives events in causal order as each stage completes or
// streams. Events are consumed immediately and never stored by the pipeline.
type EventSink func(Event)

package agents

import "errors"

// Parse failures are fatal for the current query and are not retried here.
// Retry policy, if any, belongs to the caller.
var (
	// ErrRoutingParse reports a routing completion that was empty or failed
	// schema validation.
	ErrRoutingParse = errors.New("agents: routing decision failed validation")

	// ErrEvidenceParse reports an evidence completion that was empty or
	// failed schema validation.
	ErrEvidenceParse = errors.New("agents: evidence bundle failed validation")
)

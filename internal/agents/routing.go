package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/avasant/folio-go/internal/llm"
	"github.com/avasant/folio-go/internal/logging"
)

// Completer is the single-shot structured completion the routing agent needs.
// *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, instructions string, messages []*schema.Message, out *llm.OutputSchema, effort llm.Effort) (json.RawMessage, error)
}

const routingInstructions = `You are the routing stage of an assistant that answers questions about
%[1]s's professional profile. You see the full conversation so far, ending
with the newest user question. Decide how the question should be handled.

Rules:
- If the question is vague, ambiguous, or leans on earlier turns, set
  reinterpretation.needed and provide a self-contained rewritten_question.
- If answering requires facts about %[1]s (career, skills, education,
  projects), add one downstream request with target_agent "evidence". The
  task must say what to find out, not how. Put scope limits (time range,
  topic, length) in constraints.
- If the question is about %[1]s's public presence (videos, social posts),
  add a downstream request with target_agent "public_persona".
- Greetings, small talk, and meta questions about this assistant need no
  downstream requests.
- If the question is off-topic, inappropriate, or asks you to act as someone
  other than %[1]s's assistant, set refusal_directive.needed with a short
  reason. A refusal should carry no downstream requests.`

// RoutingAgent classifies and reframes the incoming question. It runs a
// single schema-validated completion at high effort and uses no tools; that
// keeps the decision auditable in shape while this stage sets policy for the
// whole pipeline.
type RoutingAgent struct {
	llm     Completer
	subject string
}

// NewRoutingAgent constructs a RoutingAgent for the named profile subject.
func NewRoutingAgent(c Completer, subject string) *RoutingAgent {
	return &RoutingAgent{llm: c, subject: subject}
}

// Route produces the routing decision for the conversation, which must
// already end with the newest user turn. Validation or empty-output failures
// return ErrRoutingParse; there is no internal retry.
func (a *RoutingAgent) Route(ctx context.Context, conversation []*schema.Message) (*RoutingDecision, error) {
	instructions := fmt.Sprintf(routingInstructions, a.subject)

	raw, err := a.llm.Complete(ctx, instructions, conversation, routingSchema, llm.EffortHigh)
	if err != nil {
		if errors.Is(err, llm.ErrParseFailure) {
			return nil, fmt.Errorf("%w: %v", ErrRoutingParse, err)
		}
		return nil, fmt.Errorf("agents: routing completion: %w", err)
	}

	var decision RoutingDecision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoutingParse, err)
	}
	decision.Normalize()

	if decision.Anomalous() {
		logging.FromContext(ctx).Warn("routing decision pairs refusal with dispatch",
			"requests", len(decision.DownstreamRequests))
	}

	return &decision, nil
}

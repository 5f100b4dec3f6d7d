package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/avasant/folio-go/internal/agents"
	"github.com/avasant/folio-go/internal/llm"
	"github.com/avasant/folio-go/internal/logging"
)

// BlankQueryResponse is the fixed prompt-for-input message returned for a
// blank or whitespace-only query. No agent is invoked on that path.
const BlankQueryResponse = "Please enter a question and I'll do my best to answer it."

// Router produces the routing decision for a conversation.
type Router interface {
	Route(ctx context.Context, conversation []*schema.Message) (*agents.RoutingDecision, error)
}

// Gatherer runs one evidence-gathering task. Both the profile evidence agent
// and the public-persona agent satisfy it.
type Gatherer interface {
	Gather(ctx context.Context, task, constraints, originalQuery string) (*agents.EvidenceBundle, error)
}

// Presenter streams the final answer.
type Presenter interface {
	Present(ctx context.Context, userQuery string, evidence *agents.EvidenceBundle, routing *agents.RoutingDecision) (*llm.Stream, error)
}

// Coordinator sequences routing, gathering, and presentation for one query
// and owns the conversation transcript for the session. One Coordinator may
// serve concurrent sessions; each Process call must receive its own
// Conversation.
type Coordinator struct {
	router    Router
	evidence  Gatherer
	persona   Gatherer
	presenter Presenter
}

// New constructs a Coordinator. persona may be nil; public-persona requests
// then degrade to an empty event instead of failing the query.
func New(router Router, evidence Gatherer, persona Gatherer, presenter Presenter) *Coordinator {
	return &Coordinator{router: router, evidence: evidence, persona: persona, presenter: presenter}
}

// Process runs one query through the pipeline, emitting tagged events to emit
// as each stage completes or streams, and returns the final answer. The
// pipeline is terminal on first error: a failed stage emits nothing further
// and the query has no answer. The transcript is appended only on success —
// a failed query leaves conv untouched so the next attempt starts clean,
// rather than feeding an unanswered user turn back into routing.
func (c *Coordinator) Process(ctx context.Context, query string, conv *Conversation, emit EventSink) (string, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(query) == "" {
		// Defined short-circuit, not an error. The canned message is not
		// appended to the transcript.
		emit(Event{Source: SourcePresentation, Payload: BlankQueryResponse})
		return BlankQueryResponse, nil
	}

	messages := append(conv.Messages(), schema.UserMessage(query))

	decision, err := c.router.Route(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("pipeline: routing: %w", err)
	}
	emit(Event{Source: SourceOrchestrator, Payload: marshalPayload(decision)})

	effectiveQuery := query
	if decision.Reinterpretation.Needed && decision.Reinterpretation.RewrittenQuestion != "" {
		effectiveQuery = decision.Reinterpretation.RewrittenQuestion
	}

	evidenceBundle, personaBundle, err := c.dispatch(ctx, decision, effectiveQuery, emit)
	if err != nil {
		return "", err
	}

	// Profile evidence wins when both paths produced material.
	presented := evidenceBundle
	if presented == nil {
		presented = personaBundle
	}

	answer, err := c.present(ctx, effectiveQuery, presented, decision, emit)
	if err != nil {
		return "", err
	}

	conv.Append(RoleUser, query)
	// The transcript carries a digest of the decision, not raw JSON, and only
	// when evidence gathering actually ran. Anything more bloats the context
	// fed back to routing on the next turn.
	if len(decision.RequestsFor(agents.TargetEvidence)) > 0 {
		conv.Append(RoleAssistant, decision.Digest())
	}
	conv.Append(RoleAssistant, answer)
	log.Debug("query processed", "turns", conv.Len(), "answer_len", len(answer))
	return answer, nil
}

// dispatch runs the decision's downstream requests in order. Multiple
// evidence requests are each run and emitted; the most recent bundle wins.
func (c *Coordinator) dispatch(ctx context.Context, decision *agents.RoutingDecision, query string, emit EventSink) (evidence, persona *agents.EvidenceBundle, err error) {
	log := logging.FromContext(ctx)

	for _, req := range decision.DownstreamRequests {
		switch req.TargetAgent {
		case agents.TargetEvidence:
			bundle, err := c.evidence.Gather(ctx, req.Task, req.Constraints, query)
			if err != nil {
				return nil, nil, fmt.Errorf("pipeline: evidence gathering: %w", err)
			}
			emit(Event{Source: SourceEvidence, Payload: marshalPayload(bundle)})
			evidence = bundle

		case agents.TargetPublicPersona:
			if c.persona == nil {
				emit(Event{Source: SourcePublicPersona, Payload: ""})
				continue
			}
			bundle, err := c.persona.Gather(ctx, req.Task, req.Constraints, query)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, nil, err
				}
				// The persona path is optional end to end; a failure degrades
				// to a skipped stage rather than killing the query.
				log.Warn("public-persona gathering failed", "error", err)
				emit(Event{Source: SourcePublicPersona, Payload: ""})
				continue
			}
			emit(Event{Source: SourcePublicPersona, Payload: marshalPayload(bundle)})
			persona = bundle

		default:
			log.Warn("routing produced unknown target agent", "target", req.TargetAgent)
		}
	}
	return evidence, persona, nil
}

// present streams the answer, relaying each fragment as a presentation event
// and accumulating the full text.
func (c *Coordinator) present(ctx context.Context, query string, evidence *agents.EvidenceBundle, decision *agents.RoutingDecision, emit EventSink) (string, error) {
	stream, err := c.presenter.Present(ctx, query, evidence, decision)
	if err != nil {
		return "", fmt.Errorf("pipeline: presentation: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("pipeline: presentation stream: %w", err)
		}
		emit(Event{Source: SourcePresentation, Payload: frag})
		sb.WriteString(frag)
	}
}

// marshalPayload serializes a structured stage result for its event. The
// shapes here marshal without error; a failure would be a programming bug
// worth seeing in the payload.
func marshalPayload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}

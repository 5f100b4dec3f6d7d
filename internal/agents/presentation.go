package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/avasant/folio-go/internal/llm"
)

// StreamCompleter is the streaming completion the presentation agent needs.
// *llm.Client satisfies it.
type StreamCompleter interface {
	CompleteStreaming(ctx context.Context, instructions string, messages []*schema.Message, effort llm.Effort) (*llm.Stream, error)
}

// NoEvidence is the stable sentinel rendered for every evidence-derived
// prompt field when no bundle exists. Fields are never omitted silently.
const NoEvidence = "none"

const presentationInstructions = `You are %[1]s's profile assistant, answering in a warm, professional first
person on %[1]s's behalf. Compose the final reply to the user's question from
the routing context and gathered evidence below.

Rules:
- Ground every factual statement in the gathered evidence. Where a field
  reads "none" you have no evidence for it; do not invent any.
- If the coverage assessment is insufficient, acknowledge the gap and use the
  safe redirect when one is provided.
- If a refusal was directed, decline in the requested style and steer the
  conversation back to %[1]s's professional profile.
- Answer directly. No preamble about being an assistant, no restating the
  question.`

// PresentationAgent synthesizes the final answer as a fragment stream. Single
// streaming completion, medium effort, no tools.
type PresentationAgent struct {
	llm     StreamCompleter
	subject string
}

// NewPresentationAgent constructs a PresentationAgent for the named subject.
func NewPresentationAgent(c StreamCompleter, subject string) *PresentationAgent {
	return &PresentationAgent{llm: c, subject: subject}
}

// Present streams the answer to userQuery. evidence may be nil (refusal and
// chit-chat paths); every evidence-derived field is then rendered as the
// NoEvidence sentinel. The returned stream ends with io.EOF on success and
// llm.ErrStreamTruncated otherwise.
func (a *PresentationAgent) Present(ctx context.Context, userQuery string, evidence *EvidenceBundle, routing *RoutingDecision) (*llm.Stream, error) {
	prompt := buildPresentationPrompt(userQuery, evidence, routing)

	stream, err := a.llm.CompleteStreaming(ctx, fmt.Sprintf(presentationInstructions, a.subject),
		[]*schema.Message{schema.UserMessage(prompt)}, llm.EffortMedium)
	if err != nil {
		return nil, fmt.Errorf("agents: presentation completion: %w", err)
	}
	return stream, nil
}

// buildPresentationPrompt serializes the question, routing context, and
// evidence bundle into one prompt. Absent evidence fields always render the
// NoEvidence sentinel so the shape is stable whether or not gathering ran.
func buildPresentationPrompt(userQuery string, evidence *EvidenceBundle, routing *RoutingDecision) string {
	var sb strings.Builder

	sb.WriteString("## User Question\n\n")
	sb.WriteString(userQuery)

	sb.WriteString("\n\n## Routing Context\n\n")
	writeRouting(&sb, routing)

	sb.WriteString("\n## Gathered Evidence\n\n")
	writeEvidence(&sb, evidence)

	if task := evidenceTask(routing); task != "" {
		sb.WriteString("\n## Task Directive\n\nThe evidence above was gathered for this task: ")
		sb.WriteString(task)
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeRouting(sb *strings.Builder, routing *RoutingDecision) {
	if routing == nil {
		fmt.Fprintf(sb, "Refusal directed: %s\n", NoEvidence)
		return
	}
	if routing.Reinterpretation.Needed && routing.Reinterpretation.RewrittenQuestion != "" {
		fmt.Fprintf(sb, "Question reinterpreted as: %s\n", routing.Reinterpretation.RewrittenQuestion)
	}
	if routing.RefusalDirective.Needed {
		fmt.Fprintf(sb, "Refusal directed: yes\nRefusal reason: %s\nRefusal style: %s\n",
			orNone(routing.RefusalDirective.Reason), routing.RefusalDirective.Style)
	} else {
		fmt.Fprintf(sb, "Refusal directed: %s\n", NoEvidence)
	}
}

func writeEvidence(sb *strings.Builder, evidence *EvidenceBundle) {
	if evidence == nil {
		fmt.Fprintf(sb, "Coverage: %s\nClaims: %s\nProject leads: %s\nSafe redirect: %s\n",
			NoEvidence, NoEvidence, NoEvidence, NoEvidence)
		return
	}

	if evidence.CoverageAssessment.Sufficient {
		sb.WriteString("Coverage: sufficient\n")
	} else {
		fmt.Fprintf(sb, "Coverage: insufficient (missing: %s)\n",
			orNone(strings.Join(evidence.CoverageAssessment.MissingPoints, "; ")))
	}

	if len(evidence.Claims) == 0 {
		fmt.Fprintf(sb, "Claims: %s\n", NoEvidence)
	} else {
		sb.WriteString("Claims:\n")
		for _, claim := range evidence.Claims {
			fmt.Fprintf(sb, "- [%s]\n", claim.Support)
			for _, doc := range claim.Documents {
				fmt.Fprintf(sb, "  %s\n", doc)
			}
		}
	}

	fmt.Fprintf(sb, "Project leads: %s\n", orNone(strings.Join(evidence.ProjectLeads, ", ")))
	fmt.Fprintf(sb, "Safe redirect: %s\n", orNone(evidence.SafeRedirectIfMissing))
}

// evidenceTask returns the task of the first evidence request, the directive
// presentation should address even without raw evidence.
func evidenceTask(routing *RoutingDecision) string {
	if routing == nil {
		return ""
	}
	for _, req := range routing.DownstreamRequests {
		if req.TargetAgent == TargetEvidence {
			return req.Task
		}
	}
	return ""
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return NoEvidence
	}
	return s
}

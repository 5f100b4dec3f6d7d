package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/avasant/folio-go/internal/llm"
)

// ToolCompleter is the bounded tool-using completion the gathering agents
// need. *llm.Client satisfies it.
type ToolCompleter interface {
	CompleteWithTools(ctx context.Context, instructions string, messages []*schema.Message, tools []tool.BaseTool, out *llm.OutputSchema, effort llm.Effort) (json.RawMessage, error)
}

const evidenceInstructions = `You gather evidence about %[1]s's professional profile. You are given a
task and must assemble grounded material using your read-only tools, then
report it as a structured bundle.

Tool policy:
- Prefer the static documents (resume, bio, old resume, transcript) for
  biographical, factual, and skill questions.
- Use retrieve only when the task needs project-specific technical depth.
- Formulate retrieve queries narrowly. Strip %[1]s's name and any technology
  keywords the task did not mention; broad queries drift.
- If retrieve returns no passages, state "no evidence found" for that line of
  inquiry. Never invent content to fill a gap.

Every claims entry must quote raw snippets from tool output in documents and
carry the support tag reported by the tool that produced them. Assess your
own coverage honestly: if the gathered material cannot answer the task, set
sufficient to false, list the missing points, and offer a one-sentence
safe_redirect_if_missing.`

// EvidenceAgent is the one agent with autonomous multi-step tool use: given a
// task it selects among the profile toolbox tools in a bounded loop before
// emitting its structured bundle.
type EvidenceAgent struct {
	llm     ToolCompleter
	tools   []tool.BaseTool
	subject string
}

// NewEvidenceAgent constructs an EvidenceAgent over the profile toolbox.
func NewEvidenceAgent(c ToolCompleter, toolbox *Toolbox, subject string) *EvidenceAgent {
	return &EvidenceAgent{llm: c, tools: toolbox.Tools(), subject: subject}
}

// Gather runs the tool loop for one task and returns the evidence bundle.
// Malformed structured output returns ErrEvidenceParse. Individual tool
// failures never surface here; the toolbox converts them to model-visible
// error strings.
func (a *EvidenceAgent) Gather(ctx context.Context, task, constraints, originalQuery string) (*EvidenceBundle, error) {
	return gather(ctx, a.llm, fmt.Sprintf(evidenceInstructions, a.subject), a.tools, task, constraints, originalQuery)
}

// gather is the shared tool-loop body for the evidence and public-persona
// agents, which differ only in instructions and toolbox.
func gather(ctx context.Context, c ToolCompleter, instructions string, tools []tool.BaseTool, task, constraints, originalQuery string) (*EvidenceBundle, error) {
	prompt := "## Task\n\n" + task
	if constraints != "" {
		prompt += "\n\n## Constraints\n\n" + constraints
	}
	if originalQuery != "" {
		prompt += "\n\n## Original User Question\n\n" + originalQuery
	}
	msgs := []*schema.Message{schema.UserMessage(prompt)}

	raw, err := c.CompleteWithTools(ctx, instructions, msgs, tools, evidenceSchema, llm.EffortMedium)
	if err != nil {
		if errors.Is(err, llm.ErrParseFailure) {
			return nil, fmt.Errorf("%w: %v", ErrEvidenceParse, err)
		}
		return nil, fmt.Errorf("agents: evidence completion: %w", err)
	}

	var bundle EvidenceBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvidenceParse, err)
	}
	return &bundle, nil
}

package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
)

const personaInstructions = `You gather material about %[1]s's public presence: published videos and
social posts. You are given a task and must assemble what the public-facing
tools return, then report it as a structured bundle.

Tool policy:
- Use the listing tools to fetch what is actually published. Quote titles,
  captions, and URLs verbatim in your claims.
- Tag every claims entry with support "external_profile".
- If a platform tool reports an error or returns nothing, state that the
  source was unavailable. Never invent posts or videos.

Assess your own coverage honestly: if the available material cannot answer
the task, set sufficient to false and list the missing points.`

// PublicPersonaAgent gathers public social-media material. Same contract as
// EvidenceAgent over a different toolbox. It is optional: a pipeline built
// without one degrades to a skipped public-persona stage.
type PublicPersonaAgent struct {
	llm     ToolCompleter
	tools   []tool.BaseTool
	subject string
}

// NewPublicPersonaAgent constructs a PublicPersonaAgent over the social
// toolbox.
func NewPublicPersonaAgent(c ToolCompleter, toolbox *SocialToolbox, subject string) *PublicPersonaAgent {
	return &PublicPersonaAgent{llm: c, tools: toolbox.Tools(), subject: subject}
}

// Gather runs the tool loop for one public-persona task. Malformed structured
// output returns ErrEvidenceParse, same as the profile evidence path.
func (a *PublicPersonaAgent) Gather(ctx context.Context, task, constraints, originalQuery string) (*EvidenceBundle, error) {
	return gather(ctx, a.llm, fmt.Sprintf(personaInstructions, a.subject), a.tools, task, constraints, originalQuery)
}

// Package llm wraps the Eino chat model behind the three completion shapes
// the agents need: a single schema-validated completion, a streaming
// completion, and a bounded tool-using completion. Agents depend on the
// small interfaces this package satisfies rather than on Eino directly, so
// tests can substitute canned completions.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
)

// Effort selects the deliberation budget for a completion. Routing runs high
// (it sets policy for the whole pipeline), presentation runs medium, tool
// loops run whatever the caller picks.
type Effort string

const (
	// EffortLow is for cheap, low-stakes completions.
	EffortLow Effort = "low"
	// EffortMedium is the default synthesis budget.
	EffortMedium Effort = "medium"
	// EffortHigh is for decisions that gate the rest of the pipeline.
	EffortHigh Effort = "high"
)

// temperature maps the effort level to a sampling temperature: more
// deliberation means tighter sampling.
func (e Effort) temperature() float32 {
	switch e {
	case EffortHigh:
		return 0.1
	case EffortLow:
		return 0.6
	default:
		return 0.3
	}
}

// DefaultMaxToolSteps bounds the model-requests-tools / host-executes loop in
// CompleteWithTools. Eight turns is generous for an evidence-gathering pass;
// hitting the cap means the model is looping, not working.
const DefaultMaxToolSteps = 8

// Client is the process-wide completion service. It is constructed once at
// startup around the provider-selected chat model and is safe for concurrent
// use from independent pipeline instances.
type Client struct {
	// chatModel is the LLM backend built by the provider factory.
	chatModel model.ToolCallingChatModel

	// maxToolSteps caps the tool-call loop in CompleteWithTools.
	maxToolSteps int
}

// New constructs a Client. maxToolSteps <= 0 selects DefaultMaxToolSteps.
func New(chatModel model.ToolCallingChatModel, maxToolSteps int) (*Client, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("llm: chat model must not be nil")
	}
	if maxToolSteps <= 0 {
		maxToolSteps = DefaultMaxToolSteps
	}
	return &Client{chatModel: chatModel, maxToolSteps: maxToolSteps}, nil
}

// Complete performs a single blocking completion and validates the result
// against out. The schema document is appended to the instructions so the
// model sees the exact expected shape. Returns the raw conforming JSON.
func (c *Client) Complete(ctx context.Context, instructions string, messages []*schema.Message, out *OutputSchema, effort Effort) (json.RawMessage, error) {
	msgs := buildMessages(instructions, out, messages)

	resp, err := c.chatModel.Generate(ctx, msgs, model.WithTemperature(effort.temperature()))
	if err != nil {
		return nil, fmt.Errorf("llm: completion failed: %w", err)
	}

	return validateOutput(resp, out)
}

// CompleteStreaming performs a streaming completion with no output schema.
// The returned Stream yields text fragments in model emission order and
// reports ErrStreamTruncated if the underlying stream dies before the
// explicit completion signal.
func (c *Client) CompleteStreaming(ctx context.Context, instructions string, messages []*schema.Message, effort Effort) (*Stream, error) {
	msgs := buildMessages(instructions, nil, messages)

	sr, err := c.chatModel.Stream(ctx, msgs, model.WithTemperature(effort.temperature()))
	if err != nil {
		return nil, fmt.Errorf("llm: streaming completion failed: %w", err)
	}

	return NewStream(sr), nil
}

// CompleteWithTools runs the bounded tool-use loop: the model may request
// zero or more tool calls (possibly batched in parallel) before emitting its
// final structured output, which is validated against out. The loop is capped
// at the client's maxToolSteps.
func (c *Client) CompleteWithTools(ctx context.Context, instructions string, messages []*schema.Message, tools []tool.BaseTool, out *OutputSchema, effort Effort) (json.RawMessage, error) {
	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: c.chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: tools,
		},
		MaxStep: c.maxToolSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create tool-use agent: %w", err)
	}

	msgs := buildMessages(instructions, out, messages)

	resp, err := agent.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("llm: tool-use completion failed: %w", err)
	}

	return validateOutput(resp, out)
}

// buildMessages assembles the system prompt (instructions plus, when a schema
// is requested, the output-shape contract) followed by the caller's messages.
func buildMessages(instructions string, out *OutputSchema, messages []*schema.Message) []*schema.Message {
	system := instructions
	if out != nil {
		system += "\n\n## Output Format\n\n" +
			"Respond with ONLY a single JSON object conforming to this JSON Schema — " +
			"no markdown fencing, no prose outside the JSON:\n\n" + out.Raw
	}

	msgs := make([]*schema.Message, 0, 1+len(messages))
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, messages...)
	return msgs
}

// validateOutput extracts the JSON payload from the final message and checks
// it against the schema, returning a *ParseError on any violation.
func validateOutput(resp *schema.Message, out *OutputSchema) (json.RawMessage, error) {
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, &ParseError{Schema: schemaName(out), Raw: "", Cause: fmt.Errorf("empty completion")}
	}

	payload := extractJSON(resp.Content)
	if out != nil {
		if err := out.Validate([]byte(payload)); err != nil {
			return nil, &ParseError{Schema: out.Name, Raw: resp.Content, Cause: err}
		}
	}

	return json.RawMessage(payload), nil
}

// schemaName returns a stable label for error messages when no schema was
// requested.
func schemaName(out *OutputSchema) string {
	if out == nil {
		return "freeform"
	}
	return out.Name
}

// extractJSON strips markdown code fences and leading/trailing prose around a
// JSON object. Models occasionally wrap structured output despite
// instructions; salvaging the object is cheaper than a retry. If no object
// boundary is found the content is returned unchanged so validation reports
// the real problem.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line and the closing fence.
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

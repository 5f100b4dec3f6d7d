package pipeline

import "github.com/cloudwego/eino/schema"

// Role is a transcript turn's speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry. Never mutated once appended.
type Turn struct {
	Role    Role
	Content string
}

// Conversation is the append-only transcript of one session. It is owned by
// exactly one session and must not be shared between concurrent pipeline
// invocations.
type Conversation struct {
	turns []Turn
}

// NewConversation builds a transcript seeded with prior turns, oldest first.
func NewConversation(turns ...Turn) *Conversation {
	return &Conversation{turns: turns}
}

// Append adds one turn.
func (c *Conversation) Append(role Role, content string) {
	c.turns = append(c.turns, Turn{Role: role, Content: content})
}

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// Messages renders the transcript as model messages in turn order.
func (c *Conversation) Messages() []*schema.Message {
	msgs := make([]*schema.Message, 0, len(c.turns))
	for _, t := range c.turns {
		switch t.Role {
		case RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(t.Content))
		}
	}
	return msgs
}

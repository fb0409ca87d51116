package planner

import (
	"fmt"

	"macro-meal-planner/internal/llm"
)

type messageKind int

const (
	kindPrompt messageKind = iota
	kindAssistant
	kindDigest
	kindError
	kindAckUser
	kindAckAssistant
)

type entry struct {
	kind messageKind
	day  int
	msg  llm.Message
}

// Conversation is the ordered, role-tagged message history for one
// generation run. It grows as days are generated and is trimmed before each
// model call to bound token cost. Owned by the orchestrator; discarded when
// the run ends.
type Conversation struct {
	entries []entry
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

func (c *Conversation) add(kind messageKind, day int, role, content string) {
	c.entries = append(c.entries, entry{
		kind: kind,
		day:  day,
		msg:  llm.Message{Role: role, Content: content},
	})
}

// AddPrompt records a day-generation prompt.
func (c *Conversation) AddPrompt(day int, content string) {
	c.add(kindPrompt, day, llm.RoleUser, content)
}

// AddAssistant records a model reply.
func (c *Conversation) AddAssistant(day int, content string) {
	c.add(kindAssistant, day, llm.RoleAssistant, content)
}

// AddDigest records the "previously generated meals" digest. Only the most
// recent digest survives trimming.
func (c *Conversation) AddDigest(content string) {
	c.add(kindDigest, 0, llm.RoleUser, content)
}

// AddError records a validation/duplicate failure fed back to the model.
func (c *Conversation) AddError(day int, content string) {
	c.add(kindError, day, llm.RoleUser, content)
}

// AddAck records the success acknowledgment pair after a day is accepted.
func (c *Conversation) AddAck(day int) {
	c.add(kindAckUser, day, llm.RoleUser,
		fmt.Sprintf("Day %d accepted. Continue with the next day.", day))
	c.add(kindAckAssistant, day, llm.RoleAssistant,
		fmt.Sprintf("Understood. Day %d is locked in.", day))
}

// Len returns the total number of stored messages (untrimmed).
func (c *Conversation) Len() int {
	return len(c.entries)
}

// Trimmed returns the token-bounded view used for the next model call: the
// most recent digest, the most recent error scoped to the current day, the
// most recent acknowledgment pair, and the most recent prompt. Everything
// else is discarded. Original message order is preserved.
func (c *Conversation) Trimmed(day int) []llm.Message {
	lastDigest := -1
	lastError := -1
	lastAckUser := -1
	lastAckAssistant := -1
	lastPrompt := -1

	for i, e := range c.entries {
		switch e.kind {
		case kindDigest:
			lastDigest = i
		case kindError:
			if e.day == day {
				lastError = i
			}
		case kindAckUser:
			lastAckUser = i
		case kindAckAssistant:
			lastAckAssistant = i
		case kindPrompt:
			lastPrompt = i
		}
	}

	keep := map[int]bool{
		lastDigest:       true,
		lastError:        true,
		lastAckUser:      true,
		lastAckAssistant: true,
		lastPrompt:       true,
	}

	var msgs []llm.Message
	for i, e := range c.entries {
		if keep[i] {
			msgs = append(msgs, e.msg)
		}
	}
	return msgs
}

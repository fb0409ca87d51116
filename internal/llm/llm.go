package llm

import (
	"context"

	"macro-meal-planner/internal/shared"
)

// Role identifies the author of a chat message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged message in a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes one call to a chat model: a system instruction,
// the ordered conversation so far, and sampling controls.
type ChatRequest struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int32
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// ChatGenerator is an interface for generating text from a chat exchange.
type ChatGenerator interface {
	GenerateChat(ctx context.Context, req ChatRequest) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

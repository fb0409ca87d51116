package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a single model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// IsZero reports whether the call produced no billable tokens, as happens
// when a provider omits usage metadata.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}

// Add accumulates another call's usage into u. The model name of the first
// non-empty contributor wins.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	if u.Model == "" {
		u.Model = other.Model
	}
	return u
}

// AgentMeta holds operational metadata for one pipeline step: which stage
// ran, what it cost, how many attempts it took, and how long it waited on
// the model.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Attempts  int
	Latency   time.Duration
}

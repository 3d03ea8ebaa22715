// Package llm defines the provider-agnostic completion contract shared by the
// adapters and the failover router.
package llm

// Role is the speaker of a single chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single turn in a conversation (role + content).
// Order within a conversation is significant and is preserved on the wire.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// CompletionRequest is the normalized input accepted by every adapter.
type CompletionRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,dive"`
	// JSONMode asks the provider to constrain its output to one JSON object.
	JSONMode bool `json:"jsonMode"`
}

// CompletionResult is the success contract returned to callers.
// Text is the raw provider output; parsing it is the caller's job.
type CompletionResult struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
}

// Kind selects the wire format an adapter speaks.
type Kind string

const (
	// KindOpenAI covers every OpenAI-compatible /chat/completions endpoint
	// (Cerebras, Groq, OpenRouter, gateways in front of them).
	KindOpenAI Kind = "openai"
	// KindOllama is the Ollama /api/chat endpoint.
	KindOllama Kind = "ollama"
)

// Fixed sampling parameters sent with every completion.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// ProviderConfig describes one configured backend. The set is static for the
// lifetime of the process.
type ProviderConfig struct {
	Name       string
	Kind       Kind
	BaseURL    string
	Model      string
	Credential string // already sanitized; never logged
	Priority   int
}

// Usable reports whether the provider can be attempted at all. OpenAI-family
// backends need a credential; a local Ollama only needs an endpoint.
func (c ProviderConfig) Usable() bool {
	if c.BaseURL == "" {
		return false
	}
	if c.Kind == KindOllama {
		return true
	}
	return c.Credential != ""
}

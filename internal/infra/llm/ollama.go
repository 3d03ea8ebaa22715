// Package llm: Ollama HTTP adapter.
// OllamaAdapter calls a local Ollama REST API as a last-resort backend:
//   - POST /api/chat: non-streaming chat completion
//
// Ollama needs no credential, so a configured base URL is enough to make it usable.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// OllamaAdapter implements Adapter against a running Ollama instance.
type OllamaAdapter struct {
	transport
}

// NewOllamaAdapter creates an OllamaAdapter with a 30s default timeout.
func NewOllamaAdapter(opts ...Option) *OllamaAdapter {
	return &OllamaAdapter{transport: newTransport(opts)}
}

// ─── internal Ollama JSON types ──────────────────────────────────────────────

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options"`
}

type ollamaChatResponse struct {
	Message *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	DoneReason string `json:"done_reason"`
	Done       bool   `json:"done"`
}

// Invoke performs a non-streaming chat via POST /api/chat.
func (a *OllamaAdapter) Invoke(ctx context.Context, req CompletionRequest, cfg ProviderConfig) (*CompletionResult, error) {
	payload := ollamaChatRequest{
		Model:    cfg.Model,
		Messages: req.Messages,
		Stream:   false,
		Options:  buildChatOptions(),
	}
	if req.JSONMode {
		payload.Format = "json"
	}

	body, err := a.postJSON(ctx, cfg.Name, endpoint(cfg.BaseURL, "/api/chat"), nil, payload)
	if err != nil {
		return nil, err
	}

	var out ollamaChatResponse
	if decodeErr := json.Unmarshal(body, &out); decodeErr != nil {
		return nil, &ProviderError{Provider: cfg.Name, Detail: fmt.Sprintf("decode chat response: %v", decodeErr)}
	}
	if out.Message == nil || strings.TrimSpace(out.Message.Content) == "" {
		return nil, &ProviderError{Provider: cfg.Name, Detail: "response has no message.content"}
	}

	return &CompletionResult{Text: out.Message.Content, Provider: cfg.Name}, nil
}

// buildChatOptions maps the fixed sampling parameters onto Ollama's option names.
func buildChatOptions() map[string]any {
	return map[string]any{
		"temperature": DefaultTemperature,
		"num_predict": DefaultMaxTokens,
	}
}

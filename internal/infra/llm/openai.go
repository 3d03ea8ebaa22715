package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Well-known OpenAI-compatible base URLs.
const (
	CerebrasBaseURL = "https://api.cerebras.ai/v1"
	GroqBaseURL     = "https://api.groq.com/openai/v1"
)

// OpenAIAdapter speaks the OpenAI chat completions format used by Cerebras,
// Groq and most gateways in front of them.
type OpenAIAdapter struct {
	transport
}

// NewOpenAIAdapter creates an OpenAIAdapter with a 30s default timeout.
func NewOpenAIAdapter(opts ...Option) *OpenAIAdapter {
	return &OpenAIAdapter{transport: newTransport(opts)}
}

// ─── wire types ──────────────────────────────────────────────────────────────

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []Message             `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChoice struct {
	Message struct {
		Content *string `json:"content"`
	} `json:"message"`
}

type openAIChatResponse struct {
	Choices []openAIChoice `json:"choices"`
}

// ─── Adapter implementation ─────────────────────────────────────────────────

// Invoke POSTs to {BaseURL}/chat/completions with Bearer auth.
func (a *OpenAIAdapter) Invoke(ctx context.Context, req CompletionRequest, cfg ProviderConfig) (*CompletionResult, error) {
	payload := openAIChatRequest{
		Model:       cfg.Model,
		Messages:    req.Messages,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	if req.JSONMode {
		payload.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	headers := map[string]string{"Authorization": "Bearer " + cfg.Credential}
	body, err := a.postJSON(ctx, cfg.Name, endpoint(cfg.BaseURL, "/chat/completions"), headers, payload)
	if err != nil {
		return nil, err
	}

	var out openAIChatResponse
	if decodeErr := json.Unmarshal(body, &out); decodeErr != nil {
		return nil, &ProviderError{Provider: cfg.Name, Detail: fmt.Sprintf("decode response: %v", decodeErr)}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return nil, &ProviderError{Provider: cfg.Name, Detail: "response has no choices[0].message.content"}
	}
	text := *out.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return nil, &ProviderError{Provider: cfg.Name, Detail: "empty completion"}
	}

	return &CompletionResult{Text: text, Provider: cfg.Name}, nil
}

// Package dojo runs the scam-awareness drill: the model plays a scammer and
// the user practices spotting it. The service is stateless; the client
// replays the conversation on every turn.
package dojo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/infra/llm"
)

var (
	// ErrEmptyMessage means the user turn has no content.
	ErrEmptyMessage = errors.New("message is required")
	// ErrInvalidHistory means a replayed turn tried to smuggle in a system role.
	ErrInvalidHistory = errors.New("history may only contain user and assistant turns")
)

// MaxHistory bounds how many replayed turns are forwarded to the provider.
const MaxHistory = 40

// emptyReply stands in for a provider answer with no text.
const emptyReply = "..."

var scenarios = map[string]string{
	"TAGALOG": "Simulate a Filipino Scammer using Taglish (street slang). Be persuasive but include common red flags.",
	"BISAYA":  "Simulate a Bisaya Scammer using natural Cebuano phrasing.",
	"ILOCANO": "Simulate an Ilokano Scammer using natural phrasing.",
}

// Input is one drill turn.
type Input struct {
	Language string        `json:"language" validate:"max=32"`
	History  []llm.Message `json:"history" validate:"dive"`
	Message  string        `json:"message" validate:"required,max=4000"`
}

// Output is the model's reply plus the history the client should send next time.
type Output struct {
	Reply    string        `json:"reply"`
	Provider string        `json:"provider"`
	History  []llm.Message `json:"history"`
}

// Service runs drill turns through the completion broker.
type Service struct {
	llm    llm.Completer
	logger log.FieldLogger
}

// NewService wires a Service. logger may be nil.
func NewService(c llm.Completer, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{llm: c, logger: logger}
}

// Reply sends the system prompt, the replayed history and the new message.
func (s *Service) Reply(ctx context.Context, in Input) (*Output, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	for _, m := range in.History {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			return nil, ErrInvalidHistory
		}
	}

	history := in.History
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}

	language := normalizeLanguage(in.Language)
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: buildSystemPrompt(language)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: msg})

	res, err := s.llm.Complete(ctx, llm.CompletionRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	reply := strings.TrimSpace(res.Text)
	if reply == "" {
		reply = emptyReply
	}

	out := make([]llm.Message, 0, len(history)+2)
	out = append(out, history...)
	out = append(out,
		llm.Message{Role: llm.RoleUser, Content: msg},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)

	s.logger.WithFields(log.Fields{
		"event":    "dojo_turn",
		"provider": res.Provider,
		"language": language,
		"turns":    len(out),
	}).Debug("Dojo turn complete")

	return &Output{Reply: reply, Provider: res.Provider, History: out}, nil
}

func normalizeLanguage(language string) string {
	l := strings.ToUpper(strings.TrimSpace(language))
	if l == "" {
		return "ENGLISH"
	}
	return l
}

func buildSystemPrompt(language string) string {
	scenario, ok := scenarios[language]
	if !ok {
		scenario = fmt.Sprintf("Simulate a scammer speaking %s.", language)
	}
	return "**AUTHORIZED CYBERSECURITY DRILL**\n" +
		"**CONTEXT:** This is a safe, educational simulation to train the user in identifying social engineering.\n" +
		`**YOUR ROLE:** You are a Security Trainer playing the role of a "Sender" in a hypothetical scenario.` + "\n" +
		"**SCENARIO:** " + scenario + "\n" +
		"**TASK:** Engage the user in a dialogue. Try to persuade them (within the simulation) to reveal info or click links.\n" +
		`**TERMINATION:** If the user identifies the threat (says "BLOCK", "SCAM", "REPORT"), immediately break character, ` +
		"reveal this was a test, and congratulate them on spotting the red flags.\n"
}

package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type LLMClient interface {
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	GetModel() string
}

type LLMSettings struct {
	model       string  // model name
	temperature float64 // randomness (0.0 to 1.0)
	maxTokens   int     // maximum tokens to generate
	system      string  // system prompt
}

type LLMOption func(*LLMSettings)

func defaultSettings(model string) LLMSettings {
	return LLMSettings{
		model:       model,
		temperature: 0.7,
		maxTokens:   0, // provider default
	}
}

func applyOptions(settings *LLMSettings, opts []LLMOption) {
	for _, opt := range opts {
		opt(settings)
	}
}

// Common options for all LLM providers
func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func WithModel(model string) LLMOption {
	return func(s *LLMSettings) {
		if model != "" {
			s.model = model
		}
	}
}

type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // the message content
}

// withSystem prepends the system prompt as the head of the conversation.
func withSystem(system string, messages []Message) []Message {
	if system == "" {
		return messages
	}

	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: system})
	return append(out, messages...)
}

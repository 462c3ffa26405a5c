package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SaiNageswarS/chatbot-boot/llm"
	"github.com/SaiNageswarS/chatbot-boot/memory"
	"github.com/SaiNageswarS/chatbot-boot/metrics"
)

// Request is one chatbot turn as submitted by a caller.
type Request struct {
	SessionID string
	Text      string
	APIKey    string
}

// Validate checks required fields in order: session_id and text first, then
// the model credential.
func (r Request) Validate() error {
	if r.SessionID == "" || r.Text == "" {
		return ErrMissingField
	}
	if r.APIKey == "" {
		return ErrMissingCredential
	}
	return nil
}

// Config is the immutable per-process chatbot configuration.
type Config struct {
	SystemPrompt    string
	Provider        string
	Temperature     float64
	MaxTokens       int
	UpstreamTimeout time.Duration
}

type Chatbot struct {
	config    Config
	sessions  *memory.SessionStore
	newClient llm.ClientFactory
	parser    OutputParser
	metrics   *metrics.Metrics
}

func NewChatbot(config Config, sessions *memory.SessionStore, newClient llm.ClientFactory) *Chatbot {
	return &Chatbot{
		config:    config,
		sessions:  sessions,
		newClient: newClient,
		parser:    StrOutputParser{},
	}
}

func (c *Chatbot) WithParser(parser OutputParser) *Chatbot {
	c.parser = parser
	return c
}

func (c *Chatbot) WithMetrics(m *metrics.Metrics) *Chatbot {
	c.metrics = m
	return c
}

// Reply runs one turn for req.SessionID and returns the assistant's answer.
// Validation failures are returned as the package's sentinel errors; anything
// else is an *UpstreamError. History is only extended when a reply is produced.
func (c *Chatbot) Reply(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	client, err := c.newClient(req.APIKey)
	if err != nil {
		return "", &UpstreamError{Err: fmt.Errorf("create model client: %w", err)}
	}

	conversation := c.sessions.GetOrCreate(req.SessionID)

	reply, err := conversation.Turn(ctx, req.Text, func(history []llm.Message) (string, error) {
		raw, err := c.generate(ctx, client, append(history, llm.Message{Role: llm.RoleUser, Content: req.Text}))
		if err != nil {
			return "", err
		}
		return c.parser.Parse(raw)
	})
	if err != nil {
		return "", &UpstreamError{Err: err}
	}

	return reply, nil
}

func (c *Chatbot) generate(ctx context.Context, client llm.LLMClient, messages []llm.Message) (string, error) {
	if c.config.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.UpstreamTimeout)
		defer cancel()
	}

	opts := []llm.LLMOption{
		llm.WithSystemPrompt(c.config.SystemPrompt),
		llm.WithTemperature(c.config.Temperature),
	}
	if c.config.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(c.config.MaxTokens))
	}

	var responseContent strings.Builder
	start := time.Now()
	err := client.GenerateInference(
		ctx,
		messages,
		func(chunk string) error {
			responseContent.WriteString(chunk)
			return nil
		},
		opts...,
	)
	c.metrics.ObserveGeneration(c.config.Provider, time.Since(start), err)

	if err != nil {
		return "", err
	}
	return responseContent.String(), nil
}

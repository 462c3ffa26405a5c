package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const DefaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient generates replies from a local Ollama server.
type OllamaClient struct {
	client *api.Client
	model  string
}

func NewOllamaClient(host, model string, httpClient *http.Client) (*OllamaClient, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama model is empty")
	}
	if host == "" {
		host = DefaultOllamaHost
	}

	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OllamaClient{
		client: api.NewClient(base, httpClient),
		model:  model,
	}, nil
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

func (c *OllamaClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := defaultSettings(c.model)
	applyOptions(&settings, opts)

	stream := false
	options := map[string]any{
		"temperature": settings.temperature,
	}
	if settings.maxTokens > 0 {
		options["num_predict"] = settings.maxTokens
	}

	req := &api.ChatRequest{
		Model:    settings.model,
		Messages: toOllamaMessages(withSystem(settings.system, messages)),
		Stream:   &stream,
		Options:  options,
	}

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ollama chat: %w", err)
	}

	if callback != nil {
		return callback(content.String())
	}
	return nil
}

func toOllamaMessages(messages []Message) []api.Message {
	out := make([]api.Message, len(messages))
	for i, msg := range messages {
		out[i] = api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return out
}

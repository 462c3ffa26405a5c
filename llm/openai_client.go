package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-3.5-turbo"

// OpenAIClient talks to the OpenAI chat completions API. A client carries the
// credential it was built with, so callers construct one per request and drop
// it once the request is done.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type OpenAIOption func(*openai.ClientConfig)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *openai.ClientConfig) {
		if baseURL != "" {
			c.BaseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) OpenAIOption {
	return func(c *openai.ClientConfig) {
		if httpClient != nil {
			c.HTTPClient = httpClient
		}
	}
}

func NewOpenAIClient(apiKey, model string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (c *OpenAIClient) GetModel() string {
	return c.model
}

func (c *OpenAIClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := defaultSettings(c.model)
	applyOptions(&settings, opts)

	request := openai.ChatCompletionRequest{
		Model:       settings.model,
		Messages:    toOpenAIMessages(withSystem(settings.system, messages)),
		Temperature: float32(settings.temperature),
	}
	if settings.maxTokens > 0 {
		request.MaxTokens = settings.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in response")
	}

	if callback != nil {
		return callback(resp.Choices[0].Message.Content)
	}
	return nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return out
}

package llm

import (
	"fmt"
	"net/http"
	"strings"
)

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// ClientFactory builds a client bound to one caller credential.
type ClientFactory func(apiKey string) (LLMClient, error)

type ProviderConfig struct {
	Provider      Provider
	Model         string
	OpenAIBaseURL string
	OllamaHost    string
	HTTPClient    *http.Client
}

func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case "", ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderOllama:
		return ProviderOllama, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q", name)
	}
}

// NewClientFactory returns a factory for the configured provider. The factory
// itself holds no credential.
func NewClientFactory(cfg ProviderConfig) (ClientFactory, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return func(apiKey string) (LLMClient, error) {
			return NewOpenAIClient(apiKey, cfg.Model,
				WithBaseURL(cfg.OpenAIBaseURL),
				WithHTTPClient(cfg.HTTPClient),
			)
		}, nil

	case ProviderOllama:
		// Ollama has no notion of an api key; the credential is accepted and ignored.
		return func(string) (LLMClient, error) {
			return NewOllamaClient(cfg.OllamaHost, cfg.Model, cfg.HTTPClient)
		}, nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

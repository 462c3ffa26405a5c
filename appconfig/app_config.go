package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/SaiNageswarS/chatbot-boot/llm"
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	HttpPort string `ini:"http_port"`

	Provider      string  `ini:"provider"`
	ModelName     string  `ini:"model_name"`
	OpenAIBaseURL string  `ini:"openai_base_url"`
	OllamaHost    string  `ini:"ollama_host"`
	Language      string  `ini:"language"`
	Temperature   float64 `ini:"temperature"`
	MaxTokens     int     `ini:"max_tokens"`

	UpstreamTimeout time.Duration `ini:"upstream_timeout"`
	ShutdownTimeout time.Duration `ini:"shutdown_timeout"`

	// Session bounds. Zero keeps every session for the life of the process.
	MaxSessions     int           `ini:"max_sessions"`
	SessionTTL      time.Duration `ini:"session_ttl"`
	JanitorInterval time.Duration `ini:"janitor_interval"`
}

func Default() *AppConfig {
	return &AppConfig{
		HttpPort:        ":8080",
		Provider:        string(llm.ProviderOpenAI),
		ModelName:       llm.DefaultOpenAIModel,
		Language:        "English",
		Temperature:     0.7,
		UpstreamTimeout: 60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		JanitorInterval: time.Minute,
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, err
	}

	if err := config.LoadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	cfg.fillBlanks()
	return cfg, cfg.Validate()
}

// fillBlanks restores defaults for keys present in the file but left empty.
func (c *AppConfig) fillBlanks() {
	def := Default()
	if strings.TrimSpace(c.HttpPort) == "" {
		c.HttpPort = def.HttpPort
	}
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = def.Provider
	}
	if strings.TrimSpace(c.ModelName) == "" && c.Provider == string(llm.ProviderOpenAI) {
		c.ModelName = def.ModelName
	}
	if strings.TrimSpace(c.Language) == "" {
		c.Language = def.Language
	}
}

func (c *AppConfig) Validate() error {
	var errs []error

	if _, err := llm.ParseProvider(c.Provider); err != nil {
		errs = append(errs, err)
	}
	if c.HttpPort == "" {
		errs = append(errs, errors.New("http_port is required"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, errors.New("max_tokens must not be negative"))
	}
	if c.MaxSessions < 0 {
		errs = append(errs, errors.New("max_sessions must not be negative"))
	}
	if c.UpstreamTimeout < 0 || c.SessionTTL < 0 || c.JanitorInterval < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.ModelName == "" && c.Provider == string(llm.ProviderOllama) {
		errs = append(errs, errors.New("model_name is required for the ollama provider"))
	}

	return errors.Join(errs...)
}

func (c *AppConfig) ProviderConfig() llm.ProviderConfig {
	provider, _ := llm.ParseProvider(c.Provider)
	return llm.ProviderConfig{
		Provider:      provider,
		Model:         c.ModelName,
		OpenAIBaseURL: c.OpenAIBaseURL,
		OllamaHost:    c.OllamaHost,
	}
}

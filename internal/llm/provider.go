// Package llm talks to chat completion providers and turns their text
// output into quiz questions and topic names.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTemperature is the sampling temperature for all requests.
	DefaultTemperature = 0.7
	// DefaultMaxTokens caps completion length.
	DefaultMaxTokens = 4000
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 60 * time.Second
)

// Request is a single-prompt completion request. An empty Model means the
// provider's configured default.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewRequest builds a request with the default sampling settings.
func NewRequest(prompt, model string) Request {
	return Request{
		Prompt:      prompt,
		Model:       model,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Provider returns the completion text for a prompt.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	ModelID() string
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Retry    RetryConfig
}

// New creates the configured provider wrapped with retry. A missing API key
// is an error: there is no built-in credential.
func New(ctx context.Context, cfg Config) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &GenerationError{
			Kind: GenNotConfigured,
			Msg:  "LLM API key is not configured: set --llm-key, QUIZFORGE_LLM_KEY or OPENAI_API_KEY",
		}
	}

	var (
		p   Provider
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		p, err = NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "gemini":
		p, err = NewGeminiProvider(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want openai or gemini)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(p, cfg.Retry), nil
}

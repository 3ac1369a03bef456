package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig configures a GeminiProvider.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GeminiProvider{client: client, model: model, timeout: timeout}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.client.Models.GenerateContent(callCtx, model, genai.Text(req.Prompt), config)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("LLM API call: %w", ctx.Err())
		}
		return "", mapGeminiError(err)
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", &GenerationError{
			Kind: GenContentFilter,
			Msg:  fmt.Sprintf("Gemini blocked the request (%s)", result.PromptFeedback.BlockReason),
		}
	}
	if len(result.Candidates) == 0 {
		return "", &GenerationError{Kind: GenMalformed, Msg: "unexpected response format from Gemini API: no candidates"}
	}
	switch result.Candidates[0].FinishReason {
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII":
		return "", &GenerationError{Kind: GenContentFilter, Msg: "Gemini blocked the response due to safety filters"}
	case "MAX_TOKENS":
		return "", &GenerationError{Kind: GenTruncated, Msg: "response was cut off due to token limit"}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Kind: GenEmpty, Msg: "Gemini API returned empty text in response"}
	}
	return text, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return &ErrRateLimit{Err: err}
		}
		return &GenerationError{Kind: GenHTTP, Msg: fmt.Sprintf("Gemini API error (HTTP %d)", apiErr.Code), Err: err}
	}
	if isNetworkError(err) {
		return &ErrTransient{Err: err}
	}
	return &GenerationError{Kind: GenMalformed, Msg: "failed to call Gemini API", Err: err}
}

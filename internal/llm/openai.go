package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAIProvider. BaseURL points it at any
// OpenAI-compatible server.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIProvider implements Provider using the OpenAI chat completions API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	config.HTTPClient = &retryAfterRecorder{doer: httpClient}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	var retryAfter time.Duration
	callCtx = context.WithValue(callCtx, retryAfterKey{}, &retryAfter)

	resp, err := p.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("LLM API call: %w", ctx.Err())
		}
		return "", mapOpenAIError(err, retryAfter)
	}

	if len(resp.Choices) == 0 {
		return "", &GenerationError{Kind: GenMalformed, Msg: "unexpected response format from OpenAI API: no choices"}
	}
	choice := resp.Choices[0]
	switch choice.FinishReason {
	case openai.FinishReasonContentFilter:
		return "", &GenerationError{Kind: GenContentFilter, Msg: "OpenAI blocked the request due to content filters"}
	case openai.FinishReasonLength:
		return "", &GenerationError{Kind: GenTruncated, Msg: "response was cut off due to token limit"}
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", &GenerationError{Kind: GenEmpty, Msg: "OpenAI API returned empty text in response"}
	}
	return choice.Message.Content, nil
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

func mapOpenAIError(err error, retryAfter time.Duration) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests,
			apiErr.Type == "rate_limit_exceeded",
			fmt.Sprint(apiErr.Code) == "rate_limit_exceeded":
			return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
		}
		return &GenerationError{
			Kind: GenHTTP,
			Msg:  fmt.Sprintf("OpenAI API error (HTTP %d)", apiErr.HTTPStatusCode),
			Err:  err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
		}
		return &GenerationError{
			Kind: GenHTTP,
			Msg:  fmt.Sprintf("OpenAI API error (HTTP %d)", reqErr.HTTPStatusCode),
			Err:  err,
		}
	}

	if isNetworkError(err) {
		return &ErrTransient{Err: err}
	}
	return &GenerationError{Kind: GenMalformed, Msg: "failed to parse OpenAI API response", Err: err}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type retryAfterKey struct{}

// retryAfterRecorder captures the Retry-After header of 429 responses into
// the *time.Duration stored in the request context, since the SDK error
// types do not expose response headers.
type retryAfterRecorder struct {
	doer *http.Client
}

func (r *retryAfterRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.doer.Do(req)
	if err != nil || resp.StatusCode != http.StatusTooManyRequests {
		return resp, err
	}
	if slot, ok := req.Context().Value(retryAfterKey{}).(*time.Duration); ok {
		*slot = parseRetryAfter(resp.Header, time.Now())
	}
	return resp, nil
}

// parseRetryAfter reads retry-after-ms or Retry-After (seconds or HTTP date).
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	if ms := h.Get("retry-after-ms"); ms != "" {
		if v, err := strconv.ParseFloat(ms, 64); err == nil && v > 0 {
			return time.Duration(v * float64(time.Millisecond))
		}
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

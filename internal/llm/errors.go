package llm

import (
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
// RetryAfter is zero when the server did not say how long to wait.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrTransient indicates a network failure or timeout that may succeed on retry.
type ErrTransient struct {
	Err error
}

func (e *ErrTransient) Error() string {
	return fmt.Sprintf("LLM provider unreachable: %v", e.Err)
}

func (e *ErrTransient) Unwrap() error { return e.Err }

// GenerationKind classifies a GenerationError.
type GenerationKind string

const (
	GenRateLimited   GenerationKind = "rate_limited"
	GenContentFilter GenerationKind = "content_filtered"
	GenTruncated     GenerationKind = "truncated"
	GenMalformed     GenerationKind = "malformed"
	GenEmpty         GenerationKind = "empty"
	GenHTTP          GenerationKind = "http"
	GenNetwork       GenerationKind = "network"
	GenNotConfigured GenerationKind = "not_configured"
)

// GenerationError reports a completion that could not be obtained.
type GenerationError struct {
	Kind GenerationKind
	Msg  string
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ParseError reports model output that could not be decoded. Preview holds
// the start of the text that was attempted.
type ParseError struct {
	Msg     string
	Preview string
	Err     error
}

func (e *ParseError) Error() string {
	s := e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	if e.Preview != "" {
		s += ". Response preview: " + e.Preview
	}
	return s
}

func (e *ParseError) Unwrap() error { return e.Err }

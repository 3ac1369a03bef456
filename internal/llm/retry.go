package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DelayFunc returns how long to wait after the given zero-based attempt failed with err.
type DelayFunc func(attempt int, err error) time.Duration

// RetryConfig bounds the retry loop.
type RetryConfig struct {
	MaxAttempts int
	Delay       DelayFunc
	// Sleep waits for d or until ctx is done. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig makes three attempts with exponential delays of 1s and 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delay:       ExponentialDelay(time.Second, 30*time.Second),
	}
}

// ExponentialDelay waits base*2^attempt, capped at limit. A server supplied
// Retry-After on a rate limit error takes precedence.
func ExponentialDelay(base, limit time.Duration) DelayFunc {
	return func(attempt int, err error) time.Duration {
		var rl *ErrRateLimit
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			return rl.RetryAfter
		}
		if attempt >= 32 {
			return limit
		}
		d := base << attempt
		if d <= 0 || d > limit {
			d = limit
		}
		return d
	}
}

// RetryProvider retries rate limits and transient failures.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Delay == nil {
		cfg.Delay = ExponentialDelay(time.Second, 30*time.Second)
	}
	if cfg.Sleep == nil {
		cfg.Sleep = Sleep
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := range r.config.MaxAttempts {
		text, err := r.inner.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !shouldRetry(ctx, err) {
			return "", err
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.config.Delay(attempt, err)
		slog.Warn("LLM call failed, retrying",
			"model", r.inner.ModelID(), "attempt", attempt+1, "delay", wait, "error", err)
		if err := r.config.Sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", exhaustedError(r.config.MaxAttempts, lastErr)
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// shouldRetry reports whether err is worth another attempt. Cancellation of
// the caller's context is never retried.
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var tr *ErrTransient
	return errors.As(err, &tr)
}

func exhaustedError(attempts int, err error) error {
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return &GenerationError{
			Kind: GenRateLimited,
			Msg: fmt.Sprintf("rate limit exceeded after %d attempts. This usually means too many requests "+
				"were sent in a short period or the API key's usage tier limit was reached; "+
				"wait a minute before retrying or check the account's rate limits", attempts),
			Err: err,
		}
	}
	return &GenerationError{
		Kind: GenNetwork,
		Msg:  fmt.Sprintf("LLM provider unreachable after %d attempts", attempts),
		Err:  err,
	}
}

// Sleep waits for d or until ctx is done. A non-positive d returns at once.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

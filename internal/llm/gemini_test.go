package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestMapGeminiError(t *testing.T) {
	t.Run("rate limited by code", func(t *testing.T) {
		err := mapGeminiError(fmt.Errorf("call: %w", &genai.APIError{Code: 429, Message: "quota"}))
		var rl *ErrRateLimit
		assert.ErrorAs(t, err, &rl)
	})

	t.Run("rate limited by status", func(t *testing.T) {
		err := mapGeminiError(&genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"})
		var rl *ErrRateLimit
		assert.ErrorAs(t, err, &rl)
	})

	t.Run("other api error", func(t *testing.T) {
		err := mapGeminiError(&genai.APIError{Code: 503, Status: "UNAVAILABLE"})
		var genErr *GenerationError
		if assert.ErrorAs(t, err, &genErr) {
			assert.Equal(t, GenHTTP, genErr.Kind)
			assert.Contains(t, genErr.Msg, "503")
		}
	})

	t.Run("network", func(t *testing.T) {
		err := mapGeminiError(context.DeadlineExceeded)
		var tr *ErrTransient
		assert.ErrorAs(t, err, &tr)
	})

	t.Run("unknown", func(t *testing.T) {
		err := mapGeminiError(errors.New("weird"))
		var genErr *GenerationError
		if assert.ErrorAs(t, err, &genErr) {
			assert.Equal(t, GenMalformed, genErr.Kind)
		}
	})
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}

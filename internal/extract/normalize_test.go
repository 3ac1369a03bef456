package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{"adds https", "example.com", "https://example.com", ""},
		{"keeps http", "http://example.com/page", "http://example.com/page", ""},
		{"keeps https with path", "https://www.example.com/a/b?q=1", "https://www.example.com/a/b?q=1", ""},
		{"trims whitespace", "  example.org/x  ", "https://example.org/x", ""},
		{"empty", "   ", "", "URL cannot be empty"},
		{"plain text", "not a url just text", "", "does not appear to be a valid URL"},
		{"single label host", "http://intranet", "", "Invalid URL format"},
		{"placeholder host", "http://test", "", "Invalid URL format"},
		{"localhost", "http://localhost", "", "Invalid URL format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				var nerr *NormalizationError
				require.True(t, errors.As(err, &nerr), "expected NormalizationError, got %T", err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	for _, in := range []string{"example.com", "https://a.b.c/path", "http://docs.example.org"} {
		once, err := NormalizeURL(in)
		require.NoError(t, err)
		twice, err := NormalizeURL(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

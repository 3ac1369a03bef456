package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, mock *MockProvider, cfg GeneratorConfig) *Generator {
	t.Helper()
	g, err := NewGenerator(mock, cfg)
	require.NoError(t, err)
	return g
}

func TestGenerateQuestions(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "```json\n" + twoQuestions + "\n```"})
	g := newTestGenerator(t, mock, GeneratorConfig{Model: "gpt-test"})

	drafts, err := g.GenerateQuestions(context.Background(), "Plants turn light into sugar.", 2)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, "gpt-test", req.Model)
	assert.Equal(t, DefaultTemperature, req.Temperature)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Contains(t, req.Prompt, "Plants turn light into sugar.")
	assert.Contains(t, req.Prompt, "exactly 2 multiple-choice")
}

func TestGenerateQuestions_DefaultCount(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: twoQuestions})
	g := newTestGenerator(t, mock, GeneratorConfig{})

	_, err := g.GenerateQuestions(context.Background(), "content", 0)
	require.NoError(t, err)
	assert.Contains(t, mock.Calls[0].Prompt, "exactly 5 multiple-choice")
}

func TestGenerateQuestions_TruncatesLongContent(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: twoQuestions})
	g := newTestGenerator(t, mock, GeneratorConfig{ContentBudget: 1000})

	content := "START " + strings.Repeat("lorem ipsum ", 2000) + " FINISH"
	_, err := g.GenerateQuestions(context.Background(), content, 3)
	require.NoError(t, err)

	prompt := mock.Calls[0].Prompt
	assert.Contains(t, prompt, "START")
	assert.Contains(t, prompt, "FINISH")
	assert.Contains(t, prompt, "content continues")
	assert.Less(t, utf8.RuneCountInString(prompt), utf8.RuneCountInString(content))
}

func TestGenerateQuestions_NoUsableQuestions(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: `{"questions": [{"question": "missing answers"}]}`})
	g := newTestGenerator(t, mock, GeneratorConfig{})

	_, err := g.GenerateQuestions(context.Background(), "content", 5)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.Preview)
}

func TestGenerateQuestions_ProviderError(t *testing.T) {
	want := &GenerationError{Kind: GenContentFilter, Msg: "blocked"}
	mock := NewMockProvider(MockResponse{Err: want})
	g := newTestGenerator(t, mock, GeneratorConfig{})

	_, err := g.GenerateQuestions(context.Background(), "content", 5)
	assert.True(t, errors.Is(err, want))
}

func TestGenerateTopic(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: `{"title": "Photosynthesis", "description": "Light to sugar."}`})
	g := newTestGenerator(t, mock, GeneratorConfig{})

	got := g.GenerateTopic(context.Background(), "Plants turn light into sugar.")
	assert.Equal(t, "Photosynthesis", got.Title)
	assert.Equal(t, "Light to sugar.", got.Description)
}

func TestGenerateTopic_FallsBackOnError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &GenerationError{Kind: GenHTTP, Msg: "500"}})
	g := newTestGenerator(t, mock, GeneratorConfig{})

	got := g.GenerateTopic(context.Background(), "content")
	assert.Equal(t, DefaultTopicTitle, got.Title)
	assert.Equal(t, DefaultTopicDescription, got.Description)
}

func TestGenerateTopic_UsesTopicBudget(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: `{"title": "Long", "description": "d"}`})
	g := newTestGenerator(t, mock, GeneratorConfig{TopicBudget: 500})

	g.GenerateTopic(context.Background(), strings.Repeat("word ", 5000))
	assert.Less(t, utf8.RuneCountInString(mock.Calls[0].Prompt), 5000)
}

func TestGenerator_ModelID(t *testing.T) {
	g := newTestGenerator(t, NewMockProvider(), GeneratorConfig{})
	assert.Equal(t, "mock", g.ModelID())

	g = newTestGenerator(t, NewMockProvider(), GeneratorConfig{Model: "gpt-4o"})
	assert.Equal(t, "gpt-4o", g.ModelID())
}

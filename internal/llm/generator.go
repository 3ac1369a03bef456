package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/quizforge/internal/llm/prompts"
	"github.com/pavelanni/quizforge/internal/model"
)

const (
	// DefaultNumQuestions is how many questions a generation run asks for.
	DefaultNumQuestions = 5
	// DefaultContentBudget is the character budget for question prompts.
	DefaultContentBudget = 12000
	// DefaultTopicBudget is the character budget for topic prompts.
	DefaultTopicBudget = 4000
)

// GeneratorConfig configures a Generator. Zero values select the defaults.
type GeneratorConfig struct {
	Model         string
	ContentBudget int
	TopicBudget   int
}

// Generator produces quiz questions and topic names from document text.
type Generator struct {
	provider      Provider
	model         string
	contentBudget int
	topicBudget   int
}

// NewGenerator creates a generator on top of p.
func NewGenerator(p Provider, cfg GeneratorConfig) (*Generator, error) {
	if err := prompts.Load(prompts.FS); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	g := &Generator{
		provider:      p,
		model:         cfg.Model,
		contentBudget: cfg.ContentBudget,
		topicBudget:   cfg.TopicBudget,
	}
	if g.contentBudget <= 0 {
		g.contentBudget = DefaultContentBudget
	}
	if g.topicBudget <= 0 {
		g.topicBudget = DefaultTopicBudget
	}
	return g, nil
}

// GenerateQuestions asks for n questions about content. The model may return
// fewer; none at all is an error.
func (g *Generator) GenerateQuestions(ctx context.Context, content string, n int) ([]model.QuestionDraft, error) {
	if n <= 0 {
		n = DefaultNumQuestions
	}
	prompt, err := prompts.BuildQuestionsPrompt(SelectContent(content, g.contentBudget), n)
	if err != nil {
		return nil, fmt.Errorf("build questions prompt: %w", err)
	}

	raw, err := g.provider.Generate(ctx, NewRequest(prompt, g.model))
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	slog.Debug("LLM response", "raw", raw)

	drafts, err := ParseQuestionBlock(raw)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, &ParseError{Msg: "model response contained no usable questions", Preview: preview(raw, shortPreview)}
	}
	if len(drafts) < n {
		slog.Warn("model returned fewer questions than requested", "requested", n, "got", len(drafts))
	}
	return drafts, nil
}

// GenerateTopic names the topic of content. Any failure yields the default
// topic so naming never blocks question generation.
func (g *Generator) GenerateTopic(ctx context.Context, content string) model.TopicDraft {
	fallback := model.TopicDraft{Title: DefaultTopicTitle, Description: DefaultTopicDescription}

	prompt, err := prompts.BuildTopicPrompt(SelectContent(content, g.topicBudget))
	if err != nil {
		slog.Warn("build topic prompt", "error", err)
		return fallback
	}
	raw, err := g.provider.Generate(ctx, NewRequest(prompt, g.model))
	if err != nil {
		slog.Warn("topic generation failed, using default", "error", err)
		return fallback
	}
	return ParseTopicBlock(raw)
}

// ModelID reports the provider's default model.
func (g *Generator) ModelID() string {
	if g.model != "" {
		return g.model
	}
	return g.provider.ModelID()
}

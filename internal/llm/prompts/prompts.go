package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
)

// FS holds the built-in prompt templates.
//
//go:embed templates/*.txt
var FS embed.FS

var sourceContentRegex = regexp.MustCompile(`(?i)</?\s*source-content\b[^>]*>`)

// Kind names a prompt template.
type Kind string

const (
	// KindQuestions asks for multiple-choice questions.
	KindQuestions Kind = "questions"
	// KindTopic asks for a topic title and description.
	KindTopic Kind = "topic"
)

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Kind]*template.Template
)

// QuestionsData holds template data for question generation prompts.
type QuestionsData struct {
	NumQuestions int
	Content      string
}

// TopicData holds template data for topic naming prompts.
type TopicData struct {
	Content string
}

// Load parses templates/<kind>.txt from fsys. Only the first call has any effect.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates = make(map[Kind]*template.Template)
		for _, k := range []Kind{KindQuestions, KindTopic} {
			file := "templates/" + string(k) + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + file + ": " + err.Error())
				return
			}
			tmpl, err := template.New(string(k)).Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + file + ": " + err.Error())
				return
			}
			templates[k] = tmpl
		}
	})
	return loadErr
}

// BuildQuestionsPrompt renders the question generation prompt. content
// should already be cut to the model's budget.
func BuildQuestionsPrompt(content string, numQuestions int) (string, error) {
	return execute(KindQuestions, QuestionsData{
		NumQuestions: numQuestions,
		Content:      sanitizeContent(content),
	})
}

// BuildTopicPrompt renders the topic naming prompt.
func BuildTopicPrompt(content string) (string, error) {
	return execute(KindTopic, TopicData{Content: sanitizeContent(content)})
}

func execute(k Kind, data any) (string, error) {
	if templates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := templates[k]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("unknown prompt: " + string(k))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitizeContent removes delimiter tags so source text cannot close the
// content block early.
func sanitizeContent(content string) string {
	content = sourceContentRegex.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)
	if content == "" {
		return "[No content provided]"
	}
	return content
}

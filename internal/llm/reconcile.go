package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pavelanni/quizforge/internal/model"
)

const (
	// DefaultTopicTitle is used when the model gives no usable title.
	DefaultTopicTitle = "Generated Topic"
	// DefaultTopicDescription is used when topic naming fails entirely.
	DefaultTopicDescription = "Questions generated from source content."

	shortPreview = 500
	longPreview  = 1000
)

// ParseQuestionBlock extracts questions from model output that may be
// wrapped in prose or code fences. Entries without both "question" and
// "answers" are skipped. Answers get 1-based positional ids.
func ParseQuestionBlock(raw string) ([]model.QuestionDraft, error) {
	block, err := decodeObject[struct {
		Questions *[]json.RawMessage `json:"questions"`
	}](raw)
	if err != nil {
		return nil, err
	}
	if block.Questions == nil {
		return nil, &ParseError{
			Msg:     `model response has no "questions" array`,
			Preview: preview(raw, shortPreview),
		}
	}

	drafts := make([]model.QuestionDraft, 0, len(*block.Questions))
	for i, entry := range *block.Questions {
		q, ok := parseQuestion(entry)
		if !ok {
			slog.Debug("skipping malformed question", "index", i)
			continue
		}
		drafts = append(drafts, q)
	}
	return drafts, nil
}

// ParseTopicBlock extracts a topic title and description. It never fails:
// unparseable output yields the default topic, and a title shorter than
// three characters is replaced by DefaultTopicTitle.
func ParseTopicBlock(raw string) model.TopicDraft {
	fallback := model.TopicDraft{Title: DefaultTopicTitle, Description: DefaultTopicDescription}

	fields, err := decodeObject[map[string]json.RawMessage](raw)
	if err != nil {
		slog.Warn("topic response not parseable, using default", "error", err)
		return fallback
	}

	title := strings.TrimSpace(lenientString(fields["title"]))
	if utf8.RuneCountInString(title) < 3 {
		title = DefaultTopicTitle
	}
	return model.TopicDraft{
		Title:       title,
		Description: strings.TrimSpace(lenientString(fields["description"])),
	}
}

// decodeObject finds the JSON object in raw and decodes it into T.
func decodeObject[T any](raw string) (T, error) {
	var zero T
	trimmed := strings.TrimSpace(raw)
	if !strings.Contains(trimmed, "{") {
		return zero, &ParseError{
			Msg:     fmt.Sprintf("no JSON found in model response (full response length %d)", len(raw)),
			Preview: preview(trimmed, shortPreview),
		}
	}

	cand := candidate(trimmed)
	var v T
	firstErr := json.Unmarshal([]byte(cand), &v)
	if firstErr == nil {
		return v, nil
	}

	// The fence or brace slice may have been wrong; scan the untouched text.
	obj, complete := matchObject(trimmed)
	if complete && obj != cand {
		var retry T
		if err := json.Unmarshal([]byte(obj), &retry); err == nil {
			return retry, nil
		}
	}
	if !complete {
		return zero, &ParseError{
			Msg:     "could not find a complete JSON object in model response",
			Preview: preview(trimmed, shortPreview),
			Err:     firstErr,
		}
	}
	return zero, &ParseError{
		Msg:     "failed to parse JSON from model response",
		Preview: preview(cand, longPreview),
		Err:     firstErr,
	}
}

// candidate slices the first fenced block, if any, then the first balanced
// {...} span within it. Text that already starts with '{' is not searched
// for fences.
func candidate(text string) string {
	switch {
	case strings.HasPrefix(text, "{"):
	case strings.Contains(text, "```json"):
		text = fenceBody(text[strings.Index(text, "```json")+len("```json"):])
	case strings.Contains(text, "```"):
		text = fenceBody(text[strings.Index(text, "```")+len("```"):])
	}
	if obj, ok := matchObject(text); ok {
		text = obj
	} else if start := strings.IndexByte(text, '{'); start >= 0 {
		text = text[start:]
	}
	return strings.TrimSpace(text)
}

func fenceBody(s string) string {
	if j := strings.Index(s, "```"); j >= 0 {
		return s[:j]
	}
	return s
}

// matchObject returns the span from the first '{' to its matching '}'.
// Braces inside JSON strings are ignored. ok is false when the object never
// closes.
func matchObject(s string) (obj string, ok bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return s[start:], false
}

func parseQuestion(raw json.RawMessage) (model.QuestionDraft, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.QuestionDraft{}, false
	}
	qRaw, hasQ := fields["question"]
	aRaw, hasA := fields["answers"]
	if !hasQ || !hasA {
		return model.QuestionDraft{}, false
	}

	var answerItems []map[string]json.RawMessage
	if err := json.Unmarshal(aRaw, &answerItems); err != nil {
		return model.QuestionDraft{}, false
	}
	answers := make([]model.Answer, 0, len(answerItems))
	for _, a := range answerItems {
		answers = append(answers, model.Answer{
			Text:      lenientString(a["text"]),
			IsCorrect: lenientBool(a["is_correct"]),
			Points:    lenientFloat(a["points"]),
		})
	}
	return model.QuestionDraft{
		Question: lenientString(qRaw),
		Answers:  model.NumberAnswers(answers),
	}, true
}

// lenientString returns a JSON string's value, or the raw JSON text of any
// other value.
func lenientString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func lenientBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	v, _ := strconv.ParseBool(strings.TrimSpace(lenientString(raw)))
	return v
}

func lenientFloat(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	v, _ := strconv.ParseFloat(strings.TrimSpace(lenientString(raw)), 64)
	return v
}

// preview returns the first n characters of s, marking the cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

package model

import "time"

// SourceKind identifies how a source's content was obtained.
type SourceKind string

const (
	SourceURL   SourceKind = "url"
	SourcePDF   SourceKind = "pdf"
	SourceWord  SourceKind = "word"
	SourceImage SourceKind = "image"
)

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceURL, SourcePDF, SourceWord, SourceImage:
		return true
	}
	return false
}

// Source is a submitted document. For URL sources Content holds the
// normalized URL; the page itself is fetched again when a topic is generated.
type Source struct {
	ID        int64          `json:"id"`
	Kind      SourceKind     `json:"type"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// IsURL reports whether the stored content is a URL to be re-extracted.
func (s Source) IsURL() bool {
	return s.Kind == SourceURL
}

// Topic groups the questions generated from one source in one run.
type Topic struct {
	ID          int64     `json:"id"`
	SourceID    int64     `json:"source_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TopicDraft is a topic name proposed by the LLM.
type TopicDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Answer is one choice of a multiple-choice question. ID is the 1-based
// position of the answer in its question's list.
type Answer struct {
	ID        int     `json:"id"`
	Text      string  `json:"text"`
	IsCorrect bool    `json:"is_correct"`
	Points    float64 `json:"points"`
}

// QuestionDraft is a question as returned by the LLM, before persistence.
type QuestionDraft struct {
	Question string   `json:"question"`
	Answers  []Answer `json:"answers"`
}

// Question is a persisted question belonging to a topic.
type Question struct {
	ID        int64     `json:"id"`
	TopicID   int64     `json:"topic_id"`
	Text      string    `json:"question_text"`
	Answers   []Answer  `json:"answers"`
	CreatedAt time.Time `json:"created_at"`
}

// NumberAnswers assigns positional 1-based ids to answers.
func NumberAnswers(answers []Answer) []Answer {
	out := make([]Answer, len(answers))
	for i, a := range answers {
		a.ID = i + 1
		out[i] = a
	}
	return out
}

// MaxScore is the sum of positive answer points.
func (q Question) MaxScore() float64 {
	var total float64
	for _, a := range q.Answers {
		if a.Points > 0 {
			total += a.Points
		}
	}
	return total
}

// Quiz is an ordered selection of questions.
type Quiz struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	QuestionIDs []int64   `json:"question_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoredAttempt is the result of scoring a submission.
type ScoredAttempt struct {
	SelectedAnswers map[int64][]int   `json:"selected_answers"`
	QuestionScores  map[int64]float64 `json:"question_scores"`
	TotalScore      float64           `json:"total_score"`
}

// Attempt is a persisted, scored submission for a quiz.
type Attempt struct {
	ID          int64     `json:"id"`
	QuizID      int64     `json:"quiz_id"`
	CompletedAt time.Time `json:"completed_at"`
	ScoredAttempt
}

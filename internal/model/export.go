package model

import "time"

// AttemptExport is the top-level JSON structure for attempt export.
type AttemptExport struct {
	ExportedAt  time.Time       `json:"exported_at"`
	LLMProvider string          `json:"llm_provider,omitempty"`
	LLMModel    string          `json:"llm_model,omitempty"`
	NumAttempts int             `json:"num_attempts"`
	Results     []AttemptResult `json:"results"`
}

// AttemptResult holds one attempt with the questions as they were scored.
type AttemptResult struct {
	AttemptID   int64            `json:"attempt_id"`
	QuizID      int64            `json:"quiz_id"`
	QuizTitle   string           `json:"quiz_title"`
	CompletedAt time.Time        `json:"completed_at"`
	TotalScore  float64          `json:"total_score"`
	MaxScore    float64          `json:"max_score"`
	Questions   []QuestionResult `json:"questions"`
}

// QuestionResult holds per-question data for export.
type QuestionResult struct {
	QuestionID int64    `json:"question_id"`
	Text       string   `json:"text"`
	Answers    []Answer `json:"answers"`
	Selected   []int    `json:"selected_answer_ids"`
	Score      float64  `json:"score"`
}

// NewAttemptResult combines an attempt with the questions it is reported
// against. Questions missing from the attempt's selections score zero.
func NewAttemptResult(a Attempt, quiz Quiz, questions []Question) AttemptResult {
	res := AttemptResult{
		AttemptID:   a.ID,
		QuizID:      a.QuizID,
		QuizTitle:   quiz.Title,
		CompletedAt: a.CompletedAt,
		TotalScore:  a.TotalScore,
		Questions:   make([]QuestionResult, 0, len(questions)),
	}
	for _, q := range questions {
		res.MaxScore += q.MaxScore()
		selected := a.SelectedAnswers[q.ID]
		if selected == nil {
			selected = []int{}
		}
		res.Questions = append(res.Questions, QuestionResult{
			QuestionID: q.ID,
			Text:       q.Text,
			Answers:    q.Answers,
			Selected:   selected,
			Score:      a.QuestionScores[q.ID],
		})
	}
	return res
}

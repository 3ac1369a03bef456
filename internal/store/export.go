package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

// ExportAttempts builds an export document of all attempts with the quiz's
// current questions and the recorded selections.
func (s *Store) ExportAttempts() (model.AttemptExport, error) {
	attempts, err := s.ListAttempts()
	if err != nil {
		return model.AttemptExport{}, fmt.Errorf("list attempts: %w", err)
	}
	provider, llmModel, err := s.GetLLMInfo()
	if err != nil {
		return model.AttemptExport{}, fmt.Errorf("read llm info: %w", err)
	}

	quizzes := make(map[int64]model.Quiz)
	quizQuestions := make(map[int64][]model.Question)

	results := make([]model.AttemptResult, 0, len(attempts))
	for _, a := range attempts {
		qz, ok := quizzes[a.QuizID]
		if !ok {
			qz, err = s.GetQuiz(a.QuizID)
			if err != nil {
				return model.AttemptExport{}, fmt.Errorf("get quiz %d: %w", a.QuizID, err)
			}
			questions, err := s.GetQuizQuestions(qz)
			if err != nil {
				return model.AttemptExport{}, fmt.Errorf("get questions of quiz %d: %w", a.QuizID, err)
			}
			quizzes[a.QuizID] = qz
			quizQuestions[a.QuizID] = questions
		}
		results = append(results, model.NewAttemptResult(a, qz, quizQuestions[a.QuizID]))
	}

	return model.AttemptExport{
		ExportedAt:  time.Now().UTC(),
		LLMProvider: provider,
		LLMModel:    llmModel,
		NumAttempts: len(results),
		Results:     results,
	}, nil
}

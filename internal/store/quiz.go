package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

const quizColumns = `id, title, description, question_ids, created_at`

func scanQuiz(r rowScanner) (model.Quiz, error) {
	var (
		qz  model.Quiz
		ids string
	)
	if err := r.Scan(&qz.ID, &qz.Title, &qz.Description, &ids, &qz.CreatedAt); err != nil {
		return qz, err
	}
	if err := decodeJSON(ids, &qz.QuestionIDs); err != nil {
		return qz, fmt.Errorf("decode question ids of quiz %d: %w", qz.ID, err)
	}
	if qz.QuestionIDs == nil {
		qz.QuestionIDs = []int64{}
	}
	return qz, nil
}

// CreateQuiz stores a quiz. The question order is preserved.
func (s *Store) CreateQuiz(qz model.Quiz) (model.Quiz, error) {
	if qz.QuestionIDs == nil {
		qz.QuestionIDs = []int64{}
	}
	ids, err := encodeJSON(qz.QuestionIDs)
	if err != nil {
		return qz, fmt.Errorf("encode question ids: %w", err)
	}
	qz.CreatedAt = time.Now().UTC()
	qz.ID, err = s.insert(s.db,
		`INSERT INTO quizzes (title, description, question_ids, created_at) VALUES (?, ?, ?, ?)`,
		qz.Title, qz.Description, ids, qz.CreatedAt,
	)
	if err != nil {
		return qz, err
	}
	slog.Info("created quiz", "id", qz.ID, "title", qz.Title, "questions", len(qz.QuestionIDs))
	return qz, nil
}

// ListQuizzes returns all quizzes, newest first.
func (s *Store) ListQuizzes() ([]model.Quiz, error) {
	rows, err := s.db.Query(`SELECT ` + quizColumns + ` FROM quizzes ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	quizzes := []model.Quiz{}
	for rows.Next() {
		qz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, qz)
	}
	return quizzes, rows.Err()
}

// GetQuiz returns a quiz by ID.
func (s *Store) GetQuiz(id int64) (model.Quiz, error) {
	qz, err := scanQuiz(s.db.QueryRow(s.q(`SELECT `+quizColumns+` FROM quizzes WHERE id = ?`), id))
	return qz, notFound(err)
}

// GetQuizQuestions returns the quiz's questions in quiz order. Questions
// deleted since the quiz was created are skipped.
func (s *Store) GetQuizQuestions(qz model.Quiz) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(qz.QuestionIDs))
	for _, id := range qz.QuestionIDs {
		q, err := s.GetQuestion(id)
		if errors.Is(err, ErrNotFound) {
			slog.Debug("quiz references missing question", "quiz", qz.ID, "question", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// DeleteQuiz removes a quiz and its attempts.
func (s *Store) DeleteQuiz(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.q(`DELETE FROM quiz_attempts WHERE quiz_id = ?`), id); err != nil {
		return err
	}
	if err := mustAffect(tx.Exec(s.q(`DELETE FROM quizzes WHERE id = ?`), id)); err != nil {
		return err
	}
	return tx.Commit()
}

const attemptColumns = `id, quiz_id, selected_answers, question_scores, total_score, completed_at`

func scanAttempt(r rowScanner) (model.Attempt, error) {
	var (
		a                model.Attempt
		selected, scores string
	)
	if err := r.Scan(&a.ID, &a.QuizID, &selected, &scores, &a.TotalScore, &a.CompletedAt); err != nil {
		return a, err
	}
	if err := decodeJSON(selected, &a.SelectedAnswers); err != nil {
		return a, fmt.Errorf("decode selections of attempt %d: %w", a.ID, err)
	}
	if err := decodeJSON(scores, &a.QuestionScores); err != nil {
		return a, fmt.Errorf("decode scores of attempt %d: %w", a.ID, err)
	}
	return a, nil
}

func scanAttempts(rows *sql.Rows) ([]model.Attempt, error) {
	defer rows.Close()
	attempts := []model.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CreateAttempt stores a scored attempt for a quiz.
func (s *Store) CreateAttempt(quizID int64, scored model.ScoredAttempt) (model.Attempt, error) {
	a := model.Attempt{QuizID: quizID, ScoredAttempt: scored}
	if a.SelectedAnswers == nil {
		a.SelectedAnswers = map[int64][]int{}
	}
	if a.QuestionScores == nil {
		a.QuestionScores = map[int64]float64{}
	}
	selected, err := encodeJSON(a.SelectedAnswers)
	if err != nil {
		return a, fmt.Errorf("encode selections: %w", err)
	}
	scores, err := encodeJSON(a.QuestionScores)
	if err != nil {
		return a, fmt.Errorf("encode scores: %w", err)
	}
	a.CompletedAt = time.Now().UTC()
	a.ID, err = s.insert(s.db,
		`INSERT INTO quiz_attempts (quiz_id, selected_answers, question_scores, total_score, completed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		quizID, selected, scores, a.TotalScore, a.CompletedAt,
	)
	if err != nil {
		return a, err
	}
	slog.Info("recorded attempt", "id", a.ID, "quiz", quizID, "score", a.TotalScore)
	return a, nil
}

// GetAttempt returns an attempt by ID.
func (s *Store) GetAttempt(id int64) (model.Attempt, error) {
	a, err := scanAttempt(s.db.QueryRow(s.q(`SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = ?`), id))
	return a, notFound(err)
}

// ListAttemptsByQuiz returns a quiz's attempts, newest first.
func (s *Store) ListAttemptsByQuiz(quizID int64) ([]model.Attempt, error) {
	rows, err := s.db.Query(s.q(`SELECT `+attemptColumns+` FROM quiz_attempts WHERE quiz_id = ? ORDER BY id DESC`), quizID)
	if err != nil {
		return nil, err
	}
	return scanAttempts(rows)
}

// ListAttempts returns every attempt in completion order.
func (s *Store) ListAttempts() ([]model.Attempt, error) {
	rows, err := s.db.Query(`SELECT ` + attemptColumns + ` FROM quiz_attempts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanAttempts(rows)
}

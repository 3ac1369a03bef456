package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

const questionColumns = `id, topic_id, question_text, answers, created_at`

func scanQuestion(r rowScanner) (model.Question, error) {
	var (
		q       model.Question
		answers string
	)
	if err := r.Scan(&q.ID, &q.TopicID, &q.Text, &answers, &q.CreatedAt); err != nil {
		return q, err
	}
	if err := decodeJSON(answers, &q.Answers); err != nil {
		return q, fmt.Errorf("decode answers of question %d: %w", q.ID, err)
	}
	return q, nil
}

func scanQuestions(rows *sql.Rows) ([]model.Question, error) {
	defer rows.Close()
	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateQuestion stores a question under an existing topic.
func (s *Store) CreateQuestion(q model.Question) (model.Question, error) {
	if _, err := s.GetTopic(q.TopicID); err != nil {
		return q, fmt.Errorf("topic %d: %w", q.TopicID, err)
	}
	return s.createQuestion(s.db, q)
}

func (s *Store) createQuestion(e execer, q model.Question) (model.Question, error) {
	if q.Answers == nil {
		q.Answers = []model.Answer{}
	}
	answers, err := encodeJSON(q.Answers)
	if err != nil {
		return q, fmt.Errorf("encode answers: %w", err)
	}
	q.CreatedAt = time.Now().UTC()
	q.ID, err = s.insert(e,
		`INSERT INTO questions (topic_id, question_text, answers, created_at) VALUES (?, ?, ?, ?)`,
		q.TopicID, q.Text, answers, q.CreatedAt,
	)
	return q, err
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(s.q(`SELECT `+questionColumns+` FROM questions WHERE id = ?`), id))
	return q, notFound(err)
}

// ListQuestions returns all questions.
func (s *Store) ListQuestions() ([]model.Question, error) {
	rows, err := s.db.Query(`SELECT ` + questionColumns + ` FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanQuestions(rows)
}

// ListQuestionsByTopic returns a topic's questions in creation order.
func (s *Store) ListQuestionsByTopic(topicID int64) ([]model.Question, error) {
	rows, err := s.db.Query(s.q(`SELECT `+questionColumns+` FROM questions WHERE topic_id = ? ORDER BY id`), topicID)
	if err != nil {
		return nil, err
	}
	return scanQuestions(rows)
}

// DeleteQuestion removes a question. Quizzes that reference it skip it from
// then on.
func (s *Store) DeleteQuestion(id int64) error {
	return mustAffect(s.db.Exec(s.q(`DELETE FROM questions WHERE id = ?`), id))
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

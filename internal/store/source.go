package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

const sourceColumns = `id, type, title, content, metadata, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(r rowScanner) (model.Source, error) {
	var (
		src  model.Source
		meta string
	)
	if err := r.Scan(&src.ID, &src.Kind, &src.Title, &src.Content, &meta, &src.CreatedAt); err != nil {
		return src, err
	}
	if err := decodeJSON(meta, &src.Metadata); err != nil {
		return src, fmt.Errorf("decode metadata of source %d: %w", src.ID, err)
	}
	return src, nil
}

// CreateSource stores a source and returns it with its id and timestamp set.
func (s *Store) CreateSource(src model.Source) (model.Source, error) {
	if src.Metadata == nil {
		src.Metadata = map[string]any{}
	}
	meta, err := encodeJSON(src.Metadata)
	if err != nil {
		return src, fmt.Errorf("encode metadata: %w", err)
	}
	src.CreatedAt = time.Now().UTC()
	src.ID, err = s.insert(s.db,
		`INSERT INTO sources (type, title, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		src.Kind, src.Title, src.Content, meta, src.CreatedAt,
	)
	if err != nil {
		return src, err
	}
	slog.Info("created source", "id", src.ID, "type", src.Kind, "title", src.Title)
	return src, nil
}

// ListSources returns all sources, newest first.
func (s *Store) ListSources() ([]model.Source, error) {
	rows, err := s.db.Query(`SELECT ` + sourceColumns + ` FROM sources ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sources := []model.Source{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// GetSource returns a source by ID.
func (s *Store) GetSource(id int64) (model.Source, error) {
	src, err := scanSource(s.db.QueryRow(s.q(`SELECT `+sourceColumns+` FROM sources WHERE id = ?`), id))
	return src, notFound(err)
}

// DeleteSource removes a source with its topics and their questions.
func (s *Store) DeleteSource(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.q(
		`DELETE FROM questions WHERE topic_id IN (SELECT id FROM topics WHERE source_id = ?)`), id); err != nil {
		return err
	}
	if _, err := tx.Exec(s.q(`DELETE FROM topics WHERE source_id = ?`), id); err != nil {
		return err
	}
	if err := mustAffect(tx.Exec(s.q(`DELETE FROM sources WHERE id = ?`), id)); err != nil {
		return err
	}
	return tx.Commit()
}

const topicColumns = `id, source_id, title, description, created_at`

func scanTopic(r rowScanner) (model.Topic, error) {
	var t model.Topic
	err := r.Scan(&t.ID, &t.SourceID, &t.Title, &t.Description, &t.CreatedAt)
	return t, err
}

// CreateTopicWithQuestions stores a topic for an existing source together
// with its questions. Either everything is stored or nothing is.
func (s *Store) CreateTopicWithQuestions(t model.Topic, drafts []model.QuestionDraft) (model.Topic, []model.Question, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return t, nil, err
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRow(s.q(`SELECT 1 FROM sources WHERE id = ?`), t.SourceID).Scan(&one); err != nil {
		return t, nil, fmt.Errorf("source %d: %w", t.SourceID, notFound(err))
	}

	t.CreatedAt = time.Now().UTC()
	t.ID, err = s.insert(tx,
		`INSERT INTO topics (source_id, title, description, created_at) VALUES (?, ?, ?, ?)`,
		t.SourceID, t.Title, t.Description, t.CreatedAt,
	)
	if err != nil {
		return t, nil, fmt.Errorf("insert topic: %w", err)
	}

	questions := make([]model.Question, 0, len(drafts))
	for _, d := range drafts {
		q, err := s.createQuestion(tx, model.Question{TopicID: t.ID, Text: d.Question, Answers: d.Answers})
		if err != nil {
			return t, nil, fmt.Errorf("insert question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := tx.Commit(); err != nil {
		return t, nil, err
	}
	return t, questions, nil
}

// ListTopicsBySource returns a source's topics in creation order.
func (s *Store) ListTopicsBySource(sourceID int64) ([]model.Topic, error) {
	rows, err := s.db.Query(s.q(`SELECT `+topicColumns+` FROM topics WHERE source_id = ? ORDER BY id`), sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	topics := []model.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// GetTopic returns a topic by ID.
func (s *Store) GetTopic(id int64) (model.Topic, error) {
	t, err := scanTopic(s.db.QueryRow(s.q(`SELECT `+topicColumns+` FROM topics WHERE id = ?`), id))
	return t, notFound(err)
}

// UpdateTopic changes the fields that are non-nil and returns the result.
func (s *Store) UpdateTopic(id int64, title, description *string) (model.Topic, error) {
	t, err := s.GetTopic(id)
	if err != nil {
		return t, err
	}
	if title != nil {
		t.Title = *title
	}
	if description != nil {
		t.Description = *description
	}
	_, err = s.db.Exec(s.q(`UPDATE topics SET title = ?, description = ? WHERE id = ?`), t.Title, t.Description, id)
	return t, err
}

// DeleteTopic removes a topic and its questions.
func (s *Store) DeleteTopic(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.q(`DELETE FROM questions WHERE topic_id = ?`), id); err != nil {
		return err
	}
	if err := mustAffect(tx.Exec(s.q(`DELETE FROM topics WHERE id = ?`), id)); err != nil {
		return err
	}
	return tx.Commit()
}

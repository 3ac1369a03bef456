package store

import (
	"database/sql"
	"errors"
)

// Metadata keys recorded by the server.
const (
	MetaLLMProvider = "llm_provider"
	MetaLLMModel    = "llm_model"
)

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(s.q(
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`),
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(s.q(`SELECT value FROM app_metadata WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetLLMInfo records which provider and model generated the questions.
func (s *Store) SetLLMInfo(provider, model string) error {
	if err := s.SetMetadata(MetaLLMProvider, provider); err != nil {
		return err
	}
	return s.SetMetadata(MetaLLMModel, model)
}

// GetLLMInfo reads the values stored by SetLLMInfo.
func (s *Store) GetLLMInfo() (provider, model string, err error) {
	if provider, err = s.GetMetadata(MetaLLMProvider); err != nil {
		return "", "", err
	}
	if model, err = s.GetMetadata(MetaLLMModel); err != nil {
		return "", "", err
	}
	return provider, model, nil
}

package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// SetMetadata upserts a key-value pair in the grading_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO grading_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM grading_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

const (
	metaActiveTemplateID   = "active_template_id"
	metaActiveTemplateName = "active_template_name"
)

// SetActiveTemplate records the template that subsequent grading runs
// are scored against.
func (s *Store) SetActiveTemplate(id int64, name string) error {
	if err := s.SetMetadata(metaActiveTemplateID, strconv.FormatInt(id, 10)); err != nil {
		return err
	}
	return s.SetMetadata(metaActiveTemplateName, name)
}

// ActiveTemplate returns the recorded active template id and name.
// When none has been recorded it falls back to the most recently saved
// template, with an empty name; id 0 means the store holds no template
// at all.
func (s *Store) ActiveTemplate() (int64, string, error) {
	v, err := s.GetMetadata(metaActiveTemplateID)
	if err != nil {
		return 0, "", err
	}
	if v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, "", fmt.Errorf("metadata %s: %w", metaActiveTemplateID, err)
		}
		name, err := s.GetMetadata(metaActiveTemplateName)
		if err != nil {
			return 0, "", err
		}
		return id, name, nil
	}
	id, err := s.LatestTemplateID()
	return id, "", err
}

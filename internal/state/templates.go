package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/astralisone/astralis-core/pkg/models"
)

// Template storage. The template body is stored as one JSON document since
// templates are immutable per version and always read whole.

// PutTemplate inserts or replaces a template.
func (db *DB) PutTemplate(t *models.TaskTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO templates (id, name, version, body) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, version = excluded.version, body = excluded.body
	`, t.ID, t.Name, t.Version, string(body))
	if err != nil {
		return fmt.Errorf("put template: %w", err)
	}
	return nil
}

// GetTemplate retrieves a template by ID. Returns (nil, nil) if not found.
func (db *DB) GetTemplate(id string) (*models.TaskTemplate, error) {
	var body string
	err := db.QueryRow(`SELECT body FROM templates WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	var t models.TaskTemplate
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, fmt.Errorf("unmarshal template: %w", err)
	}
	return &t, nil
}

// ListTemplates returns all templates ordered by name.
func (db *DB) ListTemplates() ([]models.TaskTemplate, error) {
	rows, err := db.Query(`SELECT body FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.TaskTemplate
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		var t models.TaskTemplate
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, fmt.Errorf("unmarshal template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

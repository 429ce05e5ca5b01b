package store

import (
	"database/sql"
	"fmt"

	"solarlead/internal/models"
)

// EmailTemplateStore handles admin-editable notification templates.
type EmailTemplateStore struct {
	db *sql.DB
}

// NewEmailTemplateStore creates a new EmailTemplateStore with the given database connection.
func NewEmailTemplateStore(db *sql.DB) *EmailTemplateStore {
	return &EmailTemplateStore{db: db}
}

// FindByKey retrieves a template override by its key. Returns nil if no row
// exists, which tells the renderer to fall back to the compiled-in default.
func (s *EmailTemplateStore) FindByKey(key string) (*models.EmailTemplate, error) {
	t := &models.EmailTemplate{}
	err := s.db.QueryRow(`
		SELECT id, key, subject_template, body_template, updated_at
		FROM email_templates WHERE key = $1
	`, key).Scan(&t.ID, &t.Key, &t.SubjectTemplate, &t.BodyTemplate, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find email template: %w", err)
	}
	return t, nil
}

// List returns all stored templates ordered by key.
func (s *EmailTemplateStore) List() ([]models.EmailTemplate, error) {
	rows, err := s.db.Query(`
		SELECT id, key, subject_template, body_template, updated_at
		FROM email_templates ORDER BY key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list email templates: %w", err)
	}
	defer rows.Close()

	var templates []models.EmailTemplate
	for rows.Next() {
		var t models.EmailTemplate
		if err := rows.Scan(&t.ID, &t.Key, &t.SubjectTemplate, &t.BodyTemplate, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan email template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Upsert stores or replaces the override for a key. Callers must invalidate
// the mail renderer's compile cache afterwards.
func (s *EmailTemplateStore) Upsert(key, subject, body string) (*models.EmailTemplate, error) {
	t := &models.EmailTemplate{}
	err := s.db.QueryRow(`
		INSERT INTO email_templates (key, subject_template, body_template)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			subject_template = EXCLUDED.subject_template,
			body_template = EXCLUDED.body_template,
			updated_at = NOW()
		RETURNING id, key, subject_template, body_template, updated_at
	`, key, subject, body).Scan(&t.ID, &t.Key, &t.SubjectTemplate, &t.BodyTemplate, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert email template: %w", err)
	}
	return t, nil
}

// Delete removes an override so sends for the key fall back to the
// compiled-in default.
func (s *EmailTemplateStore) Delete(key string) error {
	res, err := s.db.Exec(`DELETE FROM email_templates WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete email template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

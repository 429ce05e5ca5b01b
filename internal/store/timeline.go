// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"solarlead/internal/models"
)

// TimelineStore reads and curates a project's event log. Automatic events
// are written by ProjectStore inside its own transactions; this store adds
// the manual entries and the admin delete.
type TimelineStore struct {
	db *sql.DB
}

// NewTimelineStore creates a new TimelineStore with the given database connection.
func NewTimelineStore(db *sql.DB) *TimelineStore {
	return &TimelineStore{db: db}
}

const eventColumns = `e.id, e.project_id, e.created_by, e.event_type, e.title,
	e.description, e.old_value, e.new_value, e.created_at`

// List returns a project's events, newest first, with the author's name
// resolved where the account still exists.
func (s *TimelineStore) List(projectID uuid.UUID) ([]models.TimelineEvent, error) {
	rows, err := s.db.Query(`
		SELECT `+eventColumns+`, u.name
		FROM timeline_events e
		LEFT JOIN users u ON u.id = e.created_by
		WHERE e.project_id = $1
		ORDER BY e.created_at DESC, e.id DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	var events []models.TimelineEvent
	for rows.Next() {
		var ev models.TimelineEvent
		if err := rows.Scan(
			&ev.ID, &ev.ProjectID, &ev.CreatedBy, &ev.EventType, &ev.Title,
			&ev.Description, &ev.OldValue, &ev.NewValue, &ev.CreatedAt, &ev.CreatedByName,
		); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CreateManual appends a custom event written by staff. When newStatus is
// set, the project's status is changed in the same transaction with the
// automatic status_changed emission suppressed, so the manual entry is the
// only trace of the action.
func (s *TimelineStore) CreateManual(projectID uuid.UUID, actorID uuid.UUID, title, description string, newStatus *models.ProjectStatus) (*models.TimelineEvent, error) {
	if newStatus != nil && !newStatus.Valid() {
		return nil, fmt.Errorf("create timeline event: unknown status %q", *newStatus)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create timeline event: %w", err)
	}
	defer tx.Rollback()

	var prev models.ProjectStatus
	err = tx.QueryRow(`
		SELECT status FROM projects WHERE id = $1 AND deleted_at IS NULL FOR UPDATE
	`, projectID).Scan(&prev)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock project: %w", err)
	}

	var oldVal, newVal *string
	if newStatus != nil {
		if _, _, err := updateStatusTx(tx, projectID, *newStatus, &actorID, false); err != nil {
			return nil, err
		}
		if prev != *newStatus {
			o, n := string(prev), string(*newStatus)
			oldVal, newVal = &o, &n
		}
	}

	ev := &models.TimelineEvent{}
	err = tx.QueryRow(`
		INSERT INTO timeline_events (project_id, created_by, event_type, title, description, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, project_id, created_by, event_type, title, description, old_value, new_value, created_at
	`, projectID, actorID, models.EventCustom, title, description, oldVal, newVal).Scan(
		&ev.ID, &ev.ProjectID, &ev.CreatedBy, &ev.EventType, &ev.Title,
		&ev.Description, &ev.OldValue, &ev.NewValue, &ev.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create timeline event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create timeline event: %w", err)
	}
	return ev, nil
}

// Delete removes a single event. Scoped to the project so a stale event id
// from another project cannot be removed by accident.
func (s *TimelineStore) Delete(projectID, eventID uuid.UUID) error {
	res, err := s.db.Exec(`
		DELETE FROM timeline_events WHERE id = $1 AND project_id = $2
	`, eventID, projectID)
	if err != nil {
		return fmt.Errorf("delete timeline event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// insertEvent writes a timeline row inside an existing transaction. Used by
// ProjectStore so events commit or roll back with the change they describe.
func insertEvent(tx *sql.Tx, projectID uuid.UUID, createdBy *uuid.UUID, eventType models.EventType, title, description string, oldValue, newValue *string) error {
	_, err := tx.Exec(`
		INSERT INTO timeline_events (project_id, created_by, event_type, title, description, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, projectID, createdBy, eventType, title, description, oldValue, newValue)
	if err != nil {
		return fmt.Errorf("insert timeline event: %w", err)
	}
	return nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"solarlead/internal/models"
)

// ProjectStore handles project, roof-area, and exclusion-zone persistence.
// Mutations that must leave a timeline trail write the event in the same
// transaction as the change itself.
type ProjectStore struct {
	db *sql.DB
}

// NewProjectStore creates a new ProjectStore with the given database connection.
func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// ProjectInput carries validated fields into Create and Update.
type ProjectInput struct {
	Name        string
	LocationLat float64
	LocationLng float64
	MapCenter   json.RawMessage
	Zoom        int
}

const projectColumns = `id, user_id, name, location_lat, location_lng, map_center, zoom,
	total_panel_count, status, deleted_at, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.LocationLat, &p.LocationLng, &p.MapCenter,
		&p.Zoom, &p.TotalPanelCount, &p.Status, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a project in status draft and writes its project_created
// timeline event, attributed to the owning user, in one transaction.
func (s *ProjectStore) Create(userID uuid.UUID, in ProjectInput) (*models.Project, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	defer tx.Rollback()

	mapCenter := in.MapCenter
	if len(mapCenter) == 0 {
		mapCenter = json.RawMessage(`{}`)
	}

	row := tx.QueryRow(`
		INSERT INTO projects (user_id, name, location_lat, location_lng, map_center, zoom, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+projectColumns,
		userID, in.Name, in.LocationLat, in.LocationLng, []byte(mapCenter), in.Zoom,
		models.StatusDraft,
	)
	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	if err := insertEvent(tx, p.ID, &userID, models.EventProjectCreated,
		"Projekt erstellt", "Project created", nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// FindByID retrieves a non-deleted project. Returns nil if not found or
// soft-deleted. When withRoofAreas is set, roof areas and their exclusion
// zones are loaded too.
func (s *ProjectStore) FindByID(id uuid.UUID, withRoofAreas bool) (*models.Project, error) {
	row := s.db.QueryRow(`
		SELECT `+projectColumns+` FROM projects WHERE id = $1 AND deleted_at IS NULL
	`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}

	if withRoofAreas {
		if p.RoofAreas, err = s.loadRoofAreas(id); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ListByUser returns a user's non-deleted projects, newest first.
func (s *ProjectStore) ListByUser(userID uuid.UUID) ([]models.Project, error) {
	rows, err := s.db.Query(`
		SELECT `+projectColumns+` FROM projects
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// List returns all non-deleted projects, newest first (staff view).
func (s *ProjectStore) List() ([]models.Project, error) {
	rows, err := s.db.Query(`
		SELECT ` + projectColumns + ` FROM projects
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Update applies non-status field changes. Status changes go through
// UpdateStatus so the timeline stays complete.
func (s *ProjectStore) Update(id uuid.UUID, in ProjectInput) (*models.Project, error) {
	row := s.db.QueryRow(`
		UPDATE projects SET
			name = $1, location_lat = $2, location_lng = $3,
			map_center = $4, zoom = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
		RETURNING `+projectColumns,
		in.Name, in.LocationLat, in.LocationLng, []byte(in.MapCenter), in.Zoom, id,
	)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// StatusOptions controls timeline emission on UpdateStatus.
type StatusOptions struct {
	// RecordEvent emits the status_changed event. Callers that write their
	// own event in the same action (the manual timeline endpoint) set it
	// to false — passing the suppression explicitly instead of toggling
	// process-wide state.
	RecordEvent bool
}

// UpdateStatus changes a project's status. If and only if the persisted
// value actually changes, exactly one status_changed timeline event is
// written — in the same transaction — unless opts.RecordEvent is false.
// An unknown status is rejected before anything is written; a status
// missing from the label table aborts the transaction.
func (s *ProjectStore) UpdateStatus(id uuid.UUID, newStatus models.ProjectStatus, actorID *uuid.UUID, opts StatusOptions) (*models.Project, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("update status: unknown status %q", newStatus)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	defer tx.Rollback()

	p, _, err := updateStatusTx(tx, id, newStatus, actorID, opts.RecordEvent)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return p, nil
}

// updateStatusTx performs the status change inside an existing transaction.
// Returns the updated project and whether the value actually changed.
func updateStatusTx(tx *sql.Tx, id uuid.UUID, newStatus models.ProjectStatus, actorID *uuid.UUID, recordEvent bool) (*models.Project, bool, error) {
	var oldStatus models.ProjectStatus
	err := tx.QueryRow(`
		SELECT status FROM projects WHERE id = $1 AND deleted_at IS NULL FOR UPDATE
	`, id).Scan(&oldStatus)
	if err == sql.ErrNoRows {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("lock project: %w", err)
	}

	row := tx.QueryRow(`
		UPDATE projects SET status = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+projectColumns, newStatus, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, false, fmt.Errorf("update status: %w", err)
	}

	if oldStatus == newStatus {
		return p, false, nil
	}

	if recordEvent {
		oldLabel, err := models.StatusLabelFor(oldStatus)
		if err != nil {
			return nil, false, fmt.Errorf("update status: %w", err)
		}
		newLabel, err := models.StatusLabelFor(newStatus)
		if err != nil {
			return nil, false, fmt.Errorf("update status: %w", err)
		}

		oldVal, newVal := string(oldStatus), string(newStatus)
		title := fmt.Sprintf("Status geändert: %s → %s", oldLabel.German, newLabel.German)
		description := fmt.Sprintf("Status changed: %s → %s", oldLabel.English, newLabel.English)
		if err := insertEvent(tx, id, actorID, models.EventStatusChanged, title, description, &oldVal, &newVal); err != nil {
			return nil, false, err
		}
	}

	return p, true, nil
}

// SoftDelete marks a project deleted. Timeline rows are kept for restore.
func (s *ProjectStore) SoftDelete(id uuid.UUID) error {
	res, err := s.db.Exec(`
		UPDATE projects SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears the soft-delete flag and records a custom timeline event
// attributed to the current actor (not necessarily the owner).
func (s *ProjectStore) Restore(id uuid.UUID, actorID *uuid.UUID) (*models.Project, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("restore project: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		UPDATE projects SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL
		RETURNING `+projectColumns, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("restore project: %w", err)
	}

	if err := insertEvent(tx, id, actorID, models.EventCustom,
		"Projekt wiederhergestellt", "Project restored", nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("restore project: %w", err)
	}
	return p, nil
}

// ForceDelete permanently removes a project. Its timeline rows cascade with
// it, so no event is written.
func (s *ProjectStore) ForceDelete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("force delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RoofAreaInput carries validated roof-area fields.
type RoofAreaInput struct {
	Name             string
	Path             json.RawMessage
	PanelType        string
	TiltAngle        float64
	OrientationAngle float64
	PanelCount       int
}

// AddRoofArea appends a roof area to a project and refreshes the project's
// total panel count in the same transaction.
func (s *ProjectStore) AddRoofArea(projectID uuid.UUID, in RoofAreaInput) (*models.RoofArea, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("add roof area: %w", err)
	}
	defer tx.Rollback()

	a := &models.RoofArea{}
	err = tx.QueryRow(`
		INSERT INTO roof_areas (project_id, name, path, panel_type, tilt_angle, orientation_angle, panel_count, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM roof_areas WHERE project_id = $1))
		RETURNING id, project_id, name, path, panel_type, tilt_angle, orientation_angle, panel_count, position
	`, projectID, in.Name, []byte(in.Path), in.PanelType, in.TiltAngle, in.OrientationAngle, in.PanelCount).Scan(
		&a.ID, &a.ProjectID, &a.Name, &a.Path, &a.PanelType,
		&a.TiltAngle, &a.OrientationAngle, &a.PanelCount, &a.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("add roof area: %w", err)
	}

	if err := refreshPanelCount(tx, projectID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("add roof area: %w", err)
	}
	return a, nil
}

// UpdateRoofArea replaces a roof area's fields and refreshes the project's
// total panel count.
func (s *ProjectStore) UpdateRoofArea(projectID, areaID uuid.UUID, in RoofAreaInput) (*models.RoofArea, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update roof area: %w", err)
	}
	defer tx.Rollback()

	a := &models.RoofArea{}
	err = tx.QueryRow(`
		UPDATE roof_areas SET
			name = $1, path = $2, panel_type = $3,
			tilt_angle = $4, orientation_angle = $5, panel_count = $6
		WHERE id = $7 AND project_id = $8
		RETURNING id, project_id, name, path, panel_type, tilt_angle, orientation_angle, panel_count, position
	`, in.Name, []byte(in.Path), in.PanelType, in.TiltAngle, in.OrientationAngle, in.PanelCount,
		areaID, projectID).Scan(
		&a.ID, &a.ProjectID, &a.Name, &a.Path, &a.PanelType,
		&a.TiltAngle, &a.OrientationAngle, &a.PanelCount, &a.Position,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update roof area: %w", err)
	}

	if err := refreshPanelCount(tx, projectID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update roof area: %w", err)
	}
	return a, nil
}

// DeleteRoofArea removes a roof area (exclusion zones cascade) and
// refreshes the project's total panel count.
func (s *ProjectStore) DeleteRoofArea(projectID, areaID uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete roof area: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		DELETE FROM roof_areas WHERE id = $1 AND project_id = $2
	`, areaID, projectID)
	if err != nil {
		return fmt.Errorf("delete roof area: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := refreshPanelCount(tx, projectID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete roof area: %w", err)
	}
	return nil
}

// AddExclusionZone appends an exclusion zone to a roof area.
func (s *ProjectStore) AddExclusionZone(areaID uuid.UUID, name string, path json.RawMessage) (*models.ExclusionZone, error) {
	z := &models.ExclusionZone{}
	err := s.db.QueryRow(`
		INSERT INTO exclusion_zones (roof_area_id, name, path)
		VALUES ($1, $2, $3)
		RETURNING id, roof_area_id, name, path
	`, areaID, name, []byte(path)).Scan(&z.ID, &z.RoofAreaID, &z.Name, &z.Path)
	if err != nil {
		return nil, fmt.Errorf("add exclusion zone: %w", err)
	}
	return z, nil
}

// DeleteExclusionZone removes an exclusion zone.
func (s *ProjectStore) DeleteExclusionZone(areaID, zoneID uuid.UUID) error {
	res, err := s.db.Exec(`
		DELETE FROM exclusion_zones WHERE id = $1 AND roof_area_id = $2
	`, zoneID, areaID)
	if err != nil {
		return fmt.Errorf("delete exclusion zone: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// loadRoofAreas loads a project's roof areas in stable order, with their
// exclusion zones.
func (s *ProjectStore) loadRoofAreas(projectID uuid.UUID) ([]models.RoofArea, error) {
	rows, err := s.db.Query(`
		SELECT id, project_id, name, path, panel_type, tilt_angle, orientation_angle, panel_count, position
		FROM roof_areas WHERE project_id = $1 ORDER BY position ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load roof areas: %w", err)
	}
	defer rows.Close()

	var areas []models.RoofArea
	for rows.Next() {
		var a models.RoofArea
		if err := rows.Scan(
			&a.ID, &a.ProjectID, &a.Name, &a.Path, &a.PanelType,
			&a.TiltAngle, &a.OrientationAngle, &a.PanelCount, &a.Position,
		); err != nil {
			return nil, fmt.Errorf("scan roof area: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range areas {
		zones, err := s.loadExclusionZones(areas[i].ID)
		if err != nil {
			return nil, err
		}
		areas[i].ExclusionZones = zones
	}
	return areas, nil
}

func (s *ProjectStore) loadExclusionZones(areaID uuid.UUID) ([]models.ExclusionZone, error) {
	rows, err := s.db.Query(`
		SELECT id, roof_area_id, name, path FROM exclusion_zones WHERE roof_area_id = $1
	`, areaID)
	if err != nil {
		return nil, fmt.Errorf("load exclusion zones: %w", err)
	}
	defer rows.Close()

	var zones []models.ExclusionZone
	for rows.Next() {
		var z models.ExclusionZone
		if err := rows.Scan(&z.ID, &z.RoofAreaID, &z.Name, &z.Path); err != nil {
			return nil, fmt.Errorf("scan exclusion zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// refreshPanelCount recomputes total_panel_count as the sum over the
// project's roof areas.
func refreshPanelCount(tx *sql.Tx, projectID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE projects SET total_panel_count = (
			SELECT COALESCE(SUM(panel_count), 0) FROM roof_areas WHERE project_id = $1
		), updated_at = NOW()
		WHERE id = $1
	`, projectID)
	if err != nil {
		return fmt.Errorf("refresh panel count: %w", err)
	}
	return nil
}

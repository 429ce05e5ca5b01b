// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"solarlead/internal/models"
)

// projectFixture creates an owner account and a draft project for a test.
func projectFixture(t *testing.T, db *sql.DB, name, ownerEmail string) (*models.Project, *models.User) {
	t.Helper()

	users := NewUserStore(db)
	projects := NewProjectStore(db)
	t.Cleanup(func() {
		cleanProjects(t, db, name)
		cleanUsers(t, db, ownerEmail)
	})

	owner, err := users.Create("Project Owner", ownerEmail, "testpass123")
	if err != nil {
		t.Fatalf("Create owner: %v", err)
	}
	project, err := projects.Create(owner.ID, ProjectInput{
		Name:        name,
		LocationLat: 48.1351,
		LocationLng: 11.5820,
		MapCenter:   json.RawMessage(`{"lat":48.1351,"lng":11.582}`),
		Zoom:        18,
	})
	if err != nil {
		t.Fatalf("Create project: %v", err)
	}
	return project, owner
}

func TestProjectStoreCreateEmitsCreatedEvent(t *testing.T) {
	db := testDB(t)
	timeline := NewTimelineStore(db)

	project, owner := projectFixture(t, db, "test-proj-created", "test-proj-created@store-test.local")

	if project.Status != models.StatusDraft {
		t.Errorf("status: got %q, want %q", project.Status, models.StatusDraft)
	}

	events, err := timeline.List(project.ID)
	if err != nil {
		t.Fatalf("List timeline: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event after create, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != models.EventProjectCreated {
		t.Errorf("event type: got %q, want %q", ev.EventType, models.EventProjectCreated)
	}
	if ev.CreatedBy == nil || *ev.CreatedBy != owner.ID {
		t.Errorf("created_by: got %v, want %v", ev.CreatedBy, owner.ID)
	}
}

func TestProjectStoreUpdateStatusEmitsOnce(t *testing.T) {
	db := testDB(t)
	projects := NewProjectStore(db)
	timeline := NewTimelineStore(db)

	project, owner := projectFixture(t, db, "test-proj-status", "test-proj-status@store-test.local")

	updated, err := projects.UpdateStatus(project.ID, models.StatusPlanning, &owner.ID, StatusOptions{RecordEvent: true})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.StatusPlanning {
		t.Errorf("status: got %q, want %q", updated.Status, models.StatusPlanning)
	}

	events, err := timeline.List(project.ID)
	if err != nil {
		t.Fatalf("List timeline: %v", err)
	}
	var changes []models.TimelineEvent
	for _, ev := range events {
		if ev.EventType == models.EventStatusChanged {
			changes = append(changes, ev)
		}
	}
	if len(changes) != 1 {
		t.Fatalf("expected exactly 1 status_changed event, got %d", len(changes))
	}
	ev := changes[0]
	if ev.OldValue == nil || *ev.OldValue != string(models.StatusDraft) {
		t.Errorf("old_value: got %v", ev.OldValue)
	}
	if ev.NewValue == nil || *ev.NewValue != string(models.StatusPlanning) {
		t.Errorf("new_value: got %v", ev.NewValue)
	}
	// The title carries the German labels, the description the English ones.
	if ev.Title != "Status geändert: Entwurf → In Planung" {
		t.Errorf("title: got %q", ev.Title)
	}
	if ev.Description != "Status changed: Draft → Planning" {
		t.Errorf("description: got %q", ev.Description)
	}
}

func TestProjectStoreUpdateStatusNoChangeNoEvent(t *testing.T) {
	db := testDB(t)
	projects := NewProjectStore(db)
	timeline := NewTimelineStore(db)

	project, owner := projectFixture(t, db, "test-proj-nochange", "test-proj-nochange@store-test.local")

	// Writing the current status back must not add to the timeline.
	if _, err := projects.UpdateStatus(project.ID, models.StatusDraft, &owner.ID, StatusOptions{RecordEvent: true}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	events, err := timeline.List(project.ID)
	if err != nil {
		t.Fatalf("List timeline: %v", err)
	}
	for _, ev := range events {
		if ev.EventType == models.EventStatusChanged {
			t.Fatalf("expected no status_changed event, got %+v", ev)
		}
	}
}

func TestProjectStoreUpdateStatusSuppressed(t *testing.T) {
	db := testDB(t)
	projects := NewProjectStore(db)
	timeline := NewTimelineStore(db)

	project, owner := projectFixture(t, db, "test-proj-suppress", "test-proj-suppress@store-test.local")

	updated, err := projects.UpdateStatus(project.ID, models.StatusPlanning, &owner.ID, StatusOptions{RecordEvent: false})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.StatusPlanning {
		t.Errorf("status: got %q, want %q", updated.Status, models.StatusPlanning)
	}

	events, err := timeline.List(project.ID)
	if err != nil {
		t.Fatalf("List timeline: %v", err)
	}
	for _, ev := range events {
		if ev.EventType == models.EventStatusChanged {
			t.Fatalf("expected suppressed emission, got %+v", ev)
		}
	}
}

func TestProjectStoreUpdateStatusUnknown(t *testing.T) {
	db := testDB(t)
	projects := NewProjectStore(db)

	project, owner := projectFixture(t, db, "test-proj-unknown", "test-proj-unknown@store-test.local")

	_, err := projects.UpdateStatus(project.ID, models.ProjectStatus("definitely_not_a_status"), &owner.ID, StatusOptions{RecordEvent: true})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestProjectStoreSoftDeleteAndRestore(t *testing.T) {
	db := testDB(t)
	projects := NewProjectStore(db)
	timeline := NewTimelineStore(db)

	project, owner := projectFixture(t, db, "test-proj-restore", "test-proj-restore@store-test.local")

	if err := projects.SoftDelete(project.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	gone, err := projects.FindByID(project.ID, false)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if gone != nil {
		t.Fatal("expected soft-deleted project to be hidden")
	}

	restored, err := projects.Restore(project.ID, &owner.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.DeletedAt != nil {
		t.Error("expected deleted_at cleared after restore")
	}

	events, err := timeline.List(project.ID)
	if err != nil {
		t.Fatalf("List timeline: %v", err)
	}
	var foundRestore bool
	for _, ev := range events {
		if ev.EventType == models.EventCustom && ev.Title == "Projekt wiederhergestellt" {
			foundRestore = true
			if ev.CreatedBy == nil || *ev.CreatedBy != owner.ID {
				t.Errorf("restore event created_by: got %v, want %v", ev.CreatedBy, owner.ID)
			}
		}
	}
	if !foundRestore {
		t.Error("expected a restore event on the timeline")
	}
}

func TestProjectStoreForceDelete(t *testing.T) {
	db := testDB(t)
	projects := NewProjectStore(db)

	project, _ := projectFixture(t, db, "test-proj-force", "test-proj-force@store-test.local")

	if err := projects.ForceDelete(project.ID); err != nil {
		t.Fatalf("ForceDelete: %v", err)
	}
	if err := projects.ForceDelete(project.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	// Timeline rows cascade with the project.
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM timeline_events WHERE project_id = $1`, project.ID).Scan(&n); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if n != 0 {
		t.Errorf("expected cascaded timeline rows, got %d", n)
	}
}

func TestProjectStoreRoofAreas(t *testing.T) {
	db := testDB(t)
	projects := NewProjectStore(db)

	project, _ := projectFixture(t, db, "test-proj-roof", "test-proj-roof@store-test.local")

	path := json.RawMessage(`[{"lat":48.1,"lng":11.5},{"lat":48.2,"lng":11.6},{"lat":48.15,"lng":11.55}]`)
	first, err := projects.AddRoofArea(project.ID, RoofAreaInput{
		Name:             "South roof",
		Path:             path,
		PanelType:        "mono_400w",
		TiltAngle:        35,
		OrientationAngle: 180,
		PanelCount:       12,
	})
	if err != nil {
		t.Fatalf("AddRoofArea: %v", err)
	}
	if first.Position != 0 {
		t.Errorf("first area position: got %d, want 0", first.Position)
	}

	second, err := projects.AddRoofArea(project.ID, RoofAreaInput{
		Name:             "Garage",
		Path:             path,
		PanelType:        "mono_400w",
		TiltAngle:        10,
		OrientationAngle: 90,
		PanelCount:       4,
	})
	if err != nil {
		t.Fatalf("AddRoofArea: %v", err)
	}
	if second.Position != 1 {
		t.Errorf("second area position: got %d, want 1", second.Position)
	}

	loaded, err := projects.FindByID(project.ID, true)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if loaded.TotalPanelCount != 16 {
		t.Errorf("total panel count: got %d, want 16", loaded.TotalPanelCount)
	}
	if len(loaded.RoofAreas) != 2 {
		t.Fatalf("expected 2 roof areas, got %d", len(loaded.RoofAreas))
	}

	zone, err := projects.AddExclusionZone(first.ID, "Chimney", json.RawMessage(`[{"lat":48.11,"lng":11.51}]`))
	if err != nil {
		t.Fatalf("AddExclusionZone: %v", err)
	}

	if err := projects.DeleteRoofArea(project.ID, second.ID); err != nil {
		t.Fatalf("DeleteRoofArea: %v", err)
	}
	loaded, err = projects.FindByID(project.ID, true)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if loaded.TotalPanelCount != 12 {
		t.Errorf("total panel count after delete: got %d, want 12", loaded.TotalPanelCount)
	}
	if len(loaded.RoofAreas) != 1 {
		t.Fatalf("expected 1 roof area, got %d", len(loaded.RoofAreas))
	}
	if len(loaded.RoofAreas[0].ExclusionZones) != 1 || loaded.RoofAreas[0].ExclusionZones[0].ID != zone.ID {
		t.Errorf("expected exclusion zone %v loaded, got %+v", zone.ID, loaded.RoofAreas[0].ExclusionZones)
	}
}

func TestProjectStoreListByUser(t *testing.T) {
	db := testDB(t)
	projects := NewProjectStore(db)

	project, owner := projectFixture(t, db, "test-proj-list", "test-proj-list@store-test.local")

	mine, err := projects.ListByUser(owner.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	var found bool
	for _, p := range mine {
		if p.ID == project.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected owner's project in list")
	}

	other, err := projects.ListByUser(uuid.New())
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected empty list for stranger, got %d", len(other))
	}
}

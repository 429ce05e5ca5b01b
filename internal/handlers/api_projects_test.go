// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"solarlead/internal/models"
	"solarlead/internal/store"
)

func createTestProject(t *testing.T, env *testEnv, owner *models.User, name string) *models.Project {
	t.Helper()
	p, err := env.ProjectStore.Create(owner.ID, store.ProjectInput{
		Name:        name,
		LocationLat: 48.1351,
		LocationLng: 11.5820,
		Zoom:        18,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM projects WHERE id = $1", p.ID)
	})
	return p
}

func TestProjectCreateAndShow(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Project Owner", "proj-create@test.local", models.RoleUser)
	sess := testSession(owner)

	w := httptest.NewRecorder()
	r := jsonRequest("POST", "/api/projects", `{
		"name": "Haus Schmidt",
		"location_lat": 48.1351,
		"location_lng": 11.582,
		"zoom": 19
	}`)
	r = r.WithContext(ctxWithSession(r.Context(), sess))
	env.Projects.Create(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d, want 201: %s", w.Code, w.Body.String())
	}
	var p models.Project
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM projects WHERE id = $1", p.ID) })
	if p.Status != models.StatusDraft {
		t.Errorf("status: got %q, want draft", p.Status)
	}

	w = httptest.NewRecorder()
	r = withChiURLParams(httptest.NewRequest("GET", "/api/projects/"+p.ID.String(), nil),
		sess, map[string]string{"id": p.ID.String()})
	env.Projects.Show(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("show: got %d, want 200", w.Code)
	}
}

func TestProjectShowStrangerForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-owner@test.local", models.RoleUser)
	stranger := testUser(t, env, "Stranger", "proj-stranger@test.local", models.RoleUser)
	p := createTestProject(t, env, owner, "Fremdes Projekt")

	w := httptest.NewRecorder()
	r := withChiURLParams(httptest.NewRequest("GET", "/api/projects/"+p.ID.String(), nil),
		testSession(stranger), map[string]string{"id": p.ID.String()})
	env.Projects.Show(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", w.Code)
	}
}

func TestProjectShowStaffAllowed(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-staffview-owner@test.local", models.RoleUser)
	sales := testUser(t, env, "Sales", "proj-staffview-sales@test.local", models.RoleSales)
	p := createTestProject(t, env, owner, "Staff Einsicht")

	w := httptest.NewRecorder()
	r := withChiURLParams(httptest.NewRequest("GET", "/api/projects/"+p.ID.String(), nil),
		testSession(sales), map[string]string{"id": p.ID.String()})
	env.Projects.Show(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestProjectStatusUpdateWritesTimeline(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-status-owner@test.local", models.RoleUser)
	sales := testUser(t, env, "Sales", "proj-status-sales@test.local", models.RoleSales)
	p := createTestProject(t, env, owner, "Statuswechsel")

	w := httptest.NewRecorder()
	r := jsonRequest("PUT", "/api/projects/"+p.ID.String()+"/status", `{"status": "planning"}`)
	r = withChiURLParams(r, testSession(sales), map[string]string{"id": p.ID.String()})
	env.Projects.UpdateStatus(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", w.Code, w.Body.String())
	}

	events, err := env.TimelineStore.List(p.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	// Newest first: the status change, then the creation event.
	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}
	if events[0].EventType != models.EventStatusChanged {
		t.Errorf("event type: got %q, want status_changed", events[0].EventType)
	}
	if events[0].CreatedBy == nil || *events[0].CreatedBy != sales.ID {
		t.Error("status event must be attributed to the acting salesperson")
	}
}

func TestProjectStatusUpdateUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-badstatus@test.local", models.RoleUser)
	sales := testUser(t, env, "Sales", "proj-badstatus-sales@test.local", models.RoleSales)
	p := createTestProject(t, env, owner, "Kaputter Status")

	w := httptest.NewRecorder()
	r := jsonRequest("PUT", "/api/projects/"+p.ID.String()+"/status", `{"status": "finished"}`)
	r = withChiURLParams(r, testSession(sales), map[string]string{"id": p.ID.String()})
	env.Projects.UpdateStatus(w, r)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestManualTimelineEntryWithStatusChange(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-manual@test.local", models.RoleUser)
	sales := testUser(t, env, "Sales", "proj-manual-sales@test.local", models.RoleSales)
	p := createTestProject(t, env, owner, "Manueller Eintrag")

	w := httptest.NewRecorder()
	r := jsonRequest("POST", "/api/projects/"+p.ID.String()+"/timeline", `{
		"title": "Vor-Ort-Termin",
		"description": "Dachbesichtigung durchgeführt, Angebot folgt.",
		"new_status": "quote_requested"
	}`)
	r = withChiURLParams(r, testSession(sales), map[string]string{"id": p.ID.String()})
	env.Projects.AddTimelineEntry(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", w.Code, w.Body.String())
	}

	// Exactly one new event: the custom entry. No automatic
	// status_changed event alongside it.
	events, err := env.TimelineStore.List(p.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2 (created + custom)", len(events))
	}
	if events[0].EventType != models.EventCustom {
		t.Errorf("event type: got %q, want custom", events[0].EventType)
	}

	fresh, err := env.ProjectStore.FindByID(p.ID, false)
	if err != nil || fresh == nil {
		t.Fatalf("reload project: %v", err)
	}
	if fresh.Status != models.StatusQuoteRequested {
		t.Errorf("project status: got %q, want quote_requested", fresh.Status)
	}
}

func TestProjectRoofAreaValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-roofval@test.local", models.RoleUser)
	p := createTestProject(t, env, owner, "Dachvalidierung")

	// Tilt angle beyond 90 degrees is rejected before the store is hit.
	w := httptest.NewRecorder()
	r := jsonRequest("POST", "/api/projects/"+p.ID.String()+"/roof-areas", `{
		"name": "Süd",
		"path": [[48.1, 11.5], [48.2, 11.5], [48.2, 11.6]],
		"panel_type": "mono_400w",
		"tilt_angle": 120,
		"orientation_angle": 180,
		"panel_count": 10
	}`)
	r = withChiURLParams(r, testSession(owner), map[string]string{"id": p.ID.String()})
	env.Projects.AddRoofArea(w, r)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestProjectRoofAreaLifecycle(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-roof@test.local", models.RoleUser)
	p := createTestProject(t, env, owner, "Dachflächen")
	sess := testSession(owner)

	w := httptest.NewRecorder()
	r := jsonRequest("POST", "/api/projects/"+p.ID.String()+"/roof-areas", `{
		"name": "Süddach",
		"path": [[48.1, 11.5], [48.2, 11.5], [48.2, 11.6]],
		"panel_type": "mono_400w",
		"tilt_angle": 35,
		"orientation_angle": 180,
		"panel_count": 14
	}`)
	r = withChiURLParams(r, sess, map[string]string{"id": p.ID.String()})
	env.Projects.AddRoofArea(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: got %d, want 201: %s", w.Code, w.Body.String())
	}
	var area models.RoofArea
	if err := json.NewDecoder(w.Body).Decode(&area); err != nil {
		t.Fatalf("decode: %v", err)
	}

	fresh, err := env.ProjectStore.FindByID(p.ID, false)
	if err != nil || fresh == nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.TotalPanelCount != 14 {
		t.Errorf("total panel count: got %d, want 14", fresh.TotalPanelCount)
	}

	w = httptest.NewRecorder()
	r = withChiURLParams(
		httptest.NewRequest("DELETE", "/api/projects/"+p.ID.String()+"/roof-areas/"+area.ID.String(), nil),
		sess, map[string]string{"id": p.ID.String(), "areaID": area.ID.String()})
	env.Projects.DeleteRoofArea(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d, want 204", w.Code)
	}

	fresh, _ = env.ProjectStore.FindByID(p.ID, false)
	if fresh.TotalPanelCount != 0 {
		t.Errorf("total panel count after delete: got %d, want 0", fresh.TotalPanelCount)
	}
}

func TestProjectListScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-list-owner@test.local", models.RoleUser)
	other := testUser(t, env, "Other", "proj-list-other@test.local", models.RoleUser)
	createTestProject(t, env, owner, "Nur Meins")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/projects", nil)
	r = r.WithContext(ctxWithSession(r.Context(), testSession(other)))
	env.Projects.List(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var projects []models.Project
	if err := json.NewDecoder(w.Body).Decode(&projects); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, p := range projects {
		if p.UserID == owner.ID {
			t.Error("another customer's project leaked into the list")
		}
	}
}

func TestProjectForceDeleteRemovesTimeline(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, "Owner", "proj-force@test.local", models.RoleUser)
	p := createTestProject(t, env, owner, "Endgültig weg")

	w := httptest.NewRecorder()
	r := withChiURLParams(httptest.NewRequest("DELETE", "/api/projects/"+p.ID.String()+"/force", nil),
		nil, map[string]string{"id": p.ID.String()})
	env.Projects.ForceDelete(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", w.Code)
	}

	var count int
	env.DB.QueryRow("SELECT COUNT(*) FROM timeline_events WHERE project_id = $1", p.ID).Scan(&count)
	if count != 0 {
		t.Errorf("timeline rows after force delete: got %d, want 0", count)
	}
}

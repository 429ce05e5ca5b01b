// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"solarlead/internal/authz"
	"solarlead/internal/httpx"
	"solarlead/internal/models"
	"solarlead/internal/store"
)

// Projects serves the authenticated project, roof-area and timeline API.
// Customers only see their own projects; sales and admin see all of them.
type Projects struct {
	projectStore  *store.ProjectStore
	timelineStore *store.TimelineStore
	gate          *authz.Gate
	validate      *validator.Validate
}

// NewProjects creates a new Projects handler group.
func NewProjects(projectStore *store.ProjectStore, timelineStore *store.TimelineStore, gate *authz.Gate) *Projects {
	return &Projects{
		projectStore:  projectStore,
		timelineStore: timelineStore,
		gate:          gate,
		validate:      validator.New(),
	}
}

type projectRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	LocationLat float64         `json:"location_lat" validate:"latitude"`
	LocationLng float64         `json:"location_lng" validate:"longitude"`
	MapCenter   json.RawMessage `json:"map_center"`
	Zoom        int             `json:"zoom" validate:"gte=0,lte=22"`
}

func (req *projectRequest) input() store.ProjectInput {
	return store.ProjectInput{
		Name:        req.Name,
		LocationLat: req.LocationLat,
		LocationLng: req.LocationLng,
		MapCenter:   req.MapCenter,
		Zoom:        req.Zoom,
	}
}

// List returns the caller's projects. Staff get every project instead.
func (h *Projects) List(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	staff, err := h.gate.HasAnyRole(sess.UserID, models.RoleSales, models.RoleAdmin)
	if err != nil {
		slog.Error("role resolution failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	var projects []models.Project
	if staff {
		projects, err = h.projectStore.List()
	} else {
		projects, err = h.projectStore.ListByUser(sess.UserID)
	}
	if err != nil {
		slog.Error("project list failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

// Create makes a new draft project owned by the caller. The creation event
// lands on the timeline in the same transaction.
func (h *Projects) Create(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	var req projectRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	project, err := h.projectStore.Create(sess.UserID, req.input())
	if err != nil {
		slog.Error("project create failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

// projectForWrite loads a project and checks the caller may touch it: the
// owner always may, staff may touch any project. Writes the error response
// itself and returns nil when access is denied or the project is gone.
func (h *Projects) projectForWrite(w http.ResponseWriter, r *http.Request, id, userID uuid.UUID) *models.Project {
	project, err := h.projectStore.FindByID(id, false)
	if err != nil {
		slog.Error("project lookup failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return nil
	}
	if project == nil {
		httpx.JSONError(w, http.StatusNotFound, "project not found", nil)
		return nil
	}
	if project.UserID == userID {
		return project
	}
	staff, err := h.gate.HasAnyRole(userID, models.RoleSales, models.RoleAdmin)
	if err != nil {
		slog.Error("role resolution failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return nil
	}
	if !staff {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return nil
	}
	return project
}

// Show returns a single project with its roof areas and exclusion zones.
func (h *Projects) Show(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	project, err := h.projectStore.FindByID(id, true)
	if err != nil {
		slog.Error("project lookup failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	if project == nil {
		httpx.JSONError(w, http.StatusNotFound, "project not found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Update replaces a project's editable fields.
func (h *Projects) Update(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	var req projectRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	project, err := h.projectStore.Update(id, req.input())
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "project not found", nil)
		return
	}
	if err != nil {
		slog.Error("project update failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus moves a project through its lifecycle. Staff only; the
// status change shows up on the timeline exactly once.
func (h *Projects) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	status := models.ProjectStatus(req.Status)
	if !status.Valid() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "unknown project status", map[string]string{"status": req.Status})
		return
	}
	project, err := h.projectStore.UpdateStatus(id, status, &sess.UserID, store.StatusOptions{RecordEvent: true})
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "project not found", nil)
		return
	}
	if err != nil {
		slog.Error("status update failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Delete soft-deletes a project. The project disappears from lists but
// keeps its data; Restore brings it back.
func (h *Projects) Delete(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	if err := h.projectStore.SoftDelete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "project not found", nil)
			return
		}
		slog.Error("project delete failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore undoes a soft delete. Staff only.
func (h *Projects) Restore(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	project, err := h.projectStore.Restore(id, &sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "project not found", nil)
		return
	}
	if err != nil {
		slog.Error("project restore failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// ForceDelete removes a project permanently, timeline and all. Admin only.
func (h *Projects) ForceDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.projectStore.ForceDelete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "project not found", nil)
			return
		}
		slog.Error("project force delete failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roofAreaRequest struct {
	Name             string          `json:"name" validate:"required,max=200"`
	Path             json.RawMessage `json:"path" validate:"required"`
	PanelType        string          `json:"panel_type" validate:"required,max=100"`
	TiltAngle        float64         `json:"tilt_angle" validate:"gte=0,lte=90"`
	OrientationAngle float64         `json:"orientation_angle" validate:"gte=0,lt=360"`
	PanelCount       int             `json:"panel_count" validate:"gte=0"`
}

func (req *roofAreaRequest) input() store.RoofAreaInput {
	return store.RoofAreaInput{
		Name:             req.Name,
		Path:             req.Path,
		PanelType:        req.PanelType,
		TiltAngle:        req.TiltAngle,
		OrientationAngle: req.OrientationAngle,
		PanelCount:       req.PanelCount,
	}
}

// AddRoofArea appends a planning polygon to the project.
func (h *Projects) AddRoofArea(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	var req roofAreaRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	area, err := h.projectStore.AddRoofArea(id, req.input())
	if err != nil {
		slog.Error("roof area create failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, area)
}

// UpdateRoofArea replaces a roof area's geometry and panel layout.
func (h *Projects) UpdateRoofArea(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	areaID, ok := urlUUID(w, r, "areaID")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	var req roofAreaRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	area, err := h.projectStore.UpdateRoofArea(id, areaID, req.input())
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "roof area not found", nil)
		return
	}
	if err != nil {
		slog.Error("roof area update failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, area)
}

// DeleteRoofArea removes a roof area and its exclusion zones.
func (h *Projects) DeleteRoofArea(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	areaID, ok := urlUUID(w, r, "areaID")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	if err := h.projectStore.DeleteRoofArea(id, areaID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "roof area not found", nil)
			return
		}
		slog.Error("roof area delete failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type exclusionZoneRequest struct {
	Name string          `json:"name" validate:"required,max=200"`
	Path json.RawMessage `json:"path" validate:"required"`
}

// AddExclusionZone marks a region of a roof area as unusable for panels.
func (h *Projects) AddExclusionZone(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	areaID, ok := urlUUID(w, r, "areaID")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	var req exclusionZoneRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	zone, err := h.projectStore.AddExclusionZone(areaID, req.Name, req.Path)
	if err != nil {
		slog.Error("exclusion zone create failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, zone)
}

// DeleteExclusionZone removes an exclusion zone from a roof area.
func (h *Projects) DeleteExclusionZone(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	areaID, ok := urlUUID(w, r, "areaID")
	if !ok {
		return
	}
	zoneID, ok := urlUUID(w, r, "zoneID")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	if err := h.projectStore.DeleteExclusionZone(areaID, zoneID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "exclusion zone not found", nil)
			return
		}
		slog.Error("exclusion zone delete failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Timeline returns a project's event history, newest first.
func (h *Projects) Timeline(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	if h.projectForWrite(w, r, id, sess.UserID) == nil {
		return
	}
	events, err := h.timelineStore.List(id)
	if err != nil {
		slog.Error("timeline list failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, events)
}

type timelineEntryRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	NewStatus   *string `json:"new_status"`
}

// AddTimelineEntry writes a manual note onto the timeline. Staff only.
// A new_status in the request changes the project's status as part of the
// entry without generating a second, automatic event.
func (h *Projects) AddTimelineEntry(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	var req timelineEntryRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	var newStatus *models.ProjectStatus
	if req.NewStatus != nil {
		status := models.ProjectStatus(*req.NewStatus)
		if !status.Valid() {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "unknown project status", map[string]string{"new_status": *req.NewStatus})
			return
		}
		newStatus = &status
	}
	event, err := h.timelineStore.CreateManual(id, sess.UserID, req.Title, req.Description, newStatus)
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "project not found", nil)
		return
	}
	if err != nil {
		slog.Error("timeline entry create failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, event)
}

// DeleteTimelineEvent removes a single event from the timeline. Admin only.
func (h *Projects) DeleteTimelineEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	eventID, ok := urlUUID(w, r, "eventID")
	if !ok {
		return
	}
	if err := h.timelineStore.Delete(id, eventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "timeline event not found", nil)
			return
		}
		slog.Error("timeline event delete failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"solarlead/internal/httpx"
	"solarlead/internal/mail"
	"solarlead/internal/models"
	"solarlead/internal/store"
)

// Leads serves the public intake endpoint and the staff lead API.
type Leads struct {
	leadStore    *store.LeadStore
	roleStore    *store.RoleStore
	userStore    *store.UserStore
	mailRenderer *mail.Renderer
	mailQueue    *mail.Queue
	validate     *validator.Validate
	baseURL      string
}

// NewLeads creates a new Leads handler group.
func NewLeads(leadStore *store.LeadStore, roleStore *store.RoleStore, userStore *store.UserStore, mailRenderer *mail.Renderer, mailQueue *mail.Queue, baseURL string) *Leads {
	return &Leads{
		leadStore:    leadStore,
		roleStore:    roleStore,
		userStore:    userStore,
		mailRenderer: mailRenderer,
		mailQueue:    mailQueue,
		validate:     validator.New(),
		baseURL:      baseURL,
	}
}

// intakeRequest is the public landing-page submission.
type intakeRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Email         string  `json:"email" validate:"required,email,max=200"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	Message       *string `json:"message" validate:"omitempty,max=5000"`
	RequestType   string  `json:"request_type" validate:"required,oneof=quote consultation"`
	Source        string  `json:"source" validate:"omitempty,max=100"`
	CreateAccount bool    `json:"create_account"`
}

// Intake handles the unauthenticated landing-page form. Optionally
// provisions a customer account in the same transaction as the lead and
// mails the generated credentials.
func (h *Leads) Intake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}

	source := req.Source
	if source == "" {
		source = "landing_page"
	}
	input := store.LeadInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Message:     req.Message,
		RequestType: models.RequestType(req.RequestType),
		Source:      source,
	}

	if !req.CreateAccount {
		lead, err := h.leadStore.Create(input)
		if err != nil {
			slog.Error("lead create failed", "error", err)
			httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
			return
		}
		httpx.JSON(w, http.StatusCreated, lead)
		return
	}

	password, err := mail.GeneratePassword(14)
	if err != nil {
		slog.Error("password generation failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	lead, user, err := h.leadStore.CreateWithAccount(input, password)
	if errors.Is(err, store.ErrConflict) {
		httpx.JSONError(w, http.StatusConflict, "an account with this email already exists", nil)
		return
	}
	if err != nil {
		slog.Error("lead account create failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	msg, err := h.mailRenderer.Render(models.TemplateWelcomeUser, user.Email, mail.WelcomeUserData{
		Name:     user.Name,
		Email:    user.Email,
		Password: password,
		LoginURL: h.baseURL + "/login",
	})
	if err != nil {
		slog.Error("welcome mail render failed", "error", err)
	} else {
		h.mailQueue.Dispatch(r.Context(), msg)
	}

	httpx.JSON(w, http.StatusCreated, lead)
}

// List returns all leads for the staff dashboard.
func (h *Leads) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leadStore.List()
	if err != nil {
		slog.Error("lead list failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, leads)
}

// Show returns a single lead with its assigned salesperson resolved.
func (h *Leads) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	lead, err := h.leadStore.FindByID(id)
	if err != nil {
		slog.Error("lead lookup failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	if lead == nil {
		httpx.JSONError(w, http.StatusNotFound, "lead not found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

// leadPatchRequest is the staff partial update.
type leadPatchRequest struct {
	Status  *string `json:"status" validate:"omitempty,max=50"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Message *string `json:"message" validate:"omitempty,max=5000"`
}

// Update applies a partial update to a lead.
func (h *Leads) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	var req leadPatchRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}

	lead, err := h.leadStore.Update(id, store.LeadPatch{
		Status:  req.Status,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "lead not found", nil)
		return
	}
	if err != nil {
		slog.Error("lead update failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

// assignRequest names the salesperson a lead goes to.
type assignRequest struct {
	SalespersonID string `json:"salesperson_id" validate:"required,uuid"`
}

// Assign sets the lead's salesperson and queues the notification mail.
func (h *Leads) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	var req assignRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	salespersonID, err := parseUUID(req.SalespersonID)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid salesperson id", nil)
		return
	}

	lead, err := h.leadStore.Assign(id, salespersonID)
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "lead not found", nil)
		return
	}
	if err != nil {
		slog.Error("lead assign failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	h.notifyAssignment(r, lead, salespersonID)
	httpx.JSON(w, http.StatusOK, lead)
}

// notifyAssignment queues the lead_assigned mail. Failures are logged, not
// surfaced: the assignment itself already succeeded.
func (h *Leads) notifyAssignment(r *http.Request, lead *models.Lead, salespersonID uuid.UUID) {
	salesperson, err := h.userStore.FindByID(salespersonID)
	if err != nil || salesperson == nil {
		slog.Error("salesperson lookup for mail failed", "error", err)
		return
	}

	msg, err := h.mailRenderer.Render(models.TemplateLeadAssigned, salesperson.Email, mail.LeadAssignedData{
		SalespersonName: salesperson.Name,
		LeadName:        lead.Name,
		LeadEmail:       lead.Email,
		LeadPhone:       deref(lead.Phone),
		Message:         deref(lead.Message),
		RequestType:     string(lead.RequestType),
		Source:          lead.Source,
		AccountCreated:  lead.AccountCreated,
		LeadURL:         h.baseURL + "/sales/leads/" + lead.ID.String(),
	})
	if err != nil {
		slog.Error("assignment mail render failed", "error", err)
		return
	}
	h.mailQueue.Dispatch(r.Context(), msg)
}

// Delete removes a lead entirely (admin only at the router level).
func (h *Leads) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	err := h.leadStore.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "lead not found", nil)
		return
	}
	if err != nil {
		slog.Error("lead delete failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// noteRequest is a staff note body.
type noteRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// AddNote appends a staff note to a lead.
func (h *Leads) AddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}

	var req noteRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}

	note, err := h.leadStore.AddNote(id, sess.UserID, req.Body)
	if err != nil {
		slog.Error("note create failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, note)
}

// ListNotes returns a lead's notes, oldest first.
func (h *Leads) ListNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	notes, err := h.leadStore.ListNotes(id)
	if err != nil {
		slog.Error("note list failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, notes)
}

// DeleteNote removes a note, scoped to the lead in the URL.
func (h *Leads) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	noteID, ok := urlUUID(w, r, "noteID")
	if !ok {
		return
	}

	err := h.leadStore.DeleteNote(id, noteID)
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "note not found", nil)
		return
	}
	if err != nil {
		slog.Error("note delete failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"solarlead/internal/authz"
	"solarlead/internal/markdown"
	"solarlead/internal/render"
	"solarlead/internal/store"
)

// Sales renders the staff lead pages. Store access and the assignment
// mail are shared with the JSON Leads group.
type Sales struct {
	renderer *render.Renderer
	leads    *Leads
	resolver authz.Resolver
}

func NewSales(renderer *render.Renderer, leads *Leads, resolver authz.Resolver) *Sales {
	return &Sales{renderer: renderer, leads: leads, resolver: resolver}
}

// LeadsPage lists every lead, newest first.
func (h *Sales) LeadsPage(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.leadStore.List()
	if err != nil {
		slog.Error("lead list failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data := basePage(r, h.resolver, "Anfragen", "leads")
	data.Data["Leads"] = leads
	h.renderer.Page(w, r, "leads", data)
}

// noteView is a lead note prepared for display: the Markdown body is
// rendered to HTML once, here, so the template only inserts it.
type noteView struct {
	BodyHTML   template.HTML
	AuthorName string
	CreatedAt  time.Time
}

// LeadDetailPage shows one lead with its notes, assignment and status.
func (h *Sales) LeadDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	lead, err := h.leads.leadStore.FindByID(id)
	if err != nil {
		slog.Error("lead lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if lead == nil {
		http.NotFound(w, r)
		return
	}

	notes, err := h.leads.leadStore.ListNotes(id)
	if err != nil {
		slog.Error("note list failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		html, err := markdown.ToHTML(n.Body)
		if err != nil {
			slog.Error("note render failed", "error", err, "note_id", n.ID)
			html = template.HTMLEscapeString(n.Body)
		}
		views = append(views, noteView{
			BodyHTML:   template.HTML(html),
			AuthorName: n.AuthorName,
			CreatedAt:  n.CreatedAt,
		})
	}

	staff, err := h.leads.roleStore.SalespeopleAndAdmins()
	if err != nil {
		slog.Error("staff list failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := basePage(r, h.resolver, lead.Name, "leads")
	data.Data["Lead"] = lead
	data.Data["Notes"] = views
	data.Data["Staff"] = staff
	h.renderer.Page(w, r, "lead_detail", data)
}

// AssignSubmit handles the assignment form on the lead detail page.
func (h *Sales) AssignSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	salespersonID, err := parseUUID(r.FormValue("salesperson_id"))
	if err != nil {
		http.Error(w, "invalid salesperson", http.StatusUnprocessableEntity)
		return
	}
	lead, err := h.leads.leadStore.Assign(id, salespersonID)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("lead assign failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.leads.notifyAssignment(r, lead, salespersonID)
	http.Redirect(w, r, "/sales/leads/"+id.String(), http.StatusSeeOther)
}

// StatusSubmit handles the status form on the lead detail page.
func (h *Sales) StatusSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	status := strings.TrimSpace(r.FormValue("status"))
	if status == "" || len(status) > 50 {
		http.Error(w, "invalid status", http.StatusUnprocessableEntity)
		return
	}
	_, err := h.leads.leadStore.Update(id, store.LeadPatch{Status: &status})
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("lead status update failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/sales/leads/"+id.String(), http.StatusSeeOther)
}

// NoteSubmit appends a Markdown note to the lead.
func (h *Sales) NoteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" || len(body) > 10000 {
		http.Error(w, "invalid note", http.StatusUnprocessableEntity)
		return
	}
	if _, err := h.leads.leadStore.AddNote(id, sess.UserID, body); err != nil {
		slog.Error("note create failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/sales/leads/"+id.String(), http.StatusSeeOther)
}

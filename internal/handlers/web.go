// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"solarlead/internal/authz"
	"solarlead/internal/middleware"
	"solarlead/internal/models"
	"solarlead/internal/render"
	"solarlead/internal/store"
)

// basePage assembles the shared page data for a server-rendered view.
// Roles are resolved fresh for the request so the navigation reflects a
// role change without re-login.
func basePage(r *http.Request, resolver authz.Resolver, title, section string) *render.PageData {
	data := &render.PageData{
		Title:   title,
		Section: section,
		Data:    map[string]any{},
	}
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return data
	}
	data.Session = sess
	roles, err := resolver.RolesOf(sess.UserID)
	if err != nil {
		slog.Error("role resolution for page failed", "error", err)
		return data
	}
	data.Roles = roles
	return data
}

// Dashboard renders the landing view after login: the customer's own
// projects, or every project when staff.
type Dashboard struct {
	renderer     *render.Renderer
	projectStore *store.ProjectStore
	resolver     authz.Resolver
}

func NewDashboard(renderer *render.Renderer, projectStore *store.ProjectStore, resolver authz.Resolver) *Dashboard {
	return &Dashboard{renderer: renderer, projectStore: projectStore, resolver: resolver}
}

func (h *Dashboard) Home(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	data := basePage(r, h.resolver, "Dashboard", "dashboard")

	var (
		projects []models.Project
		err      error
	)
	if data.HasRole(string(models.RoleSales)) || data.HasRole(string(models.RoleAdmin)) {
		projects, err = h.projectStore.List()
	} else {
		projects, err = h.projectStore.ListByUser(sess.UserID)
	}
	if err != nil {
		slog.Error("dashboard project list failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data.Data["Projects"] = projects
	h.renderer.Page(w, r, "dashboard", data)
}

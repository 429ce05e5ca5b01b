// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"solarlead/internal/authz"
	"solarlead/internal/mail"
	"solarlead/internal/models"
	"solarlead/internal/render"
	"solarlead/internal/store"
)

// Admin renders the user administration and email template pages.
type Admin struct {
	renderer      *render.Renderer
	userStore     *store.UserStore
	roleStore     *store.RoleStore
	templateStore *store.EmailTemplateStore
	mailRenderer  *mail.Renderer
	resolver      *authz.CachedResolver
	validate      *validator.Validate
}

func NewAdmin(renderer *render.Renderer, userStore *store.UserStore, roleStore *store.RoleStore, templateStore *store.EmailTemplateStore, mailRenderer *mail.Renderer, resolver *authz.CachedResolver) *Admin {
	return &Admin{
		renderer:      renderer,
		userStore:     userStore,
		roleStore:     roleStore,
		templateStore: templateStore,
		mailRenderer:  mailRenderer,
		resolver:      resolver,
		validate:      validator.New(),
	}
}

// UsersPage lists all accounts with their roles and 2FA state.
func (h *Admin) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.ListWithRoles()
	if err != nil {
		slog.Error("user list failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data := basePage(r, h.resolver, "Benutzer", "users")
	data.Data["Users"] = users
	h.renderer.Page(w, r, "users", data)
}

// RolesSubmit assigns or removes a role. The resolver cache for the user
// is dropped so the change applies on their next request, not next login.
func (h *Admin) RolesSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	role := models.RoleName(r.FormValue("role"))
	switch role {
	case models.RoleUser, models.RoleSales, models.RoleAdmin:
	default:
		http.Error(w, "unknown role", http.StatusUnprocessableEntity)
		return
	}

	var err error
	switch r.FormValue("action") {
	case "assign":
		err = h.roleStore.AssignRole(id, role)
	case "remove":
		err = h.roleStore.RemoveRole(id, role)
	default:
		http.Error(w, "unknown action", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		slog.Error("role change failed", "error", err, "user_id", id, "role", role)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.resolver.Invalidate(id)
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// TwoFAResetSubmit clears a user's TOTP enrollment. They are prompted to
// set up 2FA again on their next login.
func (h *Admin) TwoFAResetSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.userStore.ResetTOTP(id); err != nil {
		slog.Error("2fa reset failed", "error", err, "user_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// templateView is one row of the email template editor: the stored
// override when present, the compiled-in default otherwise.
type templateView struct {
	Key             string
	SubjectTemplate string
	BodyTemplate    string
	Stored          bool
}

// EmailTemplatesPage shows every known template key for editing.
func (h *Admin) EmailTemplatesPage(w http.ResponseWriter, r *http.Request) {
	stored, err := h.templateStore.List()
	if err != nil {
		slog.Error("template list failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	overrides := make(map[string]models.EmailTemplate, len(stored))
	for _, t := range stored {
		overrides[t.Key] = t
	}

	var views []templateView
	for _, key := range mail.TemplateKeys() {
		if t, ok := overrides[key]; ok {
			views = append(views, templateView{
				Key:             key,
				SubjectTemplate: t.SubjectTemplate,
				BodyTemplate:    t.BodyTemplate,
				Stored:          true,
			})
			continue
		}
		subject, body, _ := mail.DefaultTemplate(key)
		views = append(views, templateView{Key: key, SubjectTemplate: subject, BodyTemplate: body})
	}

	data := basePage(r, h.resolver, "E-Mail-Vorlagen", "email_templates")
	data.Data["Templates"] = views
	h.renderer.Page(w, r, "email_templates", data)
}

// EmailTemplateSubmit saves an override or resets a key to its default.
// Either way the renderer's compile cache for the key is dropped.
func (h *Admin) EmailTemplateSubmit(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, _, ok := mail.DefaultTemplate(key); !ok {
		http.NotFound(w, r)
		return
	}

	switch r.FormValue("action") {
	case "save":
		subject := strings.TrimSpace(r.FormValue("subject"))
		body := r.FormValue("body")
		if subject == "" || strings.TrimSpace(body) == "" {
			http.Error(w, "subject and body are required", http.StatusUnprocessableEntity)
			return
		}
		if _, err := h.templateStore.Upsert(key, subject, body); err != nil {
			slog.Error("template save failed", "error", err, "key", key)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	case "reset":
		err := h.templateStore.Delete(key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Error("template reset failed", "error", err, "key", key)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "unknown action", http.StatusUnprocessableEntity)
		return
	}

	h.mailRenderer.Invalidate(key)
	http.Redirect(w, r, "/admin/email-templates", http.StatusSeeOther)
}

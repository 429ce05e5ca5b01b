// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"solarlead/internal/httpx"
	"solarlead/internal/mail"
	"solarlead/internal/models"
	"solarlead/internal/store"
)

type emailTemplateResponse struct {
	Key             string `json:"key"`
	SubjectTemplate string `json:"subject_template"`
	BodyTemplate    string `json:"body_template"`
	Stored          bool   `json:"stored"`
}

func templateResponse(key string, override *models.EmailTemplate) emailTemplateResponse {
	if override != nil {
		return emailTemplateResponse{
			Key:             key,
			SubjectTemplate: override.SubjectTemplate,
			BodyTemplate:    override.BodyTemplate,
			Stored:          true,
		}
	}
	subject, body, _ := mail.DefaultTemplate(key)
	return emailTemplateResponse{Key: key, SubjectTemplate: subject, BodyTemplate: body}
}

// ListTemplates returns every template key with its effective subject and
// body, flagging which ones carry a stored override.
func (h *Admin) ListTemplates(w http.ResponseWriter, r *http.Request) {
	stored, err := h.templateStore.List()
	if err != nil {
		slog.Error("template list failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	overrides := make(map[string]models.EmailTemplate, len(stored))
	for _, t := range stored {
		overrides[t.Key] = t
	}

	out := make([]emailTemplateResponse, 0, len(mail.TemplateKeys()))
	for _, key := range mail.TemplateKeys() {
		var override *models.EmailTemplate
		if t, ok := overrides[key]; ok {
			override = &t
		}
		out = append(out, templateResponse(key, override))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": out})
}

// ShowTemplate returns a single template key, override or default.
func (h *Admin) ShowTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, _, ok := mail.DefaultTemplate(key); !ok {
		httpx.JSONError(w, http.StatusNotFound, "not found", nil)
		return
	}
	override, err := h.templateStore.FindByKey(key)
	if err != nil {
		slog.Error("template lookup failed", "error", err, "key", key)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, templateResponse(key, override))
}

type templateRequest struct {
	SubjectTemplate string `json:"subject_template" validate:"required,max=500"`
	BodyTemplate    string `json:"body_template" validate:"required,max=20000"`
}

// UpsertTemplate stores an override and drops the renderer's compile
// cache for the key so the next mail uses the new text.
func (h *Admin) UpsertTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, _, ok := mail.DefaultTemplate(key); !ok {
		httpx.JSONError(w, http.StatusNotFound, "not found", nil)
		return
	}
	var req templateRequest
	if err := httpx.Decode(r, &req, h.validate); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	tmpl, err := h.templateStore.Upsert(key, req.SubjectTemplate, req.BodyTemplate)
	if err != nil {
		slog.Error("template save failed", "error", err, "key", key)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	h.mailRenderer.Invalidate(key)
	httpx.JSON(w, http.StatusOK, templateResponse(key, tmpl))
}

// DeleteTemplate removes the override; the compiled-in default takes
// over again.
func (h *Admin) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, _, ok := mail.DefaultTemplate(key); !ok {
		httpx.JSONError(w, http.StatusNotFound, "not found", nil)
		return
	}
	err := h.templateStore.Delete(key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("template delete failed", "error", err, "key", key)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	h.mailRenderer.Invalidate(key)
	w.WriteHeader(http.StatusNoContent)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the public intake API,
// the authenticated JSON API, and the server-rendered staff pages.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"solarlead/internal/httpx"
	"solarlead/internal/middleware"
	"solarlead/internal/session"
)

// parseUUID parses a UUID string.
func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// urlUUID extracts and parses a UUID URL parameter. Writes a 404 and
// returns false when the value is not a valid UUID, since route ids that
// don't parse can never name an existing resource.
func urlUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not found", nil)
		return uuid.Nil, false
	}
	return id, true
}

// deref returns the pointed-to string, or "" for nil.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sessionOr401 returns the request session, or writes a 401 JSON error and
// returns nil when no session is present.
func sessionOr401(w http.ResponseWriter, r *http.Request) *session.Data {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication required", nil)
		return nil
	}
	return sess
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"solarlead/internal/httpx"
	"solarlead/internal/store"
)

// User serves the current-user endpoint.
type User struct {
	userStore *store.UserStore
}

func NewUser(userStore *store.UserStore) *User {
	return &User{userStore: userStore}
}

// Me returns the authenticated user with their roles. Roles are read from
// the store, not the session, so revocations show up on the next request.
func (h *User) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionOr401(w, r)
	if sess == nil {
		return
	}
	user, err := h.userStore.FindWithRoles(sess.UserID)
	if err != nil {
		slog.Error("user lookup failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	if user == nil {
		httpx.JSONError(w, http.StatusUnauthorized, "account no longer exists", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"net/http"

	"solarlead/internal/authz"
	"solarlead/internal/httpx"
	"solarlead/internal/models"
	"solarlead/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// LoadSession retrieves the session from Valkey and stores it in the
// request context. Downstream handlers can access it via SessionFromCtx().
// This middleware does NOT enforce authentication — it just loads the
// session if one exists.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				// Log but don't block — treat as unauthenticated.
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				ctx := context.WithValue(r.Context(), SessionKey, data)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth redirects unauthenticated users to the login page.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuthAPI returns 401 JSON instead of redirecting. Applied on the
// authenticated /api subtree where the client is fetch, not a browser
// navigation.
func RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil {
			httpx.JSONError(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Require2FA redirects users who haven't completed 2FA setup to the
// setup page. Must be applied after RequireAuth.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess != nil && !sess.TwoFADone {
			// User is logged in but hasn't completed 2FA — redirect to setup.
			http.Redirect(w, r, "/2fa/setup", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAnyRole gates a web subtree on the gate's current role data.
// Roles are resolved per request, never from the session, so a revoked
// role takes effect on the next request. Must be applied after RequireAuth.
func RequireAnyRole(gate *authz.Gate, roles ...models.RoleName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromCtx(r.Context())

			var err error
			if sess == nil {
				err = gate.RequireAnyRole(nil, roles...)
			} else {
				err = gate.RequireAnyRole(&sess.UserID, roles...)
			}
			if err != nil {
				if errors.Is(err, authz.ErrUnauthenticated) {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				var forbidden *authz.ForbiddenError
				if errors.As(err, &forbidden) {
					http.Error(w, forbidden.Reason, http.StatusForbidden)
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRoleAPI is the JSON variant of RequireAnyRole for /api routes.
func RequireAnyRoleAPI(gate *authz.Gate, roles ...models.RoleName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromCtx(r.Context())

			var err error
			if sess == nil {
				err = gate.RequireAnyRole(nil, roles...)
			} else {
				err = gate.RequireAnyRole(&sess.UserID, roles...)
			}
			if err != nil {
				if errors.Is(err, authz.ErrUnauthenticated) {
					httpx.JSONError(w, http.StatusUnauthorized, "authentication required", nil)
					return
				}
				var forbidden *authz.ForbiddenError
				if errors.As(err, &forbidden) {
					httpx.JSONError(w, http.StatusForbidden, forbidden.Reason, nil)
					return
				}
				httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

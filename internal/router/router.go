// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// SolarLead server. Routes are organized into the public intake endpoint,
// the session-based web surface and the authenticated JSON API.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"solarlead/internal/authz"
	"solarlead/internal/handlers"
	"solarlead/internal/middleware"
	"solarlead/internal/models"
	"solarlead/internal/session"
	"solarlead/web"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Sessions    *session.Store
	Gate        *authz.Gate
	Auth        *handlers.Auth
	Dashboard   *handlers.Dashboard
	Sales       *handlers.Sales
	Admin       *handlers.Admin
	Leads       *handlers.Leads
	Projects    *handlers.Projects
	User        *handlers.User
	IntakeLimit *middleware.RateLimiter
	Secure      bool
}

// New creates and returns the configured chi router.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	// Health check. No auth, no CSRF.
	r.Get("/health", healthHandler)

	// Embedded static assets.
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Server-rendered web surface. Everything carries CSRF protection.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.Secure))

		// Auth pages, reachable without a session.
		r.Get("/login", d.Auth.LoginPage)
		r.Post("/login", d.Auth.LoginSubmit)
		r.Post("/logout", d.Auth.Logout)
		r.Get("/forgot-password", d.Auth.ForgotPasswordPage)
		r.Post("/forgot-password", d.Auth.ForgotPasswordSubmit)
		r.Get("/reset-password", d.Auth.ResetPasswordPage)
		r.Post("/reset-password", d.Auth.ResetPasswordSubmit)

		// 2FA enrollment and verification. Requires auth but NOT
		// completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", d.Auth.TwoFASetupPage)
			r.Get("/2fa/verify", d.Auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", d.Auth.TwoFAVerifySubmit)
		})

		// Authenticated, 2FA-verified pages.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", redirectDashboard)
			r.Get("/dashboard", d.Dashboard.Home)

			// Staff lead desk.
			r.Route("/sales", func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(d.Gate, models.RoleSales, models.RoleAdmin))
				r.Get("/leads", d.Sales.LeadsPage)
				r.Get("/leads/{id}", d.Sales.LeadDetailPage)
				r.With(middleware.RequireAnyRole(d.Gate, models.RoleAdmin)).
					Post("/leads/{id}/assign", d.Sales.AssignSubmit)
				r.Post("/leads/{id}/status", d.Sales.StatusSubmit)
				r.Post("/leads/{id}/notes", d.Sales.NoteSubmit)
			})

			// Administration.
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(d.Gate, models.RoleAdmin))
				r.Get("/users", d.Admin.UsersPage)
				r.Post("/users/{id}/roles", d.Admin.RolesSubmit)
				r.Post("/users/{id}/2fa/reset", d.Admin.TwoFAResetSubmit)
				r.Get("/email-templates", d.Admin.EmailTemplatesPage)
				r.Post("/email-templates/{key}", d.Admin.EmailTemplateSubmit)
			})
		})
	})

	// JSON API. Session cookie auth; roles are checked per group so a
	// revocation applies on the next request.
	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RequireAuthAPI).Get("/user", d.User.Me)

		// Projects belong to their owner; staff access is enforced in
		// the handlers where ownership is the relevant check.
		r.Route("/projects", func(r chi.Router) {
			r.Use(middleware.RequireAuthAPI)

			r.Get("/", d.Projects.List)
			r.Post("/", d.Projects.Create)
			r.Get("/{id}", d.Projects.Show)
			r.Put("/{id}", d.Projects.Update)
			r.Delete("/{id}", d.Projects.Delete)

			r.With(staffAPI(d)).Put("/{id}/status", d.Projects.UpdateStatus)
			r.With(staffAPI(d)).Post("/{id}/restore", d.Projects.Restore)
			r.With(adminAPI(d)).Delete("/{id}/force", d.Projects.ForceDelete)

			r.Post("/{id}/roof-areas", d.Projects.AddRoofArea)
			r.Put("/{id}/roof-areas/{areaID}", d.Projects.UpdateRoofArea)
			r.Delete("/{id}/roof-areas/{areaID}", d.Projects.DeleteRoofArea)
			r.Post("/{id}/roof-areas/{areaID}/exclusion-zones", d.Projects.AddExclusionZone)
			r.Delete("/{id}/roof-areas/{areaID}/exclusion-zones/{zoneID}", d.Projects.DeleteExclusionZone)

			r.Get("/{id}/timeline", d.Projects.Timeline)
			r.With(staffAPI(d)).Post("/{id}/timeline", d.Projects.AddTimelineEntry)
			r.With(adminAPI(d)).Delete("/{id}/timeline/{eventID}", d.Projects.DeleteTimelineEvent)
		})

		// Lead management. Intake is the one public operation, rate
		// limited per IP; everything else is staff-only.
		r.Route("/leads", func(r chi.Router) {
			r.With(d.IntakeLimit.MiddlewareAPI).Post("/", d.Leads.Intake)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuthAPI)
				r.Use(staffAPI(d))

				r.Get("/", d.Leads.List)
				r.Get("/{id}", d.Leads.Show)
				r.Patch("/{id}", d.Leads.Update)
				r.With(adminAPI(d)).Post("/{id}/assign", d.Leads.Assign)
				r.With(adminAPI(d)).Delete("/{id}", d.Leads.Delete)

				r.Post("/{id}/notes", d.Leads.AddNote)
				r.Get("/{id}/notes", d.Leads.ListNotes)
				r.Delete("/{id}/notes/{noteID}", d.Leads.DeleteNote)
			})
		})

		// Email template administration mirrors the web editor.
		r.Route("/email-templates", func(r chi.Router) {
			r.Use(middleware.RequireAuthAPI)
			r.Use(adminAPI(d))

			r.Get("/", d.Admin.ListTemplates)
			r.Get("/{key}", d.Admin.ShowTemplate)
			r.Put("/{key}", d.Admin.UpsertTemplate)
			r.Delete("/{key}", d.Admin.DeleteTemplate)
		})
	})

	return r
}

func staffAPI(d Deps) func(http.Handler) http.Handler {
	return middleware.RequireAnyRoleAPI(d.Gate, models.RoleSales, models.RoleAdmin)
}

func adminAPI(d Deps) func(http.Handler) http.Handler {
	return middleware.RequireAnyRoleAPI(d.Gate, models.RoleAdmin)
}

func redirectDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

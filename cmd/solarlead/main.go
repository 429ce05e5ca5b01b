// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the SolarLead server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solarlead/internal/authz"
	"solarlead/internal/cache"
	"solarlead/internal/config"
	"solarlead/internal/database"
	"solarlead/internal/handlers"
	"solarlead/internal/mail"
	"solarlead/internal/middleware"
	"solarlead/internal/render"
	"solarlead/internal/router"
	"solarlead/internal/session"
	"solarlead/internal/store"
)

func main() {
	// Structured logger — outputs to stdout, picked up by the container runtime.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the fixed roles and permission grants. Idempotent; the grant
	// table must exist before the authorization gate loads it.
	if err := database.Seed(db); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Development convenience account (no-op outside dev).
	if cfg.IsDev() {
		if err := database.SeedDevAdmin(db); err != nil {
			slog.Error("failed to seed dev admin", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, password reset tokens, mail outbox).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Session store backed by Valkey. In non-development environments,
	// session cookies are marked Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// HTML template renderer for the server-rendered pages.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Data stores.
	userStore := store.NewUserStore(db)
	roleStore := store.NewRoleStore(db)
	leadStore := store.NewLeadStore(db)
	projectStore := store.NewProjectStore(db)
	timelineStore := store.NewTimelineStore(db)
	templateStore := store.NewEmailTemplateStore(db)

	// Authorization gate. Roles are resolved through a short-lived cache
	// so a role change applies within seconds without a re-login; the
	// admin handlers invalidate the affected user immediately.
	grants, err := roleStore.GrantTable()
	if err != nil {
		slog.Error("failed to load grant table", "error", err)
		os.Exit(1)
	}
	resolver := authz.NewCachedResolver(roleStore, 30*time.Second)
	gate := authz.New(resolver, grants)

	// Mail rendering and the Valkey-backed outbox.
	mailRenderer := mail.NewRenderer(templateStore, cfg.MailFrom)
	mailQueue := mail.NewQueue(valkeyClient)

	// Public intake rate limiter.
	intakeLimit := middleware.NewRateLimiter(cfg.IntakeRateLimit, time.Minute)
	defer intakeLimit.Stop()

	// Handler groups.
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore, valkeyClient, mailRenderer, mailQueue, cfg.BaseURL)
	leadHandlers := handlers.NewLeads(leadStore, roleStore, userStore, mailRenderer, mailQueue, cfg.BaseURL)
	projectHandlers := handlers.NewProjects(projectStore, timelineStore, gate)
	userHandlers := handlers.NewUser(userStore)
	dashboardHandlers := handlers.NewDashboard(renderer, projectStore, resolver)
	salesHandlers := handlers.NewSales(renderer, leadHandlers, resolver)
	adminHandlers := handlers.NewAdmin(renderer, userStore, roleStore, templateStore, mailRenderer, resolver)

	// Chi router with all middleware and routes.
	r := router.New(router.Deps{
		Sessions:    sessionStore,
		Gate:        gate,
		Auth:        authHandlers,
		Dashboard:   dashboardHandlers,
		Sales:       salesHandlers,
		Admin:       adminHandlers,
		Leads:       leadHandlers,
		Projects:    projectHandlers,
		User:        userHandlers,
		IntakeLimit: intakeLimit,
		Secure:      secureCookies,
	})

	// HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

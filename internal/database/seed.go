// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"solarlead/internal/models"
)

// Seed ensures the role and permission bootstrap data exists. It runs at
// every startup and is idempotent: names are upserted with ON CONFLICT DO
// NOTHING, so re-running never creates duplicate rows.
func Seed(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	for _, role := range models.AllRoles {
		if _, err := tx.Exec(`
			INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
		`, role); err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
	}

	for _, perm := range models.AllPermissions {
		if _, err := tx.Exec(`
			INSERT INTO permissions (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
		`, perm); err != nil {
			return fmt.Errorf("seed permission %s: %w", perm, err)
		}
	}

	for role, perms := range models.DefaultGrants {
		for _, perm := range perms {
			if _, err := tx.Exec(`
				INSERT INTO role_permissions (role_id, permission_id)
				SELECT r.id, p.id FROM roles r, permissions p
				WHERE r.name = $1 AND p.name = $2
				ON CONFLICT DO NOTHING
			`, role, perm); err != nil {
				return fmt.Errorf("seed grant %s -> %s: %w", role, perm, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("role and permission seed applied",
		"roles", len(models.AllRoles),
		"permissions", len(models.AllPermissions),
	)
	return nil
}

// SeedDevAdmin creates a default admin account for development. It is a
// no-op when any user already exists. Never called in production.
func SeedDevAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("users exist, skipping dev admin seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`
		INSERT INTO users (name, email, password_hash, totp_enabled)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id
	`, "Admin", "admin@solarlead.local", string(hash)).Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
	`, userID, models.RoleAdmin); err != nil {
		return fmt.Errorf("seed assign admin role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@solarlead.local",
		"password", "admin",
	)
	return nil
}

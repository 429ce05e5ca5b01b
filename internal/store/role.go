// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"solarlead/internal/models"
)

// RoleStore handles role and permission persistence: the role and
// permission tables, the role → permission grant table, and user role
// assignments. It implements authz.Resolver via RolesOf.
type RoleStore struct {
	db *sql.DB
}

// NewRoleStore creates a new RoleStore with the given database connection.
func NewRoleStore(db *sql.DB) *RoleStore {
	return &RoleStore{db: db}
}

// CreateRole inserts a named role. Names are unique and case-sensitive;
// a duplicate yields ErrConflict.
func (s *RoleStore) CreateRole(name models.RoleName) (*models.Role, error) {
	r := &models.Role{}
	err := s.db.QueryRow(`
		INSERT INTO roles (name) VALUES ($1) RETURNING id, name
	`, name).Scan(&r.ID, &r.Name)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return r, nil
}

// CreatePermission inserts a named permission. A duplicate yields ErrConflict.
func (s *RoleStore) CreatePermission(name string) (*models.Permission, error) {
	p := &models.Permission{}
	err := s.db.QueryRow(`
		INSERT INTO permissions (name) VALUES ($1) RETURNING id, name
	`, name).Scan(&p.ID, &p.Name)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}
	return p, nil
}

// Grant attaches permissions to a role by name. Already-granted pairs are
// skipped, so Grant is idempotent.
func (s *RoleStore) Grant(role models.RoleName, permissions ...string) error {
	for _, perm := range permissions {
		res, err := s.db.Exec(`
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT r.id, p.id FROM roles r, permissions p
			WHERE r.name = $1 AND p.name = $2
			ON CONFLICT DO NOTHING
		`, role, perm)
		if err != nil {
			return fmt.Errorf("grant %s to %s: %w", perm, role, err)
		}
		// A zero-row insert that wasn't a conflict means the role or
		// permission name doesn't exist.
		if n, _ := res.RowsAffected(); n == 0 {
			var exists bool
			err := s.db.QueryRow(`
				SELECT EXISTS (
					SELECT 1 FROM role_permissions rp
					JOIN roles r ON r.id = rp.role_id
					JOIN permissions p ON p.id = rp.permission_id
					WHERE r.name = $1 AND p.name = $2
				)
			`, role, perm).Scan(&exists)
			if err != nil {
				return fmt.Errorf("verify grant: %w", err)
			}
			if !exists {
				return fmt.Errorf("grant %s to %s: %w", perm, role, ErrNotFound)
			}
		}
	}
	return nil
}

// AssignRole adds a role to a user. Assigning an already-held role is a
// no-op. Callers must invalidate the authz resolver cache afterwards.
func (s *RoleStore) AssignRole(userID uuid.UUID, role models.RoleName) error {
	res, err := s.db.Exec(`
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING
	`, userID, role)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		held, err := s.RolesOf(userID)
		if err != nil {
			return err
		}
		for _, h := range held {
			if h == role {
				return nil
			}
		}
		return fmt.Errorf("assign role %s: %w", role, ErrNotFound)
	}
	return nil
}

// RemoveRole removes a role from a user. Callers must invalidate the authz
// resolver cache afterwards.
func (s *RoleStore) RemoveRole(userID uuid.UUID, role models.RoleName) error {
	_, err := s.db.Exec(`
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = (SELECT id FROM roles WHERE name = $2)
	`, userID, role)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}

// RolesOf returns the names of all roles assigned to a user. A user with
// no assignments gets an empty slice.
func (s *RoleStore) RolesOf(userID uuid.UUID) ([]models.RoleName, error) {
	rows, err := s.db.Query(`
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("roles of user: %w", err)
	}
	defer rows.Close()

	var roles []models.RoleName
	for rows.Next() {
		var name models.RoleName
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan role name: %w", err)
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

// PermissionsOf returns the user's effective permission set: the union of
// the permissions of all assigned roles, de-duplicated.
func (s *RoleStore) PermissionsOf(userID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT p.name FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
		ORDER BY p.name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("permissions of user: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan permission name: %w", err)
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}

// GrantTable loads the full role → permission mapping, used to build the
// authorization gate at startup.
func (s *RoleStore) GrantTable() (map[models.RoleName][]string, error) {
	rows, err := s.db.Query(`
		SELECT r.name, p.name FROM role_permissions rp
		JOIN roles r ON r.id = rp.role_id
		JOIN permissions p ON p.id = rp.permission_id
		ORDER BY r.name, p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("load grant table: %w", err)
	}
	defer rows.Close()

	grants := make(map[models.RoleName][]string)
	for rows.Next() {
		var role models.RoleName
		var perm string
		if err := rows.Scan(&role, &perm); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants[role] = append(grants[role], perm)
	}
	return grants, rows.Err()
}

// SalespeopleAndAdmins lists users holding the sales or admin role, for
// the assignment picker in the staff dashboard.
func (s *RoleStore) SalespeopleAndAdmins() ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT u.id, u.name, u.email, u.created_at, u.updated_at
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.name IN ($1, $2)
		ORDER BY u.name ASC
	`, models.RoleSales, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan staff user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

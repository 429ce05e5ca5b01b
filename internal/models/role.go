// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// RoleName is the closed set of role identifiers known to the application.
// Roles are persisted as rows, but routing and authorization code works
// against this enumeration so an unknown role name cannot slip in silently.
type RoleName string

const (
	RoleUser  RoleName = "user"
	RoleSales RoleName = "sales"
	RoleAdmin RoleName = "admin"
)

// AllRoles lists every role the seeder creates, in seeding order.
var AllRoles = []RoleName{RoleUser, RoleSales, RoleAdmin}

// Valid reports whether the role name is part of the closed enumeration.
func (r RoleName) Valid() bool {
	switch r {
	case RoleUser, RoleSales, RoleAdmin:
		return true
	}
	return false
}

// Role represents a named bundle of permissions assigned to users.
type Role struct {
	ID   uuid.UUID `json:"id"`
	Name RoleName  `json:"name"`
}

// Permission represents a named atomic capability checked by the
// authorization gate. Permissions are immutable after seeding in practice.
type Permission struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Permission vocabulary. Names are case-sensitive and unique.
const (
	PermLeadsView       = "leads:view"
	PermLeadsUpdate     = "leads:update"
	PermLeadsAssign     = "leads:assign"
	PermLeadsDelete     = "leads:delete"
	PermProjectsView    = "projects:view"
	PermProjectsUpdate  = "projects:update"
	PermProjectsDelete  = "projects:delete"
	PermTimelineDelete  = "timeline:delete"
	PermUsersManage     = "users:manage"
	PermTemplatesManage = "templates:manage"
)

// AllPermissions lists every permission the seeder creates.
var AllPermissions = []string{
	PermLeadsView,
	PermLeadsUpdate,
	PermLeadsAssign,
	PermLeadsDelete,
	PermProjectsView,
	PermProjectsUpdate,
	PermProjectsDelete,
	PermTimelineDelete,
	PermUsersManage,
	PermTemplatesManage,
}

// DefaultGrants is the fixed role → permission grant table applied by the
// seeder. Admin receives every permission; sales receives the lead-handling
// and project-viewing subset; customers only touch their own projects.
var DefaultGrants = map[RoleName][]string{
	RoleUser: {
		PermProjectsView,
		PermProjectsUpdate,
	},
	RoleSales: {
		PermLeadsView,
		PermLeadsUpdate,
		PermProjectsView,
		PermProjectsUpdate,
	},
	RoleAdmin: AllPermissions,
}

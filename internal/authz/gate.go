// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package authz

import (
	"fmt"

	"github.com/google/uuid"

	"solarlead/internal/models"
)

// Gate evaluates whether an actor holds a required role or permission.
// Decisions are made per request; nothing beyond the resolver's own cache
// is memoized.
type Gate struct {
	resolver Resolver
	grants   map[models.RoleName]map[string]bool
}

// New creates a Gate over the given resolver and role → permission grant
// table. The grant table is typically loaded from the role store at startup.
func New(resolver Resolver, grants map[models.RoleName][]string) *Gate {
	g := &Gate{
		resolver: resolver,
		grants:   make(map[models.RoleName]map[string]bool, len(grants)),
	}
	for role, perms := range grants {
		set := make(map[string]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		g.grants[role] = set
	}
	return g
}

// HasRole reports whether the user holds the named role. A user with zero
// roles holds none.
func (g *Gate) HasRole(userID uuid.UUID, role models.RoleName) (bool, error) {
	roles, err := g.resolver.RolesOf(userID)
	if err != nil {
		return false, fmt.Errorf("resolve roles: %w", err)
	}
	for _, r := range roles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyRole reports whether the user holds at least one of the named roles.
func (g *Gate) HasAnyRole(userID uuid.UUID, roles ...models.RoleName) (bool, error) {
	held, err := g.resolver.RolesOf(userID)
	if err != nil {
		return false, fmt.Errorf("resolve roles: %w", err)
	}
	for _, h := range held {
		for _, want := range roles {
			if h == want {
				return true, nil
			}
		}
	}
	return false, nil
}

// HasPermission reports whether the user's effective permission set — the
// union over all assigned roles — contains the named permission.
func (g *Gate) HasPermission(userID uuid.UUID, permission string) (bool, error) {
	roles, err := g.resolver.RolesOf(userID)
	if err != nil {
		return false, fmt.Errorf("resolve roles: %w", err)
	}
	for _, r := range roles {
		if g.grants[r][permission] {
			return true, nil
		}
	}
	return false, nil
}

// RequireAnyRole returns nil when the actor holds one of the listed roles.
// A nil actor yields ErrUnauthenticated; a present actor lacking every role
// yields a ForbiddenError whose reason names the strongest requirement.
// Admin is never implied — routes that admit admins must list the role.
func (g *Gate) RequireAnyRole(actorID *uuid.UUID, roles ...models.RoleName) error {
	if actorID == nil {
		return ErrUnauthenticated
	}
	ok, err := g.HasAnyRole(*actorID, roles...)
	if err != nil {
		return err
	}
	if !ok {
		return Forbidden(reasonFor(roles))
	}
	return nil
}

// RequirePermission is the permission-name form of RequireAnyRole.
func (g *Gate) RequirePermission(actorID *uuid.UUID, permission string) error {
	if actorID == nil {
		return ErrUnauthenticated
	}
	ok, err := g.HasPermission(*actorID, permission)
	if err != nil {
		return err
	}
	if !ok {
		return Forbidden(fmt.Sprintf("Missing permission: %s.", permission))
	}
	return nil
}

// reasonFor picks the denial message for a role requirement. A group that
// only admits admins reads differently from a sales-level group.
func reasonFor(roles []models.RoleName) string {
	if len(roles) == 1 && roles[0] == models.RoleAdmin {
		return "Admin privileges required."
	}
	return "Sales privileges required."
}

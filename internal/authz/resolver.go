// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package authz provides the authorization gate: given an actor and a
// required role or permission, it answers allow or deny. Role membership is
// looked up through a Resolver; the role → permission grant table is
// resolved once at startup and held in memory.
package authz

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"solarlead/internal/models"
)

// Resolver looks up the roles assigned to a user.
type Resolver interface {
	RolesOf(userID uuid.UUID) ([]models.RoleName, error)
}

// StaticResolver is an in-memory resolver for tests and static wiring.
type StaticResolver struct {
	roles map[uuid.UUID][]models.RoleName
}

// NewStaticResolver creates an empty static resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{roles: make(map[uuid.UUID][]models.RoleName)}
}

// Set assigns roles to a user, replacing any previous assignment.
func (r *StaticResolver) Set(userID uuid.UUID, roles ...models.RoleName) {
	r.roles[userID] = roles
}

// RolesOf returns the assigned roles. A user with no entry has no roles.
func (r *StaticResolver) RolesOf(userID uuid.UUID) ([]models.RoleName, error) {
	return r.roles[userID], nil
}

// CachedResolver wraps a Resolver with a TTL cache so authorization checks
// do not hit the database on every request. Role mutations must call
// Invalidate (or InvalidateAll) so the change is visible on the next
// request — expiry alone is not enough.
type CachedResolver struct {
	inner Resolver
	mu    sync.RWMutex
	cache map[uuid.UUID]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	roles     []models.RoleName
	expiresAt time.Time
}

// NewCachedResolver wraps a resolver with caching. ttl bounds staleness for
// changes made outside this process.
func NewCachedResolver(inner Resolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		cache: make(map[uuid.UUID]cacheEntry),
		ttl:   ttl,
	}
}

// RolesOf returns the user's roles, from cache when fresh.
func (r *CachedResolver) RolesOf(userID uuid.UUID) ([]models.RoleName, error) {
	r.mu.RLock()
	entry, ok := r.cache[userID]
	r.mu.RUnlock()

	if ok && time.Now().Before(entry.expiresAt) {
		return entry.roles, nil
	}

	roles, err := r.inner.RolesOf(userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[userID] = cacheEntry{roles: roles, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	return roles, nil
}

// Invalidate drops a single user from the cache. Call after assigning or
// removing one of that user's roles.
func (r *CachedResolver) Invalidate(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}

// InvalidateAll clears the cache. Call after any role or permission
// definition changes.
func (r *CachedResolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[uuid.UUID]cacheEntry)
	r.mu.Unlock()
}

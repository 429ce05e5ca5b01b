// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"solarlead/internal/authz"
	"solarlead/internal/database"
	"solarlead/internal/mail"
	"solarlead/internal/middleware"
	"solarlead/internal/models"
	"solarlead/internal/render"
	"solarlead/internal/session"
	"solarlead/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL, runs migrations and
// seeds the role tables.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "solarlead")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "solarlead")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	if err := database.Seed(db); err != nil {
		db.Close()
		t.Fatalf("seed: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "pwreset:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Del(ctx, "mail:outbox")
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Renderer      *render.Renderer
	Sessions      *session.Store
	UserStore     *store.UserStore
	RoleStore     *store.RoleStore
	LeadStore     *store.LeadStore
	ProjectStore  *store.ProjectStore
	TimelineStore *store.TimelineStore
	TemplateStore *store.EmailTemplateStore
	Resolver      *authz.CachedResolver
	Gate          *authz.Gate
	MailRenderer  *mail.Renderer
	MailQueue     *mail.Queue
	Auth          *Auth
	Leads         *Leads
	Projects      *Projects
	User          *User
	Dashboard     *Dashboard
	Sales         *Sales
	Admin         *Admin
}

// newTestEnv creates a complete test environment with all handler
// dependencies wired the way main does it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	roleStore := store.NewRoleStore(db)
	leadStore := store.NewLeadStore(db)
	projectStore := store.NewProjectStore(db)
	timelineStore := store.NewTimelineStore(db)
	templateStore := store.NewEmailTemplateStore(db)

	grants, err := roleStore.GrantTable()
	if err != nil {
		t.Fatalf("grant table: %v", err)
	}
	resolver := authz.NewCachedResolver(roleStore, time.Second)
	gate := authz.New(resolver, grants)

	mailRenderer := mail.NewRenderer(templateStore, "noreply@solarlead.test")
	mailQueue := mail.NewQueue(vk)

	const baseURL = "http://localhost:8080"
	auth := NewAuth(renderer, sessions, userStore, vk, mailRenderer, mailQueue, baseURL)
	leads := NewLeads(leadStore, roleStore, userStore, mailRenderer, mailQueue, baseURL)
	projects := NewProjects(projectStore, timelineStore, gate)
	user := NewUser(userStore)
	dashboard := NewDashboard(renderer, projectStore, resolver)
	sales := NewSales(renderer, leads, resolver)
	admin := NewAdmin(renderer, userStore, roleStore, templateStore, mailRenderer, resolver)

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Renderer:      renderer,
		Sessions:      sessions,
		UserStore:     userStore,
		RoleStore:     roleStore,
		LeadStore:     leadStore,
		ProjectStore:  projectStore,
		TimelineStore: timelineStore,
		TemplateStore: templateStore,
		Resolver:      resolver,
		Gate:          gate,
		MailRenderer:  mailRenderer,
		MailQueue:     mailQueue,
		Auth:          auth,
		Leads:         leads,
		Projects:      projects,
		User:          user,
		Dashboard:     dashboard,
		Sales:         sales,
		Admin:         admin,
	}
}

// testUser creates a user, optionally with roles, and registers cleanup.
func testUser(t *testing.T, env *testEnv, name, email string, roles ...models.RoleName) *models.User {
	t.Helper()
	u, err := env.UserStore.Create(name, email, "test-password-12")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	for _, role := range roles {
		if err := env.RoleStore.AssignRole(u.ID, role); err != nil {
			t.Fatalf("assign role %s: %v", role, err)
		}
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates session data for a user.
func testSession(u *models.User) *session.Data {
	return &session.Data{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		TwoFADone: true,
		CreatedAt: time.Now(),
	}
}

// withChiURLParams adds chi URL parameters and a session to a request.
func withChiURLParams(r *http.Request, sess *session.Data, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if sess != nil {
		ctx = ctxWithSession(ctx, sess)
	}
	return r.WithContext(ctx)
}

// leadFixtureInput builds a minimal quote request for lead tests.
func leadFixtureInput(name, email string) store.LeadInput {
	return store.LeadInput{
		Name:        name,
		Email:       email,
		RequestType: models.RequestQuote,
		Source:      "landing_page",
	}
}

// cleanLeads removes test leads by email.
func cleanLeads(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, e := range emails {
		db.Exec("DELETE FROM leads WHERE email = $1", e)
	}
}

// cleanUsers removes test users by email.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, e := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", e)
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"solarlead/internal/session"
)

func postForm(path string, values url.Values) *http.Request {
	r := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestLoginSubmitWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	testUser(t, env, "Login User", "login-wrong@test.local")

	w := httptest.NewRecorder()
	r := postForm("/login", url.Values{
		"email":    {"login-wrong@test.local"},
		"password": {"not-the-password"},
	})
	env.Auth.LoginSubmit(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (re-rendered form)", w.Code)
	}
	if !strings.Contains(w.Body.String(), "E-Mail oder Passwort ist falsch") {
		t.Error("expected the login error flash in the response")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("no session cookie should be issued on failed login")
	}
}

func TestLoginSubmitRedirectsTo2FASetup(t *testing.T) {
	env := newTestEnv(t)
	testUser(t, env, "Fresh User", "login-fresh@test.local")

	w := httptest.NewRecorder()
	r := postForm("/login", url.Values{
		"email":    {"login-fresh@test.local"},
		"password": {"test-password-12"},
	})
	env.Auth.LoginSubmit(w, r)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/2fa/setup" {
		t.Errorf("location: got %q, want /2fa/setup", loc)
	}

	// A session must exist, with 2FA not yet done.
	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected a session cookie")
	}
	check := httptest.NewRequest("GET", "/dashboard", nil)
	check.AddCookie(sessionCookie)
	sess, err := env.Sessions.Get(context.Background(), check)
	if err != nil || sess == nil {
		t.Fatalf("session lookup: %v", err)
	}
	if sess.TwoFADone {
		t.Error("TwoFADone must start false")
	}
}

func TestForgotPasswordIssuesTokenAndMail(t *testing.T) {
	env := newTestEnv(t)
	u := testUser(t, env, "Reset User", "reset-flow@test.local")

	before, _ := env.MailQueue.Pending(context.Background())

	w := httptest.NewRecorder()
	r := postForm("/forgot-password", url.Values{"email": {u.Email}})
	env.Auth.ForgotPasswordSubmit(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "wurde ein Link verschickt") {
		t.Error("expected the neutral confirmation message")
	}

	after, _ := env.MailQueue.Pending(context.Background())
	if after != before+1 {
		t.Errorf("outbox length: got %d, want %d", after, before+1)
	}

	keys, err := env.Valkey.Keys(context.Background(), "pwreset:*").Result()
	if err != nil || len(keys) == 0 {
		t.Fatalf("expected a pwreset token in Valkey, got %v (%v)", keys, err)
	}
}

func TestForgotPasswordUnknownAddressIsSilent(t *testing.T) {
	env := newTestEnv(t)

	before, _ := env.MailQueue.Pending(context.Background())

	w := httptest.NewRecorder()
	r := postForm("/forgot-password", url.Values{"email": {"nobody@test.local"}})
	env.Auth.ForgotPasswordSubmit(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	// Same confirmation, no mail.
	if !strings.Contains(w.Body.String(), "wurde ein Link verschickt") {
		t.Error("response must not reveal whether the address exists")
	}
	after, _ := env.MailQueue.Pending(context.Background())
	if after != before {
		t.Errorf("outbox must be unchanged: got %d, want %d", after, before)
	}
}

func TestResetPasswordTokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	u := testUser(t, env, "Single Use", "reset-once@test.local")

	ctx := context.Background()
	const token = "testtoken-single-use"
	if err := env.Valkey.Set(ctx, "pwreset:"+token, u.ID.String(), 0).Err(); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	form := url.Values{
		"token":            {token},
		"password":         {"brand-new-secret"},
		"password_confirm": {"brand-new-secret"},
	}

	w := httptest.NewRecorder()
	env.Auth.ResetPasswordSubmit(w, postForm("/reset-password", form))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("first use: got %d, want 303", w.Code)
	}

	fresh, err := env.UserStore.FindByEmail(u.Email)
	if err != nil || fresh == nil {
		t.Fatalf("reload user: %v", err)
	}
	if !env.UserStore.CheckPassword(fresh, "brand-new-secret") {
		t.Error("new password must verify")
	}

	// Second use of the same token fails.
	w = httptest.NewRecorder()
	env.Auth.ResetPasswordSubmit(w, postForm("/reset-password", form))
	if w.Code != http.StatusOK {
		t.Fatalf("second use: got %d, want 200 (re-rendered form)", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ungültig oder abgelaufen") {
		t.Error("expected the invalid-token message on reuse")
	}
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.Auth.ResetPasswordSubmit(w, postForm("/reset-password", url.Values{
		"token":            {"whatever"},
		"password":         {"short"},
		"password_confirm": {"short"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "mindestens 8 Zeichen") {
		t.Error("expected the minimum-length message")
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTemplateAPIListShowsDefaults(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.DB.Exec(`DELETE FROM email_templates`); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	env.Admin.ListTemplates(w, jsonRequest("GET", "/api/email-templates", ""))
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Templates []struct {
			Key             string `json:"key"`
			SubjectTemplate string `json:"subject_template"`
			Stored          bool   `json:"stored"`
		} `json:"templates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, tmpl := range resp.Templates {
		if tmpl.Key == "lead_assigned" {
			found = true
			if tmpl.Stored {
				t.Error("lead_assigned reported as stored without an override")
			}
			if tmpl.SubjectTemplate == "" {
				t.Error("default subject missing")
			}
		}
	}
	if !found {
		t.Fatal("lead_assigned key missing from template list")
	}
}

func TestTemplateAPIUpsertAndDelete(t *testing.T) {
	env := newTestEnv(t)
	t.Cleanup(func() {
		env.DB.Exec(`DELETE FROM email_templates WHERE key = 'password_reset'`)
	})

	w := httptest.NewRecorder()
	r := jsonRequest("PUT", "/api/email-templates/password_reset", `{
		"subject_template": "API Betreff {{.ResetURL}}",
		"body_template": "Link: {{.ResetURL}}"
	}`)
	env.Admin.UpsertTemplate(w, withChiURLParams(r, nil, map[string]string{"key": "password_reset"}))
	if w.Code != 200 {
		t.Fatalf("upsert status = %d, body %s", w.Code, w.Body.String())
	}

	msg, err := env.MailRenderer.Render("password_reset", "x@test.local", struct {
		Name          string
		ResetURL      string
		ExpireMinutes int
	}{"X", "https://example.test/r", 60})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg.Subject, "API Betreff") {
		t.Errorf("override not in effect, subject = %q", msg.Subject)
	}

	w = httptest.NewRecorder()
	r = jsonRequest("DELETE", "/api/email-templates/password_reset", "")
	env.Admin.DeleteTemplate(w, withChiURLParams(r, nil, map[string]string{"key": "password_reset"}))
	if w.Code != 204 {
		t.Fatalf("delete status = %d", w.Code)
	}

	msg, err = env.MailRenderer.Render("password_reset", "x@test.local", struct {
		Name          string
		ResetURL      string
		ExpireMinutes int
	}{"X", "https://example.test/r", 60})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(msg.Subject, "API Betreff") {
		t.Error("override still in effect after delete")
	}
}

func TestTemplateAPIUnknownKey(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	r := jsonRequest("PUT", "/api/email-templates/nope", `{"subject_template":"a","body_template":"b"}`)
	env.Admin.UpsertTemplate(w, withChiURLParams(r, nil, map[string]string{"key": "nope"}))
	if w.Code != 404 {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

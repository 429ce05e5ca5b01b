package mail

import (
	"strings"
	"testing"
	"time"

	"solarlead/internal/models"
)

// fakeSource is an in-memory TemplateSource for renderer tests.
type fakeSource struct {
	rows  map[string]*models.EmailTemplate
	calls int
}

func (f *fakeSource) FindByKey(key string) (*models.EmailTemplate, error) {
	f.calls++
	return f.rows[key], nil
}

func TestRendererFallback(t *testing.T) {
	r := NewRenderer(&fakeSource{rows: map[string]*models.EmailTemplate{}}, "noreply@solarlead.local")

	msg, err := r.Render(models.TemplateLeadAssigned, "sales@solarlead.local", LeadAssignedData{
		SalespersonName: "Sina",
		LeadName:        "Max Mustermann",
		LeadEmail:       "max@example.com",
		RequestType:     "quote",
		LeadURL:         "https://solarlead.local/sales/leads/abc",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if msg.From != "noreply@solarlead.local" {
		t.Errorf("from: got %q", msg.From)
	}
	if !strings.Contains(msg.Subject, "Max Mustermann") {
		t.Errorf("subject missing lead name: %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Sina") || !strings.Contains(msg.Body, "max@example.com") {
		t.Errorf("body missing fields: %q", msg.Body)
	}
	if msg.Template != models.TemplateLeadAssigned {
		t.Errorf("template key: got %q", msg.Template)
	}
}

func TestRendererOverrideWins(t *testing.T) {
	src := &fakeSource{rows: map[string]*models.EmailTemplate{
		models.TemplateWelcomeUser: {
			Key:             models.TemplateWelcomeUser,
			SubjectTemplate: "Custom subject for {{.Name}}",
			BodyTemplate:    "Custom body {{.Email}}",
			UpdatedAt:       time.Now(),
		},
	}}
	r := NewRenderer(src, "noreply@solarlead.local")

	msg, err := r.Render(models.TemplateWelcomeUser, "max@example.com", WelcomeUserData{
		Name: "Max", Email: "max@example.com", Password: "x", LoginURL: "https://solarlead.local/login",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "Custom subject for Max" {
		t.Errorf("subject: got %q", msg.Subject)
	}
	if msg.Body != "Custom body max@example.com" {
		t.Errorf("body: got %q", msg.Body)
	}
}

func TestRendererCacheAndInvalidate(t *testing.T) {
	row := &models.EmailTemplate{
		Key:             models.TemplatePasswordReset,
		SubjectTemplate: "Reset v1",
		BodyTemplate:    "Link: {{.ResetURL}}",
		UpdatedAt:       time.Now(),
	}
	src := &fakeSource{rows: map[string]*models.EmailTemplate{models.TemplatePasswordReset: row}}
	r := NewRenderer(src, "noreply@solarlead.local")

	data := PasswordResetData{Name: "Max", ResetURL: "https://solarlead.local/reset/t"}
	if _, err := r.Render(models.TemplatePasswordReset, "max@example.com", data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := r.Render(models.TemplatePasswordReset, "max@example.com", data); err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Same revision renders from cache but still consults the source for
	// staleness.
	if src.calls != 2 {
		t.Errorf("source calls: got %d, want 2", src.calls)
	}

	// A newer stored revision replaces the cached compilation.
	src.rows[models.TemplatePasswordReset] = &models.EmailTemplate{
		Key:             models.TemplatePasswordReset,
		SubjectTemplate: "Reset v2",
		BodyTemplate:    "Link: {{.ResetURL}}",
		UpdatedAt:       row.UpdatedAt.Add(time.Second),
	}
	msg, err := r.Render(models.TemplatePasswordReset, "max@example.com", data)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "Reset v2" {
		t.Errorf("subject after update: got %q", msg.Subject)
	}

	// After deleting the override and invalidating, the fallback applies.
	delete(src.rows, models.TemplatePasswordReset)
	r.Invalidate(models.TemplatePasswordReset)
	msg, err = r.Render(models.TemplatePasswordReset, "max@example.com", data)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(msg.Subject, "Passwort") {
		t.Errorf("expected fallback subject, got %q", msg.Subject)
	}
}

func TestRendererUnknownKey(t *testing.T) {
	r := NewRenderer(&fakeSource{rows: map[string]*models.EmailTemplate{}}, "noreply@solarlead.local")
	if _, err := r.Render("no_such_template", "x@example.com", nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestFallbacksCoverAllKeys(t *testing.T) {
	for _, key := range []string{models.TemplateLeadAssigned, models.TemplateWelcomeUser, models.TemplatePasswordReset} {
		if _, ok := fallbacks[key]; !ok {
			t.Errorf("missing fallback for %q", key)
		}
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mail

import (
	"sort"

	"solarlead/internal/models"
)

// LeadAssignedData feeds the lead_assigned template.
type LeadAssignedData struct {
	SalespersonName string
	LeadName        string
	LeadEmail       string
	LeadPhone       string
	Message         string
	RequestType     string
	Source          string
	AccountCreated  bool
	LeadURL         string
}

// WelcomeUserData feeds the welcome_user template.
type WelcomeUserData struct {
	Name     string
	Email    string
	Password string
	LoginURL string
}

// PasswordResetData feeds the password_reset template.
type PasswordResetData struct {
	Name          string
	ResetURL      string
	ExpireMinutes int
}

// fallbackTemplate is a compiled-in default used when no database override
// exists for a key.
type fallbackTemplate struct {
	subject string
	body    string
}

// fallbacks covers every known template key so a missing database row never
// blocks a send. Admin overrides in the email_templates table take
// precedence.
var fallbacks = map[string]fallbackTemplate{
	models.TemplateLeadAssigned: {
		subject: "Neue Anfrage zugewiesen: {{.LeadName}}",
		body: `Hallo {{.SalespersonName}},

dir wurde eine neue Anfrage zugewiesen.

Name: {{.LeadName}}
E-Mail: {{.LeadEmail}}
{{if .LeadPhone}}Telefon: {{.LeadPhone}}
{{end}}Art der Anfrage: {{.RequestType}}
Quelle: {{.Source}}
{{if .Message}}
Nachricht:
{{.Message}}
{{end}}
Zur Anfrage: {{.LeadURL}}
`,
	},
	models.TemplateWelcomeUser: {
		subject: "Willkommen bei SolarLead, {{.Name}}",
		body: `Hallo {{.Name}},

für deine Anfrage wurde ein Konto angelegt.

E-Mail: {{.Email}}
Passwort: {{.Password}}

Bitte melde dich an und ändere dein Passwort: {{.LoginURL}}
`,
	},
	models.TemplatePasswordReset: {
		subject: "Passwort zurücksetzen",
		body: `Hallo {{.Name}},

über diesen Link kannst du ein neues Passwort setzen:

{{.ResetURL}}

Der Link ist {{.ExpireMinutes}} Minuten gültig. Wenn du das nicht warst, ignoriere diese E-Mail.
`,
	},
}

// TemplateKeys lists every known template key in stable order.
func TemplateKeys() []string {
	keys := make([]string, 0, len(fallbacks))
	for k := range fallbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultTemplate returns the compiled-in subject and body for a key.
// The admin template editor shows these when no override row exists.
func DefaultTemplate(key string) (subject, body string, ok bool) {
	fb, ok := fallbacks[key]
	return fb.subject, fb.body, ok
}

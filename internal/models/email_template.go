// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Known template keys. Each key has a compiled-in fallback so a missing
// database row never blocks a send.
const (
	TemplateLeadAssigned  = "lead_assigned"
	TemplateWelcomeUser   = "welcome_user"
	TemplatePasswordReset = "password_reset"
)

// EmailTemplate is a database-stored notification template. Subject and
// body contain Go template variables (e.g. {{.LeadName}}) and are compiled
// at send time by the mail renderer.
type EmailTemplate struct {
	ID              uuid.UUID `json:"id"`
	Key             string    `json:"key"`
	SubjectTemplate string    `json:"subject_template"`
	BodyTemplate    string    `json:"body_template"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestType is what the prospect asked for on intake.
type RequestType string

const (
	RequestQuote        RequestType = "quote"
	RequestConsultation RequestType = "consultation"
)

// Valid reports whether the request type is one of the accepted values.
func (t RequestType) Valid() bool {
	return t == RequestQuote || t == RequestConsultation
}

// LeadStatusNew is the status every lead starts in. The rest of the lead
// status vocabulary (contacted, qualified, won, lost, ...) is owned by the
// sales organization and deliberately not constrained here.
const LeadStatusNew = "new"

// Lead represents an inbound prospect captured from public intake. It is
// owned by the sales organization once created, never by the prospect.
type Lead struct {
	ID                    uuid.UUID   `json:"id"`
	Name                  string      `json:"name"`
	Email                 string      `json:"email"`
	Phone                 *string     `json:"phone,omitempty"`
	Message               *string     `json:"message,omitempty"`
	RequestType           RequestType `json:"request_type"`
	Status                string      `json:"status"`
	Source                string      `json:"source"`
	AccountCreated        bool        `json:"account_created"`
	AssignedSalespersonID *uuid.UUID  `json:"-"`
	// AssignedSalesperson is populated only when the relation was
	// explicitly loaded; the JSON key is absent otherwise.
	AssignedSalesperson *Salesperson `json:"assigned_salesperson,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Salesperson is the reduced user shape embedded in lead resources.
type Salesperson struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// LeadNote is an append-only staff note attached to a lead. Notes are
// individually deletable and cascade when the lead is deleted.
type LeadNote struct {
	ID         uuid.UUID `json:"id"`
	LeadID     uuid.UUID `json:"lead_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

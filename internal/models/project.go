// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the closed vocabulary of project lifecycle states.
type ProjectStatus string

const (
	StatusDraft                 ProjectStatus = "draft"
	StatusPlanning              ProjectStatus = "planning"
	StatusQuoteRequested        ProjectStatus = "quote_requested"
	StatusQuoteSent             ProjectStatus = "quote_sent"
	StatusContractSigned        ProjectStatus = "contract_signed"
	StatusInstallationScheduled ProjectStatus = "installation_scheduled"
	StatusInInstallation        ProjectStatus = "in_installation"
	StatusCompleted             ProjectStatus = "completed"
	StatusCancelled             ProjectStatus = "cancelled"
)

// Valid reports whether the status is part of the closed vocabulary.
func (s ProjectStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// StatusLabel is the bilingual display pair for a project status.
type StatusLabel struct {
	German  string
	English string
}

// statusLabels maps every project status to its display labels. The map and
// the status constants must stay in sync; StatusLabelFor fails loudly on a
// status missing from the table instead of emitting an unlabeled event.
var statusLabels = map[ProjectStatus]StatusLabel{
	StatusDraft:                 {"Entwurf", "Draft"},
	StatusPlanning:              {"In Planung", "Planning"},
	StatusQuoteRequested:        {"Angebot angefragt", "Quote requested"},
	StatusQuoteSent:             {"Angebot versendet", "Quote sent"},
	StatusContractSigned:        {"Vertrag unterschrieben", "Contract signed"},
	StatusInstallationScheduled: {"Installation geplant", "Installation scheduled"},
	StatusInInstallation:        {"In Installation", "In installation"},
	StatusCompleted:             {"Abgeschlossen", "Completed"},
	StatusCancelled:             {"Storniert", "Cancelled"},
}

// StatusLabelFor returns the bilingual label for a status. An unknown status
// means the vocabulary and the label table have drifted apart, which is a
// programming error, so it is returned as an error rather than omitted.
func StatusLabelFor(s ProjectStatus) (StatusLabel, error) {
	label, ok := statusLabels[s]
	if !ok {
		return StatusLabel{}, fmt.Errorf("no label for project status %q", s)
	}
	return label, nil
}

// Project represents a customer's solar installation plan.
type Project struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"-"`
	Name            string          `json:"name"`
	LocationLat     float64         `json:"location_lat"`
	LocationLng     float64         `json:"location_lng"`
	MapCenter       json.RawMessage `json:"map_center"`
	Zoom            int             `json:"zoom"`
	TotalPanelCount int             `json:"total_panel_count"`
	Status          ProjectStatus   `json:"status"`
	// RoofAreas is populated only when the relation was explicitly loaded.
	RoofAreas []RoofArea `json:"roof_areas,omitempty"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RoofArea is a panel-carrying region of a project's roof. Areas keep a
// stable ordering via Position.
type RoofArea struct {
	ID               uuid.UUID       `json:"id"`
	ProjectID        uuid.UUID       `json:"-"`
	Name             string          `json:"name"`
	Path             json.RawMessage `json:"path"`
	PanelType        string          `json:"panel_type"`
	TiltAngle        float64         `json:"tilt_angle"`
	OrientationAngle float64         `json:"orientation_angle"`
	PanelCount       int             `json:"panel_count"`
	Position         int             `json:"-"`
	// ExclusionZones is populated only when the relation was loaded.
	ExclusionZones []ExclusionZone `json:"exclusion_zones,omitempty"`
}

// ExclusionZone is a sub-region of a roof area excluded from panel placement.
type ExclusionZone struct {
	ID         uuid.UUID       `json:"id"`
	RoofAreaID uuid.UUID       `json:"-"`
	Name       string          `json:"name"`
	Path       json.RawMessage `json:"path"`
}

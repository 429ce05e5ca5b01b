package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorizes timeline events.
type EventType string

const (
	EventProjectCreated EventType = "project_created"
	EventStatusChanged  EventType = "status_changed"
	EventCustom         EventType = "custom"
)

// TimelineEvent is an append-only audit record of a project lifecycle
// milestone. Events are never updated; only admins may delete them.
type TimelineEvent struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	EventType   EventType  `json:"event_type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OldValue    *string    `json:"old_value,omitempty"`
	NewValue    *string    `json:"new_value,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// CreatedByName is resolved on read. Nil when the author's account
	// has been deleted.
	CreatedByName *string `json:"created_by_name,omitempty"`
}

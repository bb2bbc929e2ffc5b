package models

// EventMeta is the per-event forum metadata. OrganizerID is the identity
// allowed to pin, delete any message and post announcements in this event.
type EventMeta struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	OrganizerID string `json:"organizerId"`
	// Created timestamp (ns)
	CreatedTS int64 `json:"created_ts,omitempty"`
}

// Registration records that a participant completed event registration.
// Forum access for participants is derived from this record, not from the
// registration flow itself; clients re-check after registration changes.
type Registration struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
	// Registered timestamp (ns)
	RegisteredTS int64 `json:"registered_ts,omitempty"`
}

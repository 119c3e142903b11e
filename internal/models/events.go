// Package models defines audit event structures.
package models

import "time"

// EventType names a discrete audit event emitted during dialog turns.
type EventType string

const (
	EventSessionStarted        EventType = "ussd_session_started"
	EventSessionEnded          EventType = "ussd_session_ended"
	EventRegistrationStarted   EventType = "registration_started"
	EventRegistrationCompleted EventType = "registration_completed"
	EventRiskAssessed          EventType = "risk_assessment_completed"
)

// Event is one audit log entry. Emission is fire-and-forget; a failed write
// must never abort the dialog turn that produced it.
type Event struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	UserID      string            `json:"user_id,omitempty"`
	PhoneNumber string            `json:"phone_number,omitempty"`
	SessionID   string            `json:"session_id,omitempty"`
	Payload     map[string]string `json:"payload,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

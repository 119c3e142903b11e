// Package models defines session structures for the dialog engine.
package models

import "time"

// Session is the per-caller dialog state reconstructed on every turn. It is
// owned by the session store for its lifetime; the state machine never holds
// one between calls.
type Session struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Current     StateType `json:"current_state"`
	Fields      Fields    `json:"fields,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session's TTL has lapsed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

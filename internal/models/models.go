// Package models defines the core data structures for ussdcare.
//
// It includes types for USSD requests, users, sessions, risk scoring, and
// audit events, which are shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// Error variables for better error handling and testability
var (
	ErrEmptySessionID   = errors.New("session id cannot be empty")
	ErrEmptyPhoneNumber = errors.New("phone number cannot be empty")
)

// USSDRequest is one inbound turn from the USSD gateway. The gateway posts
// the entire input history in Text, with individual entries joined by "*".
type USSDRequest struct {
	SessionID   string `json:"sessionId"`
	ServiceCode string `json:"serviceCode"`
	PhoneNumber string `json:"phoneNumber"`
	Text        string `json:"text"`
	NetworkCode string `json:"networkCode,omitempty"`
}

// Validate checks that the request carries the fields every turn needs.
func (r *USSDRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.PhoneNumber == "" {
		return ErrEmptyPhoneNumber
	}
	return nil
}

// LatestInput extracts the current turn's raw input from the cumulative Text
// field. The session store is authoritative for dialog state, so only the
// segment after the last "*" separator matters; an empty Text marks the first
// turn of a session.
func (r *USSDRequest) LatestInput() string {
	if r.Text == "" {
		return ""
	}
	if i := strings.LastIndex(r.Text, "*"); i >= 0 {
		return r.Text[i+1:]
	}
	return r.Text
}

// UserStatus represents the lifecycle status of a registered user.
type UserStatus string

const (
	// UserStatusActive indicates an enrolled user receiving care messages.
	UserStatusActive UserStatus = "active"
	// UserStatusInactive indicates a user who opted out or delivered.
	UserStatusInactive UserStatus = "inactive"
)

// User is a registered expectant mother.
type User struct {
	ID                   string     `json:"id"`
	PhoneNumber          string     `json:"phone_number"`
	Name                 string     `json:"name"`
	LGA                  string     `json:"lga"`
	Age                  int        `json:"age"`
	ExpectedDeliveryDate time.Time  `json:"expected_delivery_date"`
	CurrentWeek          int        `json:"current_week"`
	RiskProfile          RiskLevel  `json:"risk_profile"`
	RiskScore            int        `json:"risk_score"`
	LanguagePreference   string     `json:"language_preference"`
	Status               UserStatus `json:"status"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// UserUpdate carries optional field updates for an existing user.
type UserUpdate struct {
	Name        *string `json:"name,omitempty"`
	LGA         *string `json:"lga,omitempty"`
	CurrentWeek *int    `json:"current_week,omitempty"`
	RiskProfile *RiskLevel
	RiskScore   *int
}

// LGA is one entry of the Kano local government area reference table.
type LGA struct {
	ID   int
	Name string
}

// KanoLGAs is the fixed menu of local government areas offered during
// registration. The last entry is the designated fallback.
var KanoLGAs = []LGA{
	{1, "Kano Municipal"},
	{2, "Dala"},
	{3, "Gwale"},
	{4, "Fagge"},
	{5, "Tarauni"},
	{6, "Nassarawa"},
	{7, "Kumbotso"},
	{8, "Ungogo"},
	{9, "Other"},
}

// LGAName translates a 1-based menu selection into an LGA name. Selections
// outside the table fall back to the "Other" entry.
func LGAName(choice int) string {
	for _, lga := range KanoLGAs {
		if lga.ID == choice {
			return lga.Name
		}
	}
	return KanoLGAs[len(KanoLGAs)-1].Name
}

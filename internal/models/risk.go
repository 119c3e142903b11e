// Package models defines risk assessment structures shared across modules.
package models

import "time"

// RiskLevel is the three-tier severity classification of an assessment.
type RiskLevel string

const (
	// RiskLevelLow indicates standard antenatal care is sufficient.
	RiskLevelLow RiskLevel = "low"
	// RiskLevelModerate indicates a facility visit within 48 hours.
	RiskLevelModerate RiskLevel = "moderate"
	// RiskLevelHigh indicates immediate attention is needed.
	RiskLevelHigh RiskLevel = "high"
)

// TriState records a yes/no answer that the caller may not know.
// Scoring treats unknown as no, but the distinction is kept in storage so a
// future policy change does not require a data migration.
type TriState string

const (
	TriStateYes     TriState = "yes"
	TriStateNo      TriState = "no"
	TriStateUnknown TriState = "unknown"
)

// RiskFactors is the flat set of clinical and demographic inputs to the
// scoring engine. Age and blood pressure use zero as "not collected",
// matching the gateway's behavior of omitting unanswered numeric fields.
type RiskFactors struct {
	Age                   int      `json:"age,omitempty"`
	BPSystolic            int      `json:"bp_systolic,omitempty"`
	BPDiastolic           int      `json:"bp_diastolic,omitempty"`
	PreviousComplications bool     `json:"previous_complications"`
	GestationalDiabetes   bool     `json:"gestational_diabetes"`
	HighParity            bool     `json:"high_parity"`
	FirstPregnancy        bool     `json:"first_pregnancy"`
	MultiplePregnancy     TriState `json:"multiple_pregnancy"`
}

// RiskResult is the outcome of scoring one set of factors. Factors lists the
// human-readable contributions in the engine's fixed evaluation order.
type RiskResult struct {
	Score   int       `json:"score"`
	Level   RiskLevel `json:"level"`
	Factors []string  `json:"factors"`
}

// RiskAssessment is a persisted scoring run for a user.
type RiskAssessment struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Factors    RiskFactors `json:"factors"`
	Score      int         `json:"score"`
	Level      RiskLevel   `json:"level"`
	AssessedBy string      `json:"assessed_by"`
	AssessedAt time.Time   `json:"assessed_at"`
}

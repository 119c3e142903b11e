// Package risk implements the deterministic clinical risk scoring engine.
//
// Scoring follows WHO antenatal criteria: each factor contributes a fixed
// additive weight, and the total maps to a three-tier classification. Weights
// and thresholds are constants of the domain, not configuration.
package risk

import "github.com/lafiya-uwa/ussdcare/internal/models"

// Score weights per factor.
const (
	WeightAge                   = 10
	WeightSevereHypertension    = 25
	WeightModerateHypertension  = 15
	WeightPreviousComplications = 20
	WeightGestationalDiabetes   = 15
	WeightHighParity            = 10
	WeightFirstPregnancy        = 5
	WeightMultiplePregnancy     = 15
)

// Classification thresholds. A score at or above a threshold lands in that tier.
const (
	ModerateThreshold = 20
	HighThreshold     = 40
)

// Age cutoffs for the maternal age factor.
const (
	teenageAgeCutoff  = 17
	advancedAgeCutoff = 35
)

// Blood pressure cutoffs (mmHg).
const (
	severeSystolic    = 160
	severeDiastolic   = 110
	moderateSystolic  = 140
	moderateDiastolic = 90
)

// Score evaluates the collected factors in a fixed order and returns the
// additive total, its classification, and the list of triggered factor
// descriptions in evaluation order. The list is empty (never a placeholder)
// when nothing triggers; rendering a "no risk factors" message is the
// caller's job.
func Score(f models.RiskFactors) models.RiskResult {
	score := 0
	var factors []string

	// Maternal age, only when collected. The two branches are mutually
	// exclusive.
	if f.Age > 0 {
		if f.Age < teenageAgeCutoff {
			score += WeightAge
			factors = append(factors, "Teenage pregnancy (<17 years)")
		} else if f.Age >= advancedAgeCutoff {
			score += WeightAge
			factors = append(factors, "Advanced maternal age (≥35 years)")
		}
	}

	// Hypertension, only when both readings are present.
	if f.BPSystolic > 0 && f.BPDiastolic > 0 {
		if f.BPSystolic >= severeSystolic || f.BPDiastolic >= severeDiastolic {
			score += WeightSevereHypertension
			factors = append(factors, "Severe hypertension (BP ≥160/110)")
		} else if f.BPSystolic >= moderateSystolic || f.BPDiastolic >= moderateDiastolic {
			score += WeightModerateHypertension
			factors = append(factors, "Moderate hypertension (BP 140-159/90-109)")
		}
	}

	if f.PreviousComplications {
		score += WeightPreviousComplications
		factors = append(factors, "History of pregnancy complications")
	}

	if f.GestationalDiabetes {
		score += WeightGestationalDiabetes
		factors = append(factors, "Gestational diabetes")
	}

	if f.HighParity {
		score += WeightHighParity
		factors = append(factors, "High parity (≥6 pregnancies)")
	}

	if f.FirstPregnancy {
		score += WeightFirstPregnancy
		factors = append(factors, "First pregnancy (primigravida)")
	}

	// An unknown multiples answer scores as no; the tri-state survives in
	// storage for a future policy change.
	if f.MultiplePregnancy == models.TriStateYes {
		score += WeightMultiplePregnancy
		factors = append(factors, "Multiple pregnancy (twins/triplets)")
	}

	return models.RiskResult{
		Score:   score,
		Level:   Classify(score),
		Factors: factors,
	}
}

// Classify maps a total score to its severity tier.
func Classify(score int) models.RiskLevel {
	switch {
	case score >= HighThreshold:
		return models.RiskLevelHigh
	case score >= ModerateThreshold:
		return models.RiskLevelModerate
	default:
		return models.RiskLevelLow
	}
}

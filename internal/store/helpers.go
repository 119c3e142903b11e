package store

import (
	"database/sql"

	"github.com/lafiya-uwa/ussdcare/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanUser scans a User from sql.Rows.
func scanUser(rows *sql.Rows) (models.User, error) {
	var u models.User
	var riskProfile, status string
	err := rows.Scan(
		&u.ID, &u.PhoneNumber, &u.Name, &u.LGA, &u.Age, &u.ExpectedDeliveryDate,
		&u.CurrentWeek, &riskProfile, &u.RiskScore, &u.LanguagePreference, &status,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return u, err
	}
	u.RiskProfile = models.RiskLevel(riskProfile)
	u.Status = models.UserStatus(status)
	return u, nil
}

// scanUserRow scans a User from a single sql.Row.
func scanUserRow(row *sql.Row) (*models.User, error) {
	var u models.User
	var riskProfile, status string
	err := row.Scan(
		&u.ID, &u.PhoneNumber, &u.Name, &u.LGA, &u.Age, &u.ExpectedDeliveryDate,
		&u.CurrentWeek, &riskProfile, &u.RiskScore, &u.LanguagePreference, &status,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.RiskProfile = models.RiskLevel(riskProfile)
	u.Status = models.UserStatus(status)
	return &u, nil
}

package validate

import (
	"errors"
	"fmt"
	"time"
)

// EDDLayout is the expected delivery date wire format used in USSD prompts.
const EDDLayout = "02-01-2006"

// Full-term pregnancy constants used for week derivation.
const (
	termDays = 280
	maxWeek  = 40
	minWeek  = 1
)

// Date validation errors.
var (
	// ErrInvalidDate indicates input that is not a real DD-MM-YYYY calendar date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrDateInPast indicates an expected delivery date before today.
	ErrDateInPast = errors.New("date is in the past")
)

// EDD parses a strict DD-MM-YYYY expected delivery date and rejects calendar
// impossibilities and dates strictly before today. The comparison is made at
// day granularity in the supplied location.
func EDD(raw string, now time.Time) (time.Time, error) {
	edd, err := time.ParseInLocation(EDDLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	today := truncateToDay(now)
	if edd.Before(today) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateInPast, raw)
	}
	return edd, nil
}

// PregnancyWeekAt derives the current gestational week from an expected
// delivery date, clamped to [1, 40]. A full-term pregnancy is 280 days, so
// daysPregnant = 280 - floor(edd - today in days).
func PregnancyWeekAt(edd, now time.Time) int {
	daysUntilDelivery := int(truncateToDay(edd).Sub(truncateToDay(now)).Hours() / 24)
	daysPregnant := termDays - daysUntilDelivery
	week := daysPregnant / 7
	if week < minWeek {
		return minWeek
	}
	if week > maxWeek {
		return maxWeek
	}
	return week
}

// PregnancyWeek derives the current gestational week relative to the wall
// clock. Used both at registration and by the periodic profile refresh.
func PregnancyWeek(edd time.Time) int {
	return PregnancyWeekAt(edd, time.Now())
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

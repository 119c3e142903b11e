// Package store provides storage backends for ussdcare.
//
// It includes an in-memory store for tests and single-process deployments,
// plus persistent SQLite and PostgreSQL backends selected by DSN.
package store

import (
	"errors"
	"strings"

	"github.com/lafiya-uwa/ussdcare/internal/models"
)

// Error variables for better error handling and testability
var (
	// ErrUserExists indicates a registration attempt for a phone number that
	// already has a profile.
	ErrUserExists = errors.New("user already registered for phone number")
	// ErrUserNotFound indicates an update targeting a phone number with no
	// profile.
	ErrUserNotFound = errors.New("user not found for phone number")
)

// Store defines persistence for users, risk assessments, audit events, and
// in-flight USSD sessions. Lookups by key return (nil, nil) when no record
// exists; errors are reserved for backend failures.
type Store interface {
	CreateUser(u models.User) error
	GetUserByPhone(phone string) (*models.User, error)
	UpdateUser(phone string, upd models.UserUpdate) error
	ListActiveUsers() ([]models.User, error)
	AddAssessment(a models.RiskAssessment) error
	AddEvent(e models.Event) error
	GetSession(id string) (*models.Session, error)
	SaveSession(s models.Session) error
	DeleteSession(id string) error
	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	// DSN is the database connection string: a PostgreSQL URL/keyword DSN or
	// an SQLite file path.
	DSN string
}

// Option defines a functional option for store configuration.
type Option func(*Opts)

// WithPostgresDSN sets a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets an SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports the database/sql driver name a DSN calls for:
// "postgres" for PostgreSQL URLs and keyword DSNs, "sqlite3" otherwise.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	// Keyword/value form, e.g. "host=localhost user=app dbname=ussdcare".
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

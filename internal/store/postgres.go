// Package store provides storage backends for ussdcare.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/lafiya-uwa/ussdcare/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateUser(u models.User) error {
	existing, err := s.GetUserByPhone(u.PhoneNumber)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserExists
	}
	_, err = s.db.Exec(`INSERT INTO users (id, phone_number, name, lga, age, expected_delivery_date, current_week, risk_profile, risk_score, language_preference, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		u.ID, u.PhoneNumber, u.Name, u.LGA, u.Age, u.ExpectedDeliveryDate, u.CurrentWeek,
		string(u.RiskProfile), u.RiskScore, u.LanguagePreference, string(u.Status), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateUser failed", "error", err, "phone", u.PhoneNumber)
		return fmt.Errorf("failed to insert user for %s: %w", u.PhoneNumber, err)
	}
	slog.Debug("PostgresStore CreateUser succeeded", "phone", u.PhoneNumber, "riskLevel", u.RiskProfile)
	return nil
}

func (s *PostgresStore) GetUserByPhone(phone string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT id, phone_number, name, lga, age, expected_delivery_date, current_week, risk_profile, risk_score, language_preference, status, created_at, updated_at
		FROM users WHERE phone_number = $1`, phone)
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetUserByPhone not found", "phone", phone)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUserByPhone failed", "error", err, "phone", phone)
		return nil, fmt.Errorf("failed to query user for %s: %w", phone, err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateUser(phone string, upd models.UserUpdate) error {
	u, err := s.GetUserByPhone(phone)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	applyUserUpdate(u, upd)
	u.UpdatedAt = time.Now()
	_, err = s.db.Exec(`UPDATE users SET name = $1, lga = $2, current_week = $3, risk_profile = $4, risk_score = $5, updated_at = $6 WHERE phone_number = $7`,
		u.Name, u.LGA, u.CurrentWeek, string(u.RiskProfile), u.RiskScore, u.UpdatedAt, phone)
	if err != nil {
		slog.Error("PostgresStore UpdateUser failed", "error", err, "phone", phone)
		return fmt.Errorf("failed to update user for %s: %w", phone, err)
	}
	slog.Debug("PostgresStore UpdateUser succeeded", "phone", phone)
	return nil
}

func (s *PostgresStore) ListActiveUsers() ([]models.User, error) {
	rows, err := s.db.Query(`SELECT id, phone_number, name, lga, age, expected_delivery_date, current_week, risk_profile, risk_score, language_preference, status, created_at, updated_at
		FROM users WHERE status = $1`, string(models.UserStatusActive))
	if err != nil {
		slog.Error("PostgresStore ListActiveUsers query failed", "error", err)
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			slog.Error("PostgresStore ListActiveUsers scan failed", "error", err)
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListActiveUsers rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	slog.Debug("PostgresStore ListActiveUsers succeeded", "count", len(users))
	return users, nil
}

func (s *PostgresStore) AddAssessment(a models.RiskAssessment) error {
	factorsJSON, err := json.Marshal(a.Factors)
	if err != nil {
		slog.Error("PostgresStore AddAssessment JSON marshal failed", "error", err, "userID", a.UserID)
		return err
	}
	_, err = s.db.Exec(`INSERT INTO risk_assessments (id, user_id, factors, score, level, assessed_by, assessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, string(factorsJSON), a.Score, string(a.Level), a.AssessedBy, a.AssessedAt)
	if err != nil {
		slog.Error("PostgresStore AddAssessment failed", "error", err, "userID", a.UserID)
		return fmt.Errorf("failed to insert assessment for user %s: %w", a.UserID, err)
	}
	slog.Debug("PostgresStore AddAssessment succeeded", "userID", a.UserID, "level", a.Level)
	return nil
}

func (s *PostgresStore) AddEvent(e models.Event) error {
	var payloadJSON string
	if len(e.Payload) > 0 {
		jsonBytes, err := json.Marshal(e.Payload)
		if err != nil {
			slog.Error("PostgresStore AddEvent JSON marshal failed", "error", err, "type", e.Type)
			return err
		}
		payloadJSON = string(jsonBytes)
	}
	_, err := s.db.Exec(`INSERT INTO events (id, type, user_id, phone_number, session_id, payload, time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, string(e.Type), nilIfEmpty(e.UserID), e.PhoneNumber, e.SessionID, nilIfEmpty(payloadJSON), e.Timestamp)
	if err != nil {
		slog.Error("PostgresStore AddEvent failed", "error", err, "type", e.Type)
		return fmt.Errorf("failed to insert event %s: %w", e.Type, err)
	}
	return nil
}

// GetSession retrieves a USSD session by id.
func (s *PostgresStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, phone_number, current_state, fields, created_at, updated_at, expires_at
		FROM sessions WHERE id = $1`, id)

	var sess models.Session
	var current, fieldsJSON string
	err := row.Scan(&sess.ID, &sess.PhoneNumber, &current, &fieldsJSON,
		&sess.CreatedAt, &sess.UpdatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}

	sess.Current = models.StateType(current)
	sess.Fields = make(models.Fields)
	if fieldsJSON != "" {
		if err := json.Unmarshal([]byte(fieldsJSON), &sess.Fields); err != nil {
			slog.Error("PostgresStore GetSession JSON unmarshal failed", "error", err, "sessionID", id)
			// Continue with empty fields rather than failing
			sess.Fields = make(models.Fields)
		}
	}
	slog.Debug("PostgresStore GetSession found", "sessionID", id, "state", sess.Current)
	return &sess, nil
}

// SaveSession stores or updates a USSD session.
func (s *PostgresStore) SaveSession(sess models.Session) error {
	var fieldsJSON string
	if len(sess.Fields) > 0 {
		jsonBytes, err := json.Marshal(sess.Fields)
		if err != nil {
			slog.Error("PostgresStore SaveSession JSON marshal failed", "error", err, "sessionID", sess.ID)
			return err
		}
		fieldsJSON = string(jsonBytes)
	}
	_, err := s.db.Exec(`INSERT INTO sessions (id, phone_number, current_state, fields, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET phone_number = EXCLUDED.phone_number, current_state = EXCLUDED.current_state,
			fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`,
		sess.ID, sess.PhoneNumber, string(sess.Current), fieldsJSON,
		sess.CreatedAt, sess.UpdatedAt, sess.ExpiresAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "sessionID", sess.ID, "state", sess.Current)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("PostgresStore SaveSession succeeded", "sessionID", sess.ID, "state", sess.Current)
	return nil
}

// DeleteSession removes a USSD session.
func (s *PostgresStore) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		slog.Error("PostgresStore DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close PostgreSQL database", "error", err)
	}
	return err
}

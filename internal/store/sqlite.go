// Package store provides storage backends for ussdcare.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/lafiya-uwa/ussdcare/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateUser(u models.User) error {
	existing, err := s.GetUserByPhone(u.PhoneNumber)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserExists
	}
	_, err = s.db.Exec(`INSERT INTO users (id, phone_number, name, lga, age, expected_delivery_date, current_week, risk_profile, risk_score, language_preference, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.PhoneNumber, u.Name, u.LGA, u.Age, u.ExpectedDeliveryDate, u.CurrentWeek,
		string(u.RiskProfile), u.RiskScore, u.LanguagePreference, string(u.Status), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateUser failed", "error", err, "phone", u.PhoneNumber)
		return fmt.Errorf("failed to insert user for %s: %w", u.PhoneNumber, err)
	}
	slog.Debug("SQLiteStore CreateUser succeeded", "phone", u.PhoneNumber, "riskLevel", u.RiskProfile)
	return nil
}

func (s *SQLiteStore) GetUserByPhone(phone string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT id, phone_number, name, lga, age, expected_delivery_date, current_week, risk_profile, risk_score, language_preference, status, created_at, updated_at
		FROM users WHERE phone_number = ?`, phone)
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetUserByPhone not found", "phone", phone)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUserByPhone failed", "error", err, "phone", phone)
		return nil, fmt.Errorf("failed to query user for %s: %w", phone, err)
	}
	return u, nil
}

func (s *SQLiteStore) UpdateUser(phone string, upd models.UserUpdate) error {
	u, err := s.GetUserByPhone(phone)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	applyUserUpdate(u, upd)
	u.UpdatedAt = time.Now()
	_, err = s.db.Exec(`UPDATE users SET name = ?, lga = ?, current_week = ?, risk_profile = ?, risk_score = ?, updated_at = ? WHERE phone_number = ?`,
		u.Name, u.LGA, u.CurrentWeek, string(u.RiskProfile), u.RiskScore, u.UpdatedAt, phone)
	if err != nil {
		slog.Error("SQLiteStore UpdateUser failed", "error", err, "phone", phone)
		return fmt.Errorf("failed to update user for %s: %w", phone, err)
	}
	slog.Debug("SQLiteStore UpdateUser succeeded", "phone", phone)
	return nil
}

func (s *SQLiteStore) ListActiveUsers() ([]models.User, error) {
	rows, err := s.db.Query(`SELECT id, phone_number, name, lga, age, expected_delivery_date, current_week, risk_profile, risk_score, language_preference, status, created_at, updated_at
		FROM users WHERE status = ?`, string(models.UserStatusActive))
	if err != nil {
		slog.Error("SQLiteStore ListActiveUsers query failed", "error", err)
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			slog.Error("SQLiteStore ListActiveUsers scan failed", "error", err)
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListActiveUsers rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	slog.Debug("SQLiteStore ListActiveUsers succeeded", "count", len(users))
	return users, nil
}

func (s *SQLiteStore) AddAssessment(a models.RiskAssessment) error {
	factorsJSON, err := json.Marshal(a.Factors)
	if err != nil {
		slog.Error("SQLiteStore AddAssessment JSON marshal failed", "error", err, "userID", a.UserID)
		return err
	}
	_, err = s.db.Exec(`INSERT INTO risk_assessments (id, user_id, factors, score, level, assessed_by, assessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, string(factorsJSON), a.Score, string(a.Level), a.AssessedBy, a.AssessedAt)
	if err != nil {
		slog.Error("SQLiteStore AddAssessment failed", "error", err, "userID", a.UserID)
		return fmt.Errorf("failed to insert assessment for user %s: %w", a.UserID, err)
	}
	slog.Debug("SQLiteStore AddAssessment succeeded", "userID", a.UserID, "level", a.Level)
	return nil
}

func (s *SQLiteStore) AddEvent(e models.Event) error {
	var payloadJSON string
	if len(e.Payload) > 0 {
		jsonBytes, err := json.Marshal(e.Payload)
		if err != nil {
			slog.Error("SQLiteStore AddEvent JSON marshal failed", "error", err, "type", e.Type)
			return err
		}
		payloadJSON = string(jsonBytes)
	}
	_, err := s.db.Exec(`INSERT INTO events (id, type, user_id, phone_number, session_id, payload, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), nilIfEmpty(e.UserID), e.PhoneNumber, e.SessionID, nilIfEmpty(payloadJSON), e.Timestamp)
	if err != nil {
		slog.Error("SQLiteStore AddEvent failed", "error", err, "type", e.Type)
		return fmt.Errorf("failed to insert event %s: %w", e.Type, err)
	}
	return nil
}

// GetSession retrieves a USSD session by id.
func (s *SQLiteStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, phone_number, current_state, fields, created_at, updated_at, expires_at
		FROM sessions WHERE id = ?`, id)

	var sess models.Session
	var current, fieldsJSON string
	err := row.Scan(&sess.ID, &sess.PhoneNumber, &current, &fieldsJSON,
		&sess.CreatedAt, &sess.UpdatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to query session %s: %w", id, err)
	}

	sess.Current = models.StateType(current)
	sess.Fields = make(models.Fields)
	if fieldsJSON != "" {
		if err := json.Unmarshal([]byte(fieldsJSON), &sess.Fields); err != nil {
			slog.Error("SQLiteStore GetSession JSON unmarshal failed", "error", err, "sessionID", id)
			// Continue with empty fields rather than failing
			sess.Fields = make(models.Fields)
		}
	}
	slog.Debug("SQLiteStore GetSession found", "sessionID", id, "state", sess.Current)
	return &sess, nil
}

// SaveSession stores or updates a USSD session.
func (s *SQLiteStore) SaveSession(sess models.Session) error {
	var fieldsJSON string
	if len(sess.Fields) > 0 {
		jsonBytes, err := json.Marshal(sess.Fields)
		if err != nil {
			slog.Error("SQLiteStore SaveSession JSON marshal failed", "error", err, "sessionID", sess.ID)
			return err
		}
		fieldsJSON = string(jsonBytes)
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO sessions (id, phone_number, current_state, fields, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.PhoneNumber, string(sess.Current), fieldsJSON,
		sess.CreatedAt, sess.UpdatedAt, sess.ExpiresAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "sessionID", sess.ID, "state", sess.Current)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("SQLiteStore SaveSession succeeded", "sessionID", sess.ID, "state", sess.Current)
	return nil
}

// DeleteSession removes a USSD session.
func (s *SQLiteStore) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		slog.Error("SQLiteStore DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}

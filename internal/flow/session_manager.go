// Package flow provides concrete implementations of session management.
package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lafiya-uwa/ussdcare/internal/models"
	"github.com/lafiya-uwa/ussdcare/internal/store"
)

// DefaultSessionTTL is how long an idle session survives between turns.
// USSD gateways typically abandon sessions after well under two minutes, so
// anything beyond this is stale.
const DefaultSessionTTL = 5 * time.Minute

// SessionManager mediates all session access for the orchestrator: TTL
// bookkeeping on top of a Store backend, plus per-session serialization so
// two in-flight turns for one session id cannot both advance state.
type SessionManager struct {
	store store.Store
	ttl   time.Duration
	locks sync.Map // session id -> *sync.Mutex
}

// NewSessionManager creates a SessionManager backed by a Store. A zero ttl
// falls back to DefaultSessionTTL.
func NewSessionManager(st store.Store, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	slog.Debug("Creating SessionManager", "ttl", ttl)
	return &SessionManager{store: st, ttl: ttl}
}

// Lock serializes turns for one session id and returns the unlock function.
func (sm *SessionManager) Lock(sessionID string) func() {
	v, _ := sm.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get retrieves the session for an id. A missing session returns (nil,
// false, nil); a session past its TTL is deleted and reported as expired so
// the caller can restart the dialog rather than fail.
func (sm *SessionManager) Get(ctx context.Context, sessionID string) (*models.Session, bool, error) {
	sess, err := sm.store.GetSession(sessionID)
	if err != nil {
		slog.Error("SessionManager Get error", "error", err, "sessionID", sessionID)
		return nil, false, err
	}
	if sess == nil {
		return nil, false, nil
	}
	if sess.Expired(time.Now()) {
		slog.Info("SessionManager Get found expired session", "sessionID", sessionID, "state", sess.Current)
		if err := sm.store.DeleteSession(sessionID); err != nil {
			slog.Warn("SessionManager failed to delete expired session", "error", err, "sessionID", sessionID)
		}
		return nil, true, nil
	}
	return sess, false, nil
}

// Save persists the session and refreshes its TTL window.
func (sm *SessionManager) Save(ctx context.Context, sess *models.Session) error {
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(sm.ttl)
	if err := sm.store.SaveSession(*sess); err != nil {
		slog.Error("SessionManager Save error", "error", err, "sessionID", sess.ID, "state", sess.Current)
		return err
	}
	slog.Debug("SessionManager Save succeeded", "sessionID", sess.ID, "state", sess.Current)
	return nil
}

// Delete removes the session and forgets its lock entry.
func (sm *SessionManager) Delete(ctx context.Context, sessionID string) error {
	if err := sm.store.DeleteSession(sessionID); err != nil {
		slog.Error("SessionManager Delete error", "error", err, "sessionID", sessionID)
		return err
	}
	sm.locks.Delete(sessionID)
	slog.Debug("SessionManager Delete succeeded", "sessionID", sessionID)
	return nil
}

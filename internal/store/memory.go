package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lafiya-uwa/ussdcare/internal/models"
)

// MemoryStore is a thread-safe in-memory Store. It backs tests and
// single-process deployments where persistence across restarts is not
// required.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]models.User // keyed by phone number
	assessments []models.RiskAssessment
	events      []models.Event
	sessions    map[string]models.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		sessions: make(map[string]models.Session),
	}
}

func (s *MemoryStore) CreateUser(u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.PhoneNumber]; ok {
		return ErrUserExists
	}
	s.users[u.PhoneNumber] = u
	slog.Debug("MemoryStore CreateUser succeeded", "phone", u.PhoneNumber, "riskLevel", u.RiskProfile)
	return nil
}

func (s *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[phone]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryStore) UpdateUser(phone string, upd models.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	if !ok {
		return ErrUserNotFound
	}
	applyUserUpdate(&u, upd)
	u.UpdatedAt = time.Now()
	s.users[phone] = u
	slog.Debug("MemoryStore UpdateUser succeeded", "phone", phone)
	return nil
}

func (s *MemoryStore) ListActiveUsers() ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []models.User
	for _, u := range s.users {
		if u.Status == models.UserStatusActive {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *MemoryStore) AddAssessment(a models.RiskAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments = append(s.assessments, a)
	return nil
}

// GetAssessments returns all stored assessments (for tests).
func (s *MemoryStore) GetAssessments() []models.RiskAssessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RiskAssessment, len(s.assessments))
	copy(out, s.assessments)
	return out
}

func (s *MemoryStore) AddEvent(e models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// GetEvents returns all stored audit events (for tests).
func (s *MemoryStore) GetEvents() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *MemoryStore) GetSession(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	sess.Fields = sess.Fields.Clone()
	return &sess, nil
}

func (s *MemoryStore) SaveSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.Fields = sess.Fields.Clone()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// applyUserUpdate merges the set fields of a UserUpdate into a user record.
// Shared by all backends so partial updates behave identically.
func applyUserUpdate(u *models.User, upd models.UserUpdate) {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.LGA != nil {
		u.LGA = *upd.LGA
	}
	if upd.CurrentWeek != nil {
		u.CurrentWeek = *upd.CurrentWeek
	}
	if upd.RiskProfile != nil {
		u.RiskProfile = *upd.RiskProfile
	}
	if upd.RiskScore != nil {
		u.RiskScore = *upd.RiskScore
	}
}

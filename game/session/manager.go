package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/sumstack/game/engine"
	"github.com/wricardo/sumstack/game/service"
	"github.com/wricardo/sumstack/game/ticker"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// maxIDAttempts bounds retries when a generated ID collides
const maxIDAttempts = 16

// Manager handles game session lifecycle
type Manager struct {
	sessions map[string]*service.Session
	records  *engine.RecordTracker
	clock    ticker.Clock
	mu       sync.RWMutex
}

var _ service.SessionManager = (*Manager)(nil)

// Option customizes a Manager
type Option func(*Manager)

// WithRecords shares a record tracker between every session of the manager
func WithRecords(records *engine.RecordTracker) Option {
	return func(m *Manager) {
		m.records = records
	}
}

// WithClock sets the clock driving TIME mode countdowns
func WithClock(clock ticker.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a new session manager. Without options the record is
// kept in memory and countdowns use the real clock.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.records == nil {
		m.records = engine.NewRecordTracker(nil)
	}
	if m.clock == nil {
		m.clock = ticker.RealClock{}
	}
	return m
}

// Records returns the record tracker shared by all sessions
func (m *Manager) Records() *engine.RecordTracker {
	return m.records
}

// Create creates a new session with the given ID and configuration.
// An empty ID generates a random 4-character one.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if strings.ContainsAny(id, " /\t\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		generated, err := m.generateSessionID()
		if err != nil {
			return nil, err
		}
		id = generated
	}

	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(config, m.records)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		Ticker:         ticker.NewSource(m.clock),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[strings.ToLower(id)] = sess

	zap.L().Debug("session created", zap.String("session_id", id), zap.String("config", config.Name))
	return sess, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	sess, err := m.Get(id)
	if err == nil {
		return sess, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		sess, err = m.Create(id, config)
		if errors.Is(err, ErrSessionAlreadyExists) {
			// Lost a race with another creator
			return m.Get(id)
		}
		return sess, err
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Delete removes a session and stops its countdown
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	lowerID := strings.ToLower(id)
	sess, exists := m.sessions[lowerID]
	if exists {
		delete(m.sessions, lowerID)
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}

	stopSession(sess)
	zap.L().Debug("session deleted", zap.String("session_id", sess.ID))
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session.
// The timestamp is written under both locks so either one is enough to read it.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	sess.Lock()
	sess.LastAccessedAt = time.Now()
	sess.Unlock()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the
// given duration and stops their countdowns
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Session
	for id, sess := range m.sessions {
		if sess.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, sess)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		stopSession(sess)
	}
	return len(expired)
}

// CloseAll stops every countdown and forgets all sessions
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*service.Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		stopSession(sess)
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// stopSession cancels the countdown with the session locked so an in-flight
// tick sees its generation retired
func stopSession(sess *service.Session) {
	sess.Lock()
	defer sess.Unlock()
	sess.Ticker.Stop()
}

// generateSessionID generates a random, unused 4-character session ID.
// Must be called with m.mu held.
func (m *Manager) generateSessionID() (string, error) {
	bytes := make([]byte, 2)
	for i := 0; i < maxIDAttempts; i++ {
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("failed to generate session ID: %w", err)
		}
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique session ID after %d attempts", maxIDAttempts)
}

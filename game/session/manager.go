package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
)

var (
	// ErrSessionNotFound is the service sentinel so callers can match either
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles game session lifecycle. Session IDs are case-insensitive.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	log         logrus.FieldLogger
	mu          sync.RWMutex
}

// NewManager creates a new in-memory session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		log:      logrus.StandardLogger(),
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	m := NewManager()
	m.persistence = persistence
	return m
}

// SetLogger replaces the manager's logger
func (m *Manager) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		m.log = l
	}
}

// Create creates a new session and deals its first game
func (m *Manager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = m.generateSessionID()
	} else if !validSessionID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		ConfigID:       configID,
		GameID:         uuid.NewString(),
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}
	m.sessions[strings.ToLower(id)] = session

	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			// Don't fail the creation
			m.log.WithField("session_id", id).WithError(err).Warn("failed to persist session")
		}
	}

	return session, nil
}

// Get retrieves a session by ID, falling back to persistence when it is not in memory
func (m *Manager) Get(id string) (*service.Session, error) {
	if !validSessionID(id) {
		return nil, ErrSessionNotFound
	}
	key := strings.ToLower(id)

	m.mu.RLock()
	session, exists := m.sessions[key]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.persistence.Load(id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another goroutine may have loaded it meanwhile
	if session, exists := m.sessions[key]; exists {
		return session, nil
	}
	m.sessions[key] = loaded
	return loaded, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, configID, config)
	}

	return nil, err
}

// List returns all sessions held in memory
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session from memory and persistence
func (m *Manager) Delete(id string) error {
	if !validSessionID(id) {
		return ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	_, inMemory := m.sessions[key]
	delete(m.sessions, key)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.sessions[key]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session. The new
// time reaches storage with the next Save.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// Save saves a specific session to persistence. The caller holds the session lock.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(session)
}

// CleanupExpiredSessions drops sessions that haven't been accessed within maxAge
// from memory. Persisted copies remain loadable.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.log.WithField("removed", removed).Info("expired idle sessions")
	}
	return removed
}

// Count returns the number of sessions held in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character hex ID not already in use
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		m.mu.RLock()
		taken := m.sessionExists(id)
		m.mu.RUnlock()
		if !taken && (m.persistence == nil || !m.persistence.Exists(id)) {
			return id
		}
	}
}

// sessionExists checks if a session exists. Caller holds m.mu.
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}

// validSessionID rejects IDs that could escape a storage namespace
func validSessionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	return !strings.ContainsAny(id, `/\:*?`) && !strings.Contains(id, "..")
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loadedCount := 0
	for _, id := range sessionIDs {
		m.mu.RLock()
		exists := m.sessionExists(id)
		m.mu.RUnlock()
		if exists {
			continue
		}

		session, err := m.persistence.Load(id)
		if err != nil {
			m.log.WithField("session_id", id).WithError(err).Warn("failed to load persisted session")
			continue
		}

		m.mu.Lock()
		if !m.sessionExists(id) {
			m.sessions[strings.ToLower(id)] = session
			loadedCount++
		}
		m.mu.Unlock()
	}

	if loadedCount > 0 {
		m.log.WithField("count", loadedCount).Info("loaded persisted sessions from storage")
	}

	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessions := m.List()

	errorCount := 0
	for _, session := range sessions {
		session.Lock()
		err := m.persistence.Save(session)
		session.Unlock()
		if err != nil {
			m.log.WithField("session_id", session.ID).WithError(err).Warn("failed to save session")
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}

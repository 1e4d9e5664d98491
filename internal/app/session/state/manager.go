package state

import (
	"sync"
	"time"
)

// Manager manages session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	sessionID string
	phase     Phase
	reason    error // why the session is degraded
	startedAt time.Time
}

// New creates a new state manager.
func New(sessionID string) *Manager {
	return &Manager{
		sessionID: sessionID,
		phase:     PhaseStarting,
	}
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// SetPhase sets the session phase.
func (m *Manager) SetPhase(p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = p
	if p == PhaseActive && m.startedAt.IsZero() {
		m.startedAt = time.Now()
	}
}

// Degrade enters PhaseDegraded with the cause.
func (m *Manager) Degrade(reason error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseDegraded
	m.reason = reason
	if m.startedAt.IsZero() {
		m.startedAt = time.Now()
	}
}

// GetReason returns why the session is degraded, or nil.
func (m *Manager) GetReason() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reason
}

// IsRunning returns true if the session has started and not terminated.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase == PhaseActive || m.phase == PhaseDegraded
}

// GetStartedAt returns when the session started, zero before that.
func (m *Manager) GetStartedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startedAt
}

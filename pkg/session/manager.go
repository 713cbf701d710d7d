package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxrelay/voxrelay/pkg/audio"
)

// sweepInterval is how often the idle sweeper scans the registry.
const sweepInterval = 5 * time.Minute

// Defaults are the initial settings assigned to every new session.
type Defaults struct {
	// ModelID is the default model on the primary backend.
	ModelID string

	// Voice is the default synthesis voice.
	Voice VoiceSelector
}

// Manager owns the registry of live sessions. All methods are safe for
// concurrent use; mutation of an individual session's fields is
// serialized by the session's own mutex, not by the registry lock.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults Defaults
	logger   *slog.Logger
}

// NewManager creates an empty session registry.
func NewManager(defaults Defaults) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
		logger:   slog.Default().With("component", "session.manager"),
	}
}

// GetOrCreate returns the session with the given id, creating it with
// default settings if absent. An empty id always creates a new session
// with a generated identifier. The second return value reports whether
// the session was created by this call.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the write lock: another handler may have raced us.
	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s, false
		}
	} else {
		id = uuid.NewString()
	}

	s := &Session{
		ID: id,
		Model: ModelSelector{
			Backend: BackendPrimary,
			ModelID: m.defaults.ModelID,
		},
		Voice:     m.defaults.Voice,
		Assembler: audio.NewAssembler(),
	}
	s.Touch()
	m.sessions[id] = s

	m.logger.Debug("session created", "session_id", id)
	return s, true
}

// Get returns the session with the given id, if present.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove deletes a session from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.logger.Debug("session removed", "session_id", id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartSweeper runs a background goroutine that evicts sessions idle for
// longer than ttl. Connection-scoped sessions are touched by their
// keepalive traffic, so in practice the sweeper only collects abandoned
// REST sessions.
func (m *Manager) StartSweeper(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		m.logger.Info("session sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				m.sweep(ttl)
			case <-ctx.Done():
				m.logger.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (m *Manager) sweep(ttl time.Duration) {
	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.IdleFor() > ttl {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	if len(expired) > 0 {
		m.logger.Info("evicted idle sessions", "count", len(expired), "remaining", remaining)
	}
}

package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Factory builds the Context of a client runtime.
type Factory func(clientID string) *Context

type managedSession struct {
	ctx      *Context
	lastSeen time.Time
}

// Manager owns one Context per console client. A context is restored from the
// token store the first time its client is seen and evicted after IdleTTL, so
// token expiry is re-checked whenever an idle client returns.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession
	factory  Factory
	idleTTL  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewManager creates an empty registry.
func NewManager(factory Factory, idleTTL time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*managedSession),
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Acquire returns the Context of clientID, creating and restoring it on first use.
// Concurrent callers for a new client see the Initializing state until restore ends.
func (m *Manager) Acquire(ctx context.Context, clientID string) *Context {
	m.mu.Lock()
	if entry, ok := m.sessions[clientID]; ok {
		entry.lastSeen = m.now()
		m.mu.Unlock()
		return entry.ctx
	}
	sc := m.factory(clientID)
	m.sessions[clientID] = &managedSession{ctx: sc, lastSeen: m.now()}
	m.mu.Unlock()

	if err := sc.Restore(ctx); err != nil {
		m.logger.Warn("session restore failed; retrying on next request", zap.String("client_id", clientID), zap.Error(err))
		m.evictIf(clientID, sc)
	}
	return sc
}

// Evict forgets clientID. Its token store is untouched.
func (m *Manager) Evict(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, clientID)
}

// evictIf forgets clientID only while it still maps to sc.
func (m *Manager) evictIf(clientID string, sc *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.sessions[clientID]; ok && entry.ctx == sc {
		delete(m.sessions, clientID)
	}
}

// Sweep evicts contexts idle for longer than the idle TTL and returns how many were dropped.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, entry := range m.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len reports how many client contexts are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

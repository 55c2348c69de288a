package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Manager tracks live chat clients by session id and expires idle ones.
// Ended sessions are dropped from the registry.
type Manager[C any] struct {
	mu                sync.RWMutex
	sessions          map[string]*Session[C]
	inactivityTimeout time.Duration
	onExpire          func(*Session[C])
}

func NewManager[C any](inactivityTimeout time.Duration) *Manager[C] {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager[C]{
		sessions:          make(map[string]*Session[C]),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager[C]) SetExpireHook(hook func(*Session[C])) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Add registers client under id. An existing entry with the same id is replaced.
func (m *Manager[C]) Add(id string, client C) *Session[C] {
	now := time.Now().UTC()
	s := &Session[C]{
		ID:             id,
		Status:         StatusActive,
		StartedAt:      now,
		LastActivityAt: now,
		Client:         client,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return clone(s)
}

func (m *Manager[C]) Get(id string) (*Session[C], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// Touch records activity and returns the refreshed entry.
func (m *Manager[C]) Touch(id string) (*Session[C], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.LastActivityAt = time.Now().UTC()
	return clone(s), nil
}

func (m *Manager[C]) End(id string) (*Session[C], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.sessions, id)
	s.Status = StatusEnded
	s.LastActivityAt = time.Now().UTC()
	return clone(s), nil
}

func (m *Manager[C]) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager[C]) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager[C]) expireInactive() {
	now := time.Now().UTC()
	var expired []*Session[C]

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		delete(m.sessions, id)
		s.Status = StatusEnded
		s.LastActivityAt = now
		expired = append(expired, clone(s))
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

func clone[C any](s *Session[C]) *Session[C] {
	c := *s
	return &c
}

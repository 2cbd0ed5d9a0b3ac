package session

import (
	"context"
	"sync"
	"time"

	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
)

// MemoryBackend keeps sessions in a map for the life of the process.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]*chat.Session)}
}

func (m *MemoryBackend) Load(_ context.Context, id string) (*chat.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id].Clone(), nil
}

func (m *MemoryBackend) Save(_ context.Context, s *chat.Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = s.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

func (m *MemoryBackend) DeleteIdle(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryBackend) Close() error { return nil }

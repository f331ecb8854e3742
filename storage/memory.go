package storage

import (
	"context"
	"sync"

	"github.com/dparolin/dommyhoops/llm"
)

// InMemoryStore implements SessionStore using an in-memory map.
// Data is lost when the process terminates; suitable for tests and
// ephemeral deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]llm.Message
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]llm.Message)}
}

// Append adds messages to a session.
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, messages []llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], messages...)
	return nil
}

// Load returns a copy of a session's messages.
func (s *InMemoryStore) Load(ctx context.Context, sessionID string) ([]llm.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[sessionID]
	copied := make([]llm.Message, len(history))
	copy(copied, history)
	return copied, nil
}

// Sessions lists all known session IDs.
func (s *InMemoryStore) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		sessions = append(sessions, id)
	}
	return sessions, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error {
	return nil
}

// Verify InMemoryStore implements SessionStore
var _ SessionStore = (*InMemoryStore)(nil)

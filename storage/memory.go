// Package storage provides in-memory session storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/richinex/zerb/project"
)

type memorySession struct {
	history    []Message
	files      []project.File
	active     string
	hasProject bool
	updatedAt  time.Time
}

// InMemoryStorage implements Store using in-memory maps.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		sessions: make(map[string]*memorySession),
	}
}

func (s *InMemoryStorage) session(sessionID string) *memorySession {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &memorySession{}
		s.sessions[sessionID] = sess
	}
	sess.updatedAt = time.Now()
	return sess
}

// Save saves the transcript for a session.
func (s *InMemoryStorage) Save(ctx context.Context, sessionID string, history []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session(sessionID).history = copyMessages(history)
	return nil
}

// Load loads the transcript for a session.
// Returns empty slice if session doesn't exist.
func (s *InMemoryStorage) Load(ctx context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return []Message{}, nil
	}
	return copyMessages(sess.history), nil
}

// Delete deletes a session.
func (s *InMemoryStorage) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// ListSessions lists all session IDs, most recently updated first.
func (s *InMemoryStorage) ListSessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.sessions))
	for sessionID := range s.sessions {
		sessions = append(sessions, sessionID)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return s.sessions[sessions[i]].updatedAt.After(s.sessions[sessions[j]].updatedAt)
	})
	return sessions, nil
}

// Exists checks if a session exists.
func (s *InMemoryStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

// SaveProject saves project files for a session.
func (s *InMemoryStorage) SaveProject(ctx context.Context, sessionID string, files []project.File, active string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	sess.files = append([]project.File(nil), files...)
	sess.active = active
	sess.hasProject = true
	return nil
}

// LoadProject loads project files for a session.
func (s *InMemoryStorage) LoadProject(ctx context.Context, sessionID string) ([]project.File, string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || !sess.hasProject {
		return nil, "", false, nil
	}
	return append([]project.File(nil), sess.files...), sess.active, true, nil
}

// Verify InMemoryStorage implements Store
var _ Store = (*InMemoryStorage)(nil)

// Package store provides form session persistence backends.
package store

import (
	"context"
	"sort"
	"sync"

	"govnav/internal/form"
	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
)

// MemoryStore keeps sessions in memory for development and tests. Snapshots
// are deep-copied on the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]form.FormSession
}

// NewMemory constructs an in-memory session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[id.SessionID]form.FormSession)}
}

func (s *MemoryStore) Create(_ context.Context, session form.FormSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID id.SessionID) (form.FormSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return form.FormSession{}, sentinel.ErrNotFound
	}
	return session.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, session form.FormSession, prev int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != prev {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]form.FormSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []form.FormSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, session.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
